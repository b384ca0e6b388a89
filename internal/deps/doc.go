// Package deps computes transitive shared-library dependency closures
// for framework binaries.
//
// A Tracker owns an install prefix and a platform Lister. The Lister
// reports the direct dependencies of a single binary by invoking the
// OS dump tool (objdump, otool or ldd) and parsing its output; the
// Tracker walks the resulting graph depth-first, breaking cycles, and
// returns the closed set of existing, symlink-resolved file paths.
package deps
