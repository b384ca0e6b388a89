// Package depscan implements the gst-deps command: it walks the
// shared-library dependency graph of a set of binaries under an
// installation prefix and prints the resulting closure.
package depscan
