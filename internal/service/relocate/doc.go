// Package relocate implements the gst-relocator command: it makes
// Mach-O binaries position independent by rewriting their dependency
// records to @rpath references and resetting their run paths.
package relocate
