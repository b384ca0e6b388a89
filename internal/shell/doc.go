// Package shell runs external tools (objdump, otool, ldd,
// install_name_tool, meson, ninja, ...) behind a small interface so
// callers can be tested without the real binaries installed.
package shell
