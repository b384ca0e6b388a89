// Package relocator rewrites Mach-O load-path records so binaries keep
// working after being moved out of their installation prefix.
//
// Dependency records pointing into relocatable directories are changed
// to @rpath references, existing run-path records are removed, and a
// fixed run-path set (".", "@loader_path", "@executable_path") is
// installed. Each edit is a separate install_name_tool invocation and
// is best-effort: a failed edit is logged and the rest proceed.
package relocator
