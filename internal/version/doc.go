// Package version carries build metadata injected via ldflags, a
// semantic-version value type with parsing and ordering, and the
// git-based version derivation used when tagging packages.
package version
