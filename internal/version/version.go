package version

import "fmt"

// Build metadata stamped via ldflags by the release pipeline. A binary
// built without stamping identifies itself as a development build.
var (
	// Version is the packager's own semantic version.
	Version = "0.0.0-dev"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
