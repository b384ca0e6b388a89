// Package download fetches build artifacts (framework installers, the
// nuget CLI) over HTTP into the cache directory, skipping files that
// are already present and match their expected checksum.
package download
