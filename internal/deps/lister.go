package deps

import (
	"context"
	"errors"
	"fmt"

	"github.com/longomatch/gstreamer-packager/internal/shell"
)

// Platform identifies one of the supported OS binary formats.
type Platform string

// Supported platforms.
const (
	PlatformWindows Platform = "windows"
	PlatformDarwin  Platform = "darwin"
	PlatformLinux   Platform = "linux"
)

// errUnsupportedPlatform indicates a programming error: a Tracker was
// requested for a platform without a Lister implementation.
var errUnsupportedPlatform = errors.New("no dependency lister for platform")

// ParsePlatform validates a platform string coming from flags or config.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(s); p {
	case PlatformWindows, PlatformDarwin, PlatformLinux:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedPlatform, s)
	}
}

// Lister reports the direct (non-transitive) shared-library
// dependencies of a single binary, resolved to absolute paths.
// Recursion is the Tracker's job.
type Lister interface {
	ListFileDeps(ctx context.Context, prefix, path string) ([]string, error)
}

// NewLister selects the Lister implementation for the platform.
// The choice is made once at construction, not per call.
func NewLister(platform Platform, runner shell.Runner) (Lister, error) {
	switch platform {
	case PlatformWindows:
		return &ObjdumpLister{runner: runner}, nil
	case PlatformDarwin:
		return &OtoolLister{runner: runner}, nil
	case PlatformLinux:
		return &LddLister{runner: runner}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedPlatform, platform)
	}
}
