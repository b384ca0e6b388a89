package packager

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/longomatch/gstreamer-packager/internal/logger"
)

const (
	// markerFilename marks that a packaging run is in flight to avoid
	// two runs fighting over the same build tree.
	markerFilename = "gst-packager-marker.bin"

	// markerLifetime is the period after which a stale marker is
	// double-checked against the process list.
	markerLifetime = 30 * time.Second
)

// IsPackagerRunningNow checks presence of the run marker and attempts
// recovery when it looks stale.
func IsPackagerRunningNow(ctx context.Context) bool {
	fileInfo, err := os.Stat(markerFilename)
	if err != nil {
		return false
	}

	if time.Since(fileInfo.ModTime()) <= markerLifetime {
		return true
	}

	logger.Info(ctx, "The run marker is stale, checking the process list")

	if anotherPackagerAlive(ctx) {
		return true
	}

	if err := os.Remove(markerFilename); err != nil {
		logger.WarnKV(ctx, "Failed to remove stale run marker", "error", err)
		return true
	}

	return false
}

// anotherPackagerAlive scans running processes for a second packager.
func anotherPackagerAlive(ctx context.Context) bool {
	processes, err := ps.Processes()
	if err != nil {
		logger.WarnKV(ctx, "Failed to list processes", "error", err)
		// Assume the worst: a run we cannot rule out.
		return true
	}

	thisProcessID := os.Getpid()

	for _, process := range processes {
		if process.Pid() == thisProcessID {
			continue
		}

		if strings.HasPrefix(process.Executable(), "gst-packager") {
			return true
		}
	}

	return false
}

// writeRunMarker creates (or refreshes) the run marker.
func writeRunMarker() error {
	marker, err := os.Create(markerFilename)
	if err != nil {
		return err
	}

	return marker.Close()
}

// removeRunMarker drops the marker at the end of a run.
func removeRunMarker(ctx context.Context) {
	if err := os.Remove(markerFilename); err != nil && !os.IsNotExist(err) {
		logger.WarnKV(ctx, "Failed to remove run marker", "error", err)
	}
}
