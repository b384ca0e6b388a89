package depscan

import (
	"context"
	"fmt"
	"io"

	"github.com/longomatch/gstreamer-packager/internal/deps"
	"github.com/longomatch/gstreamer-packager/internal/logger"
)

// Options contains inputs for the gst-deps entry point.
type Options struct {
	// Platform selects the binary format: "windows", "darwin" or "linux".
	Platform string
	// Prefix is the installation root; dependencies outside it are
	// treated as system libraries and excluded.
	Prefix string
	// Paths are the binaries to start the traversal from.
	Paths []string
}

// Run prints the transitive shared-library closure of the given
// binaries to out, one path per line.
func Run(ctx context.Context, opts *Options, out io.Writer) error {
	ctx = logger.WithName(ctx, "gst-deps")

	platform, err := deps.ParsePlatform(opts.Platform)
	if err != nil {
		return err
	}

	tracker, err := deps.NewTracker(platform, opts.Prefix)
	if err != nil {
		return err
	}

	return run(ctx, opts, tracker, out)
}

func run(ctx context.Context, opts *Options, tracker *deps.Tracker, out io.Writer) error {
	closure, err := tracker.ListDeps(ctx, opts.Paths)
	if err != nil {
		return fmt.Errorf("list dependencies: %w", err)
	}

	logger.InfoKV(ctx, "Dependency scan finished", "entry_points", len(opts.Paths), "libraries", len(closure))

	for _, lib := range closure {
		if _, err := fmt.Fprintln(out, lib); err != nil {
			return err
		}
	}

	return nil
}
