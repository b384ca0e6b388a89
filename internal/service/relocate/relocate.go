package relocate

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/longomatch/gstreamer-packager/internal/logger"
	"github.com/longomatch/gstreamer-packager/internal/relocator"
	"github.com/longomatch/gstreamer-packager/internal/shell"
)

// Options contains inputs for the gst-relocator entry point.
type Options struct {
	// Path is a Mach-O binary, or a directory when Recursive is set.
	Path string
	// Recursive relocates every shared library found under Path.
	Recursive bool
	// SystemPrefixes overrides the directories considered part of the
	// base system. Empty means the relocator defaults.
	SystemPrefixes []string
}

// Run rewrites the load commands of the selected binaries so they
// resolve dependencies relative to their own location.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "gst-relocator")

	return run(ctx, opts, relocator.New(shell.NewRunner(), opts.SystemPrefixes))
}

func run(ctx context.Context, opts *Options, reloc *relocator.Relocator) error {
	targets, err := collectTargets(opts)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Relocating binaries", "count", len(targets))

	for _, target := range targets {
		if err := reloc.ChangeLibsPath(ctx, target); err != nil {
			return fmt.Errorf("relocate %s: %w", target, err)
		}
	}

	return nil
}

// collectTargets expands the path option into the list of binaries to
// rewrite.
func collectTargets(opts *Options) ([]string, error) {
	info, err := os.Stat(opts.Path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{opts.Path}, nil
	}

	if !opts.Recursive {
		return nil, fmt.Errorf("%s is a directory, recursive mode required", opts.Path)
	}

	var targets []string

	err = filepath.WalkDir(opts.Path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.Type()&fs.ModeSymlink != 0 || entry.IsDir() {
			return nil
		}

		if isSharedLibrary(entry.Name()) {
			targets = append(targets, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return targets, nil
}

func isSharedLibrary(name string) bool {
	switch filepath.Ext(name) {
	case ".dylib", ".so":
		return true
	}

	// The plugin scanner has no extension but links the framework too.
	return strings.HasPrefix(name, "gst-plugin-scanner")
}
