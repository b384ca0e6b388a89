package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/longomatch/gstreamer-packager/internal/config"
	"github.com/longomatch/gstreamer-packager/internal/logger"
	"github.com/longomatch/gstreamer-packager/internal/shell"
)

// Options contains inputs for the gst-packager entry point.
type Options struct {
	// Rule is the workflow stage to execute.
	Rule string
	// ConfigPath is an optional path to the packaging settings YAML.
	ConfigPath string
	// SourceDir is the repository root holding templates and the plugin list.
	SourceDir string
	// BuildDir overrides the build directory (defaults to <source>/build).
	BuildDir string
	// CacheDir overrides the cache directory (defaults to <build>/cache).
	CacheDir string
}

var (
	errPackagerRunning = errors.New("another packaging run is active")
	errUnknownRule     = errors.New("unknown build rule")
)

// Run executes one packaging rule.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "gst-packager")

	cfg, err := loadConfig(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	if IsPackagerRunningNow(ctx) {
		return errPackagerRunning
	}

	if err := writeRunMarker(); err != nil {
		return fmt.Errorf("write run marker: %w", err)
	}

	defer removeRunMarker(ctx)

	runner := shell.WithTimeout(shell.NewRunner(), cfg.Timeout)

	b, err := newBuilder(ctx, cfg, opts, runner)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	if err := b.runRule(ctx, opts.Rule); err != nil {
		return fmt.Errorf("rule %s: %w", opts.Rule, err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// loadConfig reads settings when the file exists, otherwise starts
// from validated defaults so a bare checkout still packages. Defaults
// are persisted so later runs and the other gst tools share them.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultConfigFilename
	}

	if _, err := os.Stat(filepath.Clean(path)); err != nil {
		cfg := &config.Config{}
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}

		if err := config.Save(path, cfg); err != nil {
			logger.WarnKV(ctx, "Failed to persist default settings", "path", path, "error", err)
		}

		return cfg, nil
	}

	return config.Load(path)
}
