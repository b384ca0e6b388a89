package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/longomatch/gstreamer-packager/internal/config"
	"github.com/longomatch/gstreamer-packager/internal/logger"
	"github.com/longomatch/gstreamer-packager/internal/service/packager"
	"github.com/longomatch/gstreamer-packager/internal/version"
)

var (
	// configPath to the packaging settings YAML file.
	configPath string
	// sourceDir is the repository root with templates and the plugin list.
	sourceDir string
	// buildDir overrides the build directory.
	buildDir string
	// cacheDir overrides the download cache directory.
	cacheDir string
	// logLevel controls log verbosity.
	logLevel string

	// rootCmd represents the base command for running packaging rules.
	rootCmd = &cobra.Command{
		Use:   "gst-packager [rule]",
		Short: "Build and publish GStreamer runtime packages",
		Long: `Drives the GStreamer packaging workflow for the current platform.

Rules map to workflow stages:
  install-deps  install the build toolchain and the nuget CLI
  install-gst   download and install the upstream framework
  configure     prepare a meson build tree for the plugin build
  build         compile the configured tree
  install       collect plugins and their dependency closure
  package       render metadata templates and pack the payload
  push          upload the finished package to the configured feed
  all           run a full release build`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &packager.Options{
				Rule:       args[0],
				ConfigPath: configPath,
				SourceDir:  sourceDir,
				BuildDir:   buildDir,
				CacheDir:   cacheDir,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the gst-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to settings file")
	rootCmd.Flags().StringVarP(&sourceDir, "source", "s", ".", "repository root with templates and plugin list")
	rootCmd.Flags().StringVarP(&buildDir, "build-dir", "b", "", "build directory (defaults to <source>/build)")
	rootCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "download cache directory (defaults to <build>/cache)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn, error")
}
