package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/longomatch/gstreamer-packager/internal/logger"
	"github.com/longomatch/gstreamer-packager/internal/service/relocate"
	"github.com/longomatch/gstreamer-packager/internal/version"
)

var (
	// recursive relocates every shared library under a directory.
	recursive bool
	// systemPrefixes overrides the directories never relocated.
	systemPrefixes []string
	// logLevel controls log verbosity.
	logLevel string

	// rootCmd represents the base command for relocating binaries.
	rootCmd = &cobra.Command{
		Use:   "gst-relocator [path]",
		Short: "Make Mach-O binaries relocatable",
		Long: `Rewrites the dependency records of Mach-O binaries to @rpath
references and resets their run paths, so the binaries resolve their
dependencies relative to their own location.

Libraries under system prefixes (by default /usr/lib and
/System/Library) are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &relocate.Options{
				Path:           args[0],
				Recursive:      recursive,
				SystemPrefixes: systemPrefixes,
			}

			return relocate.Run(ctx, options)
		},
	}
)

// Execute runs the gst-relocator CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "relocate every shared library under a directory")
	rootCmd.Flags().StringSliceVar(&systemPrefixes, "system-prefix", nil, "directory prefix never relocated (repeatable)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn, error")
}
