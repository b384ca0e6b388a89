package cmd

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/longomatch/gstreamer-packager/internal/logger"
	"github.com/longomatch/gstreamer-packager/internal/service/depscan"
	"github.com/longomatch/gstreamer-packager/internal/version"
)

var (
	// platform selects the binary format to inspect.
	platform string
	// prefix is the installation root the closure is limited to.
	prefix string
	// logLevel controls log verbosity.
	logLevel string

	// rootCmd represents the base command for scanning dependencies.
	rootCmd = &cobra.Command{
		Use:   "gst-deps [binary...]",
		Short: "Print the shared-library closure of a set of binaries",
		Long: `Walks the shared-library dependency graph of the given binaries and
prints the transitive closure, one absolute path per line.

Only libraries under the installation prefix are followed; anything
outside it is treated as a system library and excluded. Symlinks in
the result are resolved to their targets.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &depscan.Options{
				Platform: platform,
				Prefix:   prefix,
				Paths:    args,
			}

			return depscan.Run(ctx, options, os.Stdout)
		},
	}
)

// Execute runs the gst-deps CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&platform, "platform", "p", runtime.GOOS, "binary format: windows, darwin or linux")
	rootCmd.Flags().StringVar(&prefix, "prefix", "", "installation root limiting the closure")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "warn", "log level: debug, info, warn, error")

	//nolint:errcheck // The flag is registered right above.
	rootCmd.MarkFlagRequired("prefix")
}
