package packager

import (
	"context"
	"errors"

	"github.com/longomatch/gstreamer-packager/internal/config"
	"github.com/longomatch/gstreamer-packager/internal/deps"
)

var errUnsupportedBuildPlatform = errors.New("packaging is not supported on this platform")

// backend covers the platform-specific half of the packaging workflow:
// installer naming, framework location, library naming and the final
// artifact layout.
type backend interface {
	// platform reports which dependency lister the backend pairs with.
	platform() deps.Platform
	// nugetRID is the runtime identifier the package is built for.
	nugetRID() string
	// installerName builds the upstream installer filename for a
	// framework version and flavor ("" or "-devel").
	installerName(version, flavor string) string
	// installerURL is the download location of a named installer.
	installerURL(version, filename string) string
	// installPackage runs the OS installer for a downloaded package.
	installPackage(ctx context.Context, b *builder, path, logFile string) error
	// gstInstallDir locates the installed framework root.
	gstInstallDir(ctx context.Context, b *builder) (string, error)
	// pluginFile maps a plugin name to its file under the install root.
	pluginFile(installDir, name string) string
	// libFile maps a library name to its file under the install root.
	libFile(installDir, name string) string
	// configureEnv points pkg-config at the installed framework.
	configureEnv(installDir string) error
	// installArtifacts assembles the package payload under b.nugetDir.
	installArtifacts(ctx context.Context, b *builder) error
	// nugetCommand is the argv prefix invoking the nuget CLI.
	nugetCommand(cacheDir string) []string
}

func newBackend(platform string) (backend, error) {
	switch platform {
	case config.PlatformDarwin:
		return &darwinBackend{}, nil
	case config.PlatformWindows:
		return &windowsBackend{}, nil
	default:
		return nil, errUnsupportedBuildPlatform
	}
}
