package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/longomatch/gstreamer-packager/internal/deps"
	"github.com/longomatch/gstreamer-packager/internal/logger"
	"github.com/longomatch/gstreamer-packager/internal/shell"
)

// gstRegistryKey is written by the msi installer and points at the
// framework installation root.
const gstRegistryKey = `HKLM\SOFTWARE\WOW6432Node\GStreamer1.0\x86_64`

var errInstallDirNotFound = errors.New("gstreamer install dir not found in registry")

// windowsBackend packages the msvc x86_64 framework build for the
// win-x64 runtime.
type windowsBackend struct{}

func (w *windowsBackend) platform() deps.Platform {
	return deps.PlatformWindows
}

func (w *windowsBackend) nugetRID() string {
	return "win-x64"
}

func (w *windowsBackend) installerName(version, flavor string) string {
	return fmt.Sprintf("gstreamer-1.0%s-msvc-x86_64-%s.msi", flavor, version)
}

func (w *windowsBackend) installerURL(version, filename string) string {
	return fmt.Sprintf("https://gstreamer.freedesktop.org/data/pkg/windows/%s/msvc/%s", version, filename)
}

func (w *windowsBackend) installPackage(ctx context.Context, b *builder, path, logFile string) error {
	return b.runner.Run(ctx, "", "msiexec",
		"/i", path, "/quiet", "/l*", logFile, "/norestart", "ADDLOCAL=All")
}

// gstInstallDir reads the installer's registry key to locate the framework.
func (w *windowsBackend) gstInstallDir(ctx context.Context, b *builder) (string, error) {
	out, err := b.runner.Output(ctx, "", "reg.exe", "query", gstRegistryKey, "/v", "InstallDir")
	if err != nil {
		return "", fmt.Errorf("query registry: %w", err)
	}

	for _, line := range shell.Lines(out) {
		idx := strings.Index(line, "REG_SZ")
		if idx < 0 {
			continue
		}

		root := strings.TrimSpace(line[idx+len("REG_SZ"):])
		if root == "" {
			continue
		}

		return filepath.Join(root, "1.0", "msvc_x86_64"), nil
	}

	return "", errInstallDirNotFound
}

func (w *windowsBackend) pluginFile(installDir, name string) string {
	return filepath.Join(installDir, "lib", "gstreamer-1.0", "gst"+name+".dll")
}

func (w *windowsBackend) libFile(installDir, name string) string {
	return filepath.Join(installDir, "bin", name+"-0.dll")
}

func (w *windowsBackend) configureEnv(installDir string) error {
	if err := os.Setenv("PKG_CONFIG_LIBDIR", filepath.Join(installDir, "lib", "pkgconfig")); err != nil {
		return err
	}

	path := filepath.Join(installDir, "bin") + string(os.PathListSeparator) + os.Getenv("PATH")

	return os.Setenv("PATH", path)
}

func (w *windowsBackend) nugetCommand(cacheDir string) []string {
	return []string{filepath.Join(cacheDir, "nuget.exe")}
}

// installArtifacts assembles runtimes/win-x64/native: plugins, their
// dll closure, the plugin scanner and the gio tls module.
func (w *windowsBackend) installArtifacts(ctx context.Context, b *builder) error {
	installDir, err := b.installDir(ctx)
	if err != nil {
		return err
	}

	nativeDir := filepath.Join(b.nugetDir, "runtimes", w.nugetRID(), "native")
	pluginsDir := filepath.Join(nativeDir, "lib", "gstreamer-1.0")
	scannerDir := filepath.Join(nativeDir, "libexec", "gstreamer-1.0")

	for _, dir := range []string{pluginsDir, scannerDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	plugins, err := readPluginsList(filepath.Join(b.sourceDir, b.cfg.PluginsFile))
	if err != nil {
		return err
	}

	entryPoints := make([]string, 0, len(plugins)+len(b.cfg.Libraries))
	for _, plugin := range plugins {
		entryPoints = append(entryPoints, w.pluginFile(installDir, plugin))
	}

	for _, lib := range b.cfg.Libraries {
		entryPoints = append(entryPoints, w.libFile(installDir, lib))
	}

	tracker, err := deps.NewTracker(w.platform(), installDir)
	if err != nil {
		return err
	}

	closure, err := tracker.ListDeps(ctx, entryPoints)
	if err != nil {
		return fmt.Errorf("list dependencies: %w", err)
	}

	logger.InfoKV(ctx, "Collected dependency closure", "entry_points", len(entryPoints), "libraries", len(closure))

	var installed []string

	for _, lib := range closure {
		dstDir := nativeDir
		if filepath.Dir(lib) == filepath.Join(installDir, "lib", "gstreamer-1.0") {
			dstDir = pluginsDir
		}

		dst := filepath.Join(dstDir, filepath.Base(lib))
		if err := copyFile(lib, dst); err != nil {
			return err
		}

		installed = append(installed, dst)
	}

	scanner := filepath.Join(installDir, "libexec", "gstreamer-1.0", "gst-plugin-scanner.exe")
	if err := copyFile(scanner, filepath.Join(scannerDir, "gst-plugin-scanner.exe")); err != nil {
		return err
	}

	gioModule := filepath.Join(installDir, "lib", "gio", "modules", "gioopenssl.dll")
	if _, err := os.Stat(gioModule); err == nil {
		dst := filepath.Join(nativeDir, "lib", "gio", "modules", "gioopenssl.dll")
		if err := copyFile(gioModule, dst); err != nil {
			return err
		}
	}

	w.stripInstalled(ctx, b, installed)

	return nil
}

// stripInstalled removes debug symbols from the copied dlls. Stripping
// is best effort, a missing binutils toolchain must not fail the build.
func (w *windowsBackend) stripInstalled(ctx context.Context, b *builder, installed []string) {
	for _, file := range installed {
		name := filepath.Base(file)
		if !strings.HasPrefix(name, "av") && !strings.HasPrefix(name, "lib") {
			continue
		}

		if err := b.runner.Run(ctx, "", "strip", "-s", file); err != nil {
			logger.Warnf(ctx, "Failed to strip %s: %v", file, err)
		}
	}
}
