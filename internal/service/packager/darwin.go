package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/longomatch/gstreamer-packager/internal/deps"
	"github.com/longomatch/gstreamer-packager/internal/logger"
	"github.com/longomatch/gstreamer-packager/internal/relocator"
)

// darwinFrameworkDir is where the upstream pkg installer puts the framework.
const darwinFrameworkDir = "/Library/Frameworks/GStreamer.framework/Versions/1.0"

// darwinBackend packages the macOS framework: universal installers are
// thinned to x86_64, install names are rewritten to @rpath and the
// payload is laid out for the osx-x64 runtime.
type darwinBackend struct{}

func (d *darwinBackend) platform() deps.Platform {
	return deps.PlatformDarwin
}

func (d *darwinBackend) nugetRID() string {
	return "osx-x64"
}

func (d *darwinBackend) installerName(version, flavor string) string {
	return fmt.Sprintf("gstreamer-1.0%s-%s-universal.pkg", flavor, version)
}

func (d *darwinBackend) installerURL(version, filename string) string {
	return fmt.Sprintf("https://gstreamer.freedesktop.org/data/pkg/osx/%s/%s", version, filename)
}

func (d *darwinBackend) installPackage(ctx context.Context, b *builder, path, logFile string) error {
	out, err := b.runner.Output(ctx, "", "sudo", "installer", "-verboseR", "-pkg", path, "-target", "/")

	if werr := os.WriteFile(logFile, out, 0o644); werr != nil {
		logger.Warnf(ctx, "Failed to write install log %s: %v", logFile, werr)
	}

	return err
}

func (d *darwinBackend) gstInstallDir(_ context.Context, _ *builder) (string, error) {
	return darwinFrameworkDir, nil
}

func (d *darwinBackend) pluginFile(installDir, name string) string {
	return filepath.Join(installDir, "lib", "gstreamer-1.0", "libgst"+name+".dylib")
}

func (d *darwinBackend) libFile(installDir, name string) string {
	return filepath.Join(installDir, "lib", "lib"+name+".0.dylib")
}

func (d *darwinBackend) configureEnv(installDir string) error {
	if err := os.Setenv("PKG_CONFIG", filepath.Join(installDir, "bin", "pkg-config")); err != nil {
		return err
	}

	return os.Setenv("PKG_CONFIG_LIBDIR", filepath.Join(installDir, "lib", "pkgconfig"))
}

func (d *darwinBackend) nugetCommand(cacheDir string) []string {
	return []string{"mono", filepath.Join(cacheDir, "nuget.exe")}
}

// installArtifacts assembles runtimes/osx-x64/native: the plugin set,
// its dependency closure thinned to x86_64, the plugin scanner and the
// gio modules, all relocated and stripped.
func (d *darwinBackend) installArtifacts(ctx context.Context, b *builder) error {
	installDir, err := b.installDir(ctx)
	if err != nil {
		return err
	}

	nativeDir := filepath.Join(b.nugetDir, "runtimes", d.nugetRID(), "native")
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
		entryPoints = append(entryPoints, d.pluginFile(installDir, plugin))
	}

	for _, lib := range b.cfg.Libraries {
		entryPoints = append(entryPoints, d.libFile(installDir, lib))
	}

	tracker, err := deps.NewTracker(d.platform(), installDir)
	if err != nil {
		return err
	}

	closure, err := tracker.ListDeps(ctx, entryPoints)
	if err != nil {
		return fmt.Errorf("list dependencies: %w", err)
	}

	logger.InfoKV(ctx, "Collected dependency closure", "entry_points", len(entryPoints), "libraries", len(closure))

	reloc := relocator.New(b.runner, b.cfg.RelocatorSystemPrefixes)

	var installed []string

	for _, lib := range preferLongestNames(closure) {
		dstDir := nativeDir
		if filepath.Dir(lib) == filepath.Join(installDir, "lib", "gstreamer-1.0") {
			dstDir = pluginsDir
		}

		dst := filepath.Join(dstDir, filepath.Base(lib))
		if err := d.thinCopy(ctx, b, lib, dst); err != nil {
			return err
		}

		installed = append(installed, dst)
	}

	scanner := filepath.Join(installDir, "libexec", "gstreamer-1.0", "gst-plugin-scanner")
	scannerDst := filepath.Join(scannerDir, "gst-plugin-scanner")
	if err := d.thinCopy(ctx, b, scanner, scannerDst); err != nil {
		return err
	}

	installed = append(installed, scannerDst)

	gioModules, err := copyGlob(
		filepath.Join(installDir, "lib", "gio", "modules", "*.so"),
		filepath.Join(nativeDir, "lib", "gio", "modules"))
	if err != nil {
		return err
	}

	installed = append(installed, gioModules...)

	for _, file := range installed {
		if err := reloc.ChangeLibsPath(ctx, file); err != nil {
			return fmt.Errorf("relocate %s: %w", file, err)
		}

		if err := b.runner.Run(ctx, "", "strip", "-SX", file); err != nil {
			logger.Warnf(ctx, "Failed to strip %s: %v", file, err)
		}
	}

	return d.linkUnversionedNames(ctx, nativeDir)
}

// thinCopy extracts the x86_64 slice of a universal binary into dst,
// falling back to a plain copy for thin binaries.
func (d *darwinBackend) thinCopy(ctx context.Context, b *builder, src, dst string) error {
	if err := b.runner.Run(ctx, "", "lipo", "-thin", "x86_64", src, "-output", dst); err != nil {
		logger.Debugf(ctx, "lipo failed for %s, copying as is: %v", src, err)

		return copyFile(src, dst)
	}

	return nil
}

// linkUnversionedNames creates unversioned symlinks for the ffmpeg
// libraries, which plugins reference without version suffixes.
func (d *darwinBackend) linkUnversionedNames(ctx context.Context, dir string) error {
	versioned, err := filepath.Glob(filepath.Join(dir, "libav*.*.dylib"))
	if err != nil {
		return err
	}

	for _, lib := range versioned {
		name := filepath.Base(lib)

		short := name[:strings.Index(name, ".")] + ".dylib"
		if short == name {
			continue
		}

		link := filepath.Join(dir, short)
		if _, err := os.Lstat(link); err == nil {
			continue
		}

		if err := os.Symlink(name, link); err != nil {
			return err
		}

		logger.DebugKV(ctx, "Linked unversioned name", "link", short, "target", name)
	}

	return nil
}

// preferLongestNames drops shorter spellings of the same library: when
// several files share the base name up to the first dot, the longest,
// most fully versioned one wins. Picks libgobject-2.0.0.dylib over
// libgobject-2.0.dylib when the closure happens to contain both.
func preferLongestNames(files []string) []string {
	byStem := make(map[string]string)

	for _, file := range files {
		name := filepath.Base(file)

		stem := name
		if dot := strings.Index(name, "."); dot >= 0 {
			stem = name[:dot]
		}

		if best, ok := byStem[stem]; !ok || len(filepath.Base(best)) < len(name) {
			byStem[stem] = file
		}
	}

	kept := make([]string, 0, len(byStem))
	for _, file := range byStem {
		kept = append(kept, file)
	}

	sort.Strings(kept)

	return kept
}
