package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/longomatch/gstreamer-packager/internal/config"
	"github.com/longomatch/gstreamer-packager/internal/download"
	"github.com/longomatch/gstreamer-packager/internal/logger"
	"github.com/longomatch/gstreamer-packager/internal/shell"
	"github.com/longomatch/gstreamer-packager/internal/version"
)

// nugetCLIURL is where the nuget command-line tool is fetched from.
const nugetCLIURL = "https://dist.nuget.org/win-x86-commandline/latest/nuget.exe"

// packageBaseName is the nuget package identity shared by all platforms.
const packageBaseName = "LongoMatch.Multimedia.GStreamer.runtime"

// builder holds the state of one packaging run.
type builder struct {
	cfg     *config.Config
	runner  shell.Runner
	backend backend

	// sourceDir is the repository root with templates and plugin list.
	sourceDir string
	// buildDir hosts build trees, logs and finished packages.
	buildDir string
	// cacheDir keeps downloaded installers and tools between runs.
	cacheDir string
	// nugetDir is where the package payload is laid out.
	nugetDir string
	// gstBuildDir is the meson build tree of the framework.
	gstBuildDir string
	// prefix is the install prefix used when building from source.
	prefix string

	// gstVersion selects which upstream installers to fetch.
	gstVersion string
	// nugetVersion stamps the produced package.
	nugetVersion string
}

// newBuilder resolves directories, picks the platform backend and
// derives the versions used by the run.
func newBuilder(ctx context.Context, cfg *config.Config, opts *Options, runner shell.Runner) (*builder, error) {
	be, err := newBackend(cfg.Platform)
	if err != nil {
		return nil, err
	}

	sourceDir := opts.SourceDir
	if sourceDir == "" {
		sourceDir = "."
	}

	buildDir := opts.BuildDir
	if buildDir == "" {
		buildDir = filepath.Join(sourceDir, "build")
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = cfg.CacheDir
	}

	if cacheDir == "" {
		cacheDir = filepath.Join(buildDir, "cache")
	}

	b := &builder{
		cfg:         cfg,
		runner:      runner,
		backend:     be,
		sourceDir:   sourceDir,
		buildDir:    buildDir,
		cacheDir:    cacheDir,
		nugetDir:    filepath.Join(buildDir, "nuget"),
		gstBuildDir: filepath.Join(buildDir, "gst-build"),
		prefix:      filepath.Join(buildDir, "prefix"),
	}

	for _, dir := range []string{b.buildDir, b.cacheDir, b.nugetDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	if err := b.setVersions(ctx); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Packager initialized",
		"platform", cfg.Platform, "gst_version", b.gstVersion, "nuget_version", b.nugetVersion)

	return b, nil
}

// runRule dispatches a workflow stage by name.
func (b *builder) runRule(ctx context.Context, rule string) error {
	switch rule {
	case "install-deps":
		return b.installDeps(ctx)
	case "install-gst":
		return b.installFramework(ctx)
	case "configure":
		return b.configureFramework(ctx)
	case "build":
		return b.buildFramework(ctx)
	case "install":
		return b.backend.installArtifacts(ctx, b)
	case "package":
		return b.createRuntimePackage(ctx)
	case "push":
		return b.pushRuntimePackage(ctx)
	case "all":
		return b.all(ctx)
	default:
		return fmt.Errorf("%w: %q", errUnknownRule, rule)
	}
}

// all runs the stages of a release build in order.
func (b *builder) all(ctx context.Context) error {
	steps := []func(context.Context) error{
		b.installDeps,
		b.installFramework,
		func(ctx context.Context) error { return b.backend.installArtifacts(ctx, b) },
		b.createRuntimePackage,
		b.pushRuntimePackage,
	}

	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}

	return nil
}

// installDeps installs the build toolchain and fetches the nuget CLI.
func (b *builder) installDeps(ctx context.Context) error {
	logger.Info(ctx, "Installing build prerequisites")

	if err := b.runner.Run(ctx, "", "pip3", "install", "meson", "ninja"); err != nil {
		return fmt.Errorf("install meson/ninja: %w", err)
	}

	return download.File(ctx, nugetCLIURL, filepath.Join(b.cacheDir, "nuget.exe"), "")
}

// installFramework downloads the runtime and development installers
// and hands them to the OS installer.
func (b *builder) installFramework(ctx context.Context) error {
	for _, flavor := range []string{"", "-devel"} {
		filename := b.backend.installerName(b.gstVersion, flavor)
		url := b.backend.installerURL(b.gstVersion, filename)
		cached := filepath.Join(b.cacheDir, filename)

		if err := download.File(ctx, url, cached, ""); err != nil {
			return err
		}

		logFile := filepath.Join(b.buildDir, "gst"+flavor+"_install.log")
		if err := b.backend.installPackage(ctx, b, cached, logFile); err != nil {
			return fmt.Errorf("install %s: %w", filename, err)
		}
	}

	return nil
}

// configureFramework prepares a fresh meson build tree for the
// from-source plugin build.
func (b *builder) configureFramework(ctx context.Context) error {
	installDir, err := b.installDir(ctx)
	if err != nil {
		return err
	}

	if err := b.backend.configureEnv(installDir); err != nil {
		return err
	}

	if err := os.RemoveAll(b.gstBuildDir); err != nil {
		return err
	}

	if err := os.MkdirAll(b.gstBuildDir, 0o755); err != nil {
		return err
	}

	gstSourceDir := filepath.Join(b.cacheDir, "gstreamer")

	return b.runner.Run(ctx, b.gstBuildDir, "meson",
		"setup", ".", filepath.ToSlash(gstSourceDir),
		"--wrap-mode=nofallback",
		"--prefix="+filepath.ToSlash(b.prefix),
		"-Dauto_features=disabled",
		"-Dbase=disabled",
		"-Dgood=disabled",
		"-Dbad=enabled",
		"-Dgst-plugins-bad:mpegtsdemux=enabled")
}

// buildFramework compiles the configured tree.
func (b *builder) buildFramework(ctx context.Context) error {
	return b.runner.Run(ctx, b.gstBuildDir, "ninja")
}

// createRuntimePackage renders the package metadata from templates and
// packs the payload.
func (b *builder) createRuntimePackage(ctx context.Context) error {
	rid := b.backend.nugetRID()
	replacements := map[string]string{
		"{version}":  b.nugetVersion,
		"{platform}": rid,
	}

	logger.InfoKV(ctx, "Creating runtime package", "rid", rid, "version", b.nugetVersion)

	runtimeJSON := filepath.Join(b.buildDir, "runtime.json")
	if err := renderTemplate(filepath.Join(b.sourceDir, "runtime.json.tpl"), runtimeJSON, replacements); err != nil {
		return err
	}

	nuspec := filepath.Join(b.buildDir, "longomatch-multimedia-gstreamer.runtime."+rid+".nuspec")
	if err := renderTemplate(
		filepath.Join(b.sourceDir, "longomatch-multimedia-gstreamer.runtime.nuspec.tpl"),
		nuspec, replacements); err != nil {
		return err
	}

	targets := filepath.Join(b.nugetDir, packageBaseName+"."+rid+".targets")
	if err := copyFile(filepath.Join(b.sourceDir, packageBaseName+".targets"), targets); err != nil {
		return err
	}

	// Placeholder keeping the package's lib folder non-empty.
	if err := os.WriteFile(filepath.Join(b.nugetDir, "_._"), nil, 0o644); err != nil {
		return err
	}

	nuget := b.backend.nugetCommand(b.cacheDir)
	args := append(nuget[1:], "pack", filepath.Base(nuspec), "-Verbosity", "detailed")

	return b.runner.Run(ctx, b.buildDir, nuget[0], args...)
}

// pushRuntimePackage uploads the finished package to the feed.
func (b *builder) pushRuntimePackage(ctx context.Context) error {
	pkg := filepath.Join(b.buildDir,
		fmt.Sprintf("%s.%s.%s.nupkg", packageBaseName, b.backend.nugetRID(), b.nugetVersion))

	return b.runner.Run(ctx, "", "dotnet", "nuget", "push", pkg,
		"--source", b.cfg.PushSource,
		"--api-key", os.Getenv("GITHUB_TOKEN"))
}

// installDir returns the framework installation root, honoring the
// config override.
func (b *builder) installDir(ctx context.Context) (string, error) {
	if b.cfg.Prefix != "" {
		return b.cfg.Prefix, nil
	}

	return b.backend.gstInstallDir(ctx, b)
}

// setVersions derives the framework and package versions: CI
// environment first, the gitversion tool next, plain git history last.
func (b *builder) setVersions(ctx context.Context) error {
	var err error

	b.gstVersion, err = b.resolveVersion(ctx, "GITVERSION_MAJORMINORPATCH", "MajorMinorPatch", false)
	if err != nil {
		return err
	}

	b.nugetVersion, err = b.resolveVersion(ctx, "GITVERSION_FULLSEMVER", "FullSemVer", true)
	if err != nil {
		return err
	}

	return nil
}

func (b *builder) resolveVersion(ctx context.Context, envVar, gitversionVariable string, long bool) (string, error) {
	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}

	out, err := b.runner.Output(ctx, b.sourceDir, "dotnet-gitversion", "/showvariable", gitversionVariable)
	if err == nil {
		if lines := shell.Lines(out); len(lines) > 0 {
			return lines[0], nil
		}
	}

	logger.Warnf(ctx, "dotnet-gitversion unavailable, deriving version from git: %v", err)

	derived, err := version.FromGit(ctx, b.runner, b.sourceDir, filepath.Join(b.sourceDir, "version.txt"))
	if err != nil {
		return "", fmt.Errorf("derive version: %w", err)
	}

	if long {
		return derived.Long(), nil
	}

	return fmt.Sprintf("%d.%d.%d", derived.Major, derived.Minor, derived.Patch), nil
}
