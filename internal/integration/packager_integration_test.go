package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/longomatch/gstreamer-packager/internal/service/packager"
)

// writeExecutable drops a shell shim on PATH so external tools resolve
// without the real toolchain being installed.
func writeExecutable(t *testing.T, dir, name, script string) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
}

// chdir switches the working directory for the test, restoring the
// original on cleanup (stand-in for t.Chdir, which needs Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()

	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

// TestPackager_PackageRule runs the package rule end to end through the
// real tool runner, with the nuget CLI replaced by a shim.
func TestPackager_PackageRule(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell shims require a POSIX shell")
	}

	sourceDir := t.TempDir()
	binDir := t.TempDir()

	chdir(t, sourceDir)

	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("GITVERSION_MAJORMINORPATCH", "1.24.2")
	t.Setenv("GITVERSION_FULLSEMVER", "1.24.2")

	writeExecutable(t, binDir, "mono", "exit 0")

	writeSource := func(name, contents string) {
		require.NoError(t, os.WriteFile(filepath.Join(sourceDir, name), []byte(contents), 0o644))
	}

	writeSource("gst-packager-settings.yaml", "platform: darwin\n")
	writeSource("runtime.json.tpl", `{"runtimes": {"{platform}": "{version}"}}`)
	writeSource("longomatch-multimedia-gstreamer.runtime.nuspec.tpl",
		`<id>LongoMatch.Multimedia.GStreamer.runtime.{platform}</id><version>{version}</version>`)
	writeSource("LongoMatch.Multimedia.GStreamer.runtime.targets", "<Project/>")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	options := &packager.Options{
		Rule:      "package",
		SourceDir: sourceDir,
	}

	require.NoError(t, packager.Run(ctx, options))

	buildDir := filepath.Join(sourceDir, "build")

	rendered, err := os.ReadFile(filepath.Join(buildDir, "runtime.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"runtimes": {"osx-x64": "1.24.2"}}`, string(rendered))

	require.FileExists(t,
		filepath.Join(buildDir, "longomatch-multimedia-gstreamer.runtime.osx-x64.nuspec"))
	require.FileExists(t, filepath.Join(buildDir, "nuget", "_._"))

	// The run marker must not survive the run.
	_, err = os.Stat(filepath.Join(sourceDir, "gst-packager-marker.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestPackager_RefusesConcurrentRun verifies the run-marker guard.
func TestPackager_RefusesConcurrentRun(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile("gst-packager-marker.bin", nil, 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := packager.Run(ctx, &packager.Options{Rule: "package", SourceDir: dir})
	require.ErrorContains(t, err, "another packaging run is active")
}
