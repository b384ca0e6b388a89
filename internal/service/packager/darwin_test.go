package packager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDarwinBackend_Names(t *testing.T) {
	t.Parallel()

	backend := &darwinBackend{}

	require.Equal(t, "osx-x64", backend.nugetRID())
	require.Equal(t, "gstreamer-1.0-1.24.2-universal.pkg", backend.installerName("1.24.2", ""))
	require.Equal(t, "gstreamer-1.0-devel-1.24.2-universal.pkg", backend.installerName("1.24.2", "-devel"))
	require.Equal(t,
		"https://gstreamer.freedesktop.org/data/pkg/osx/1.24.2/gstreamer-1.0-1.24.2-universal.pkg",
		backend.installerURL("1.24.2", "gstreamer-1.0-1.24.2-universal.pkg"))

	require.Equal(t,
		filepath.Join(darwinFrameworkDir, "lib", "gstreamer-1.0", "libgstcoreelements.dylib"),
		backend.pluginFile(darwinFrameworkDir, "coreelements"))
	require.Equal(t,
		filepath.Join(darwinFrameworkDir, "lib", "libgstreamer-1.0.0.dylib"),
		backend.libFile(darwinFrameworkDir, "gstreamer-1.0"))
}

func TestPreferLongestNames(t *testing.T) {
	t.Parallel()

	kept := preferLongestNames([]string{
		"/prefix/lib/libgobject-2.0.dylib",
		"/prefix/lib/libgstreamer-1.0.0.dylib",
		"/prefix/lib/libgobject-2.0.0.dylib",
	})

	require.Equal(t, []string{
		"/prefix/lib/libgobject-2.0.0.dylib",
		"/prefix/lib/libgstreamer-1.0.0.dylib",
	}, kept)
}

func TestPreferLongestNames_VersionedVariants(t *testing.T) {
	t.Parallel()

	kept := preferLongestNames([]string{
		"/a/libavcodec.58.dylib",
		"/b/libavcodec.58.134.dylib",
	})

	require.Equal(t, []string{"/b/libavcodec.58.134.dylib"}, kept)
}

func TestLinkUnversionedNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"libavcodec.58.134.100.dylib", "libavutil.56.70.100.dylib", "libgstapp-1.0.0.dylib"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	backend := &darwinBackend{}
	require.NoError(t, backend.linkUnversionedNames(context.Background(), dir))

	target, err := os.Readlink(filepath.Join(dir, "libavcodec.dylib"))
	require.NoError(t, err)
	require.Equal(t, "libavcodec.58.134.100.dylib", target)

	target, err = os.Readlink(filepath.Join(dir, "libavutil.dylib"))
	require.NoError(t, err)
	require.Equal(t, "libavutil.56.70.100.dylib", target)

	_, err = os.Lstat(filepath.Join(dir, "libgstapp-1.0.dylib"))
	require.ErrorIs(t, err, os.ErrNotExist)

	// Links already in place must not fail a second pass.
	require.NoError(t, backend.linkUnversionedNames(context.Background(), dir))
}
