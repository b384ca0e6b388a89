package deps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLddLister_KeepsPrefixLines verifies that only resolved entries
// under the install prefix are kept.
func TestLddLister_KeepsPrefixLines(t *testing.T) {
	t.Parallel()

	const prefix = "/opt/fw"

	runner := newFakeRunner()
	runner.outputs[commandKey("ldd", "/opt/fw/lib/plugin.so")] = []byte(
		"\tlinux-vdso.so.1 (0x00007ffd3a7d9000)\n" +
			"\tlibcore.so.1 => /opt/fw/lib/libcore.so.1 (0x00007f0a2c000000)\n" +
			"\tlibc.so.6 => /usr/lib/libc.so.6 (0x00007f0a2bc00000)\n" +
			"\tlibmissing.so => not found\n")

	lister := &LddLister{runner: runner}

	got, err := lister.ListFileDeps(context.Background(), prefix, "/opt/fw/lib/plugin.so")
	require.NoError(t, err)
	require.Equal(t, []string{"/opt/fw/lib/libcore.so.1"}, got)
}

// TestLddLister_StaticBinary treats the static-binary diagnostic as an
// empty dependency list, not an error.
func TestLddLister_StaticBinary(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.outputs[commandKey("ldd", "/opt/fw/bin/static")] = []byte("\tnot a dynamic executable\n")
	runner.errs[commandKey("ldd", "/opt/fw/bin/static")] = errors.New("exit status 1")

	lister := &LddLister{runner: runner}

	got, err := lister.ListFileDeps(context.Background(), "/opt/fw", "/opt/fw/bin/static")
	require.NoError(t, err)
	require.Empty(t, got)
}

// TestLddLister_ToolFailure propagates other invocation errors.
func TestLddLister_ToolFailure(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.errs[commandKey("ldd", "/opt/fw/bin/tool")] = errors.New("ldd: command not found")

	lister := &LddLister{runner: runner}

	_, err := lister.ListFileDeps(context.Background(), "/opt/fw", "/opt/fw/bin/tool")
	require.Error(t, err)
}
