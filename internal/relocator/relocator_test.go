package relocator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRunner records every invocation and serves canned output.
type fakeRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: make(map[string][]byte),
		errs:    make(map[string]error),
	}
}

func commandKey(name string, args ...string) string {
	return name + " " + strings.Join(args, " ")
}

func (f *fakeRunner) Output(_ context.Context, _, name string, args ...string) ([]byte, error) {
	key := commandKey(name, args...)
	f.calls = append(f.calls, key)

	return f.outputs[key], f.errs[key]
}

func (f *fakeRunner) Run(_ context.Context, _, name string, args ...string) error {
	key := commandKey(name, args...)
	f.calls = append(f.calls, key)

	return f.errs[key]
}

func loadCommands(rpaths ...string) string {
	out := "Load command 0\n          cmd LC_SEGMENT_64\n      cmdsize 72\n"
	for _, rpath := range rpaths {
		out += "Load command 1\n          cmd LC_RPATH\n      cmdsize 32\n         path " + rpath + " (offset 12)\n"
	}

	return out
}

const binary = "/build/nuget/runtimes/osx-x64/native/libcore.dylib"

func setupRunner(rpaths ...string) *fakeRunner {
	runner := newFakeRunner()
	runner.outputs[commandKey("otool", "-L", binary)] = []byte(binary + ":\n" +
		"\t/opt/fw/lib/libcore.dylib (compatibility version 1.0.0)\n" +
		"\t/opt/fw/lib/libbase.dylib (compatibility version 1.0.0)\n" +
		"\t/usr/lib/libSystem.B.dylib (compatibility version 1.0.0)\n" +
		"\t/System/Library/Frameworks/Cocoa.framework/Cocoa (compatibility version 1.0.0)\n")
	runner.outputs[commandKey("otool", "-l", binary)] = []byte(loadCommands(rpaths...))

	return runner
}

// TestChangeLibsPath_RewritesPrefixRecords verifies that prefix-local
// records become @rpath references, system records stay untouched, old
// run paths are removed and the fixed token set is added in order.
func TestChangeLibsPath_RewritesPrefixRecords(t *testing.T) {
	t.Parallel()

	runner := setupRunner("/old/path")
	reloc := New(runner, nil)

	require.NoError(t, reloc.ChangeLibsPath(context.Background(), binary))

	require.Contains(t, runner.calls,
		commandKey("install_name_tool", "-change", "/opt/fw/lib/libcore.dylib", "@rpath/libcore.dylib", binary))
	require.Contains(t, runner.calls,
		commandKey("install_name_tool", "-change", "/opt/fw/lib/libbase.dylib", "@rpath/libbase.dylib", binary))

	for _, call := range runner.calls {
		require.NotContains(t, call, "libSystem.B.dylib @rpath")
		require.NotContains(t, call, "Cocoa.framework")
	}

	require.Contains(t, runner.calls,
		commandKey("install_name_tool", "-delete_rpath", "/old/path", binary))

	// The three run-path tokens are re-added in a fixed order.
	var added []string
	for _, call := range runner.calls {
		if strings.Contains(call, "-add_rpath") {
			added = append(added, call)
		}
	}

	require.Equal(t, []string{
		commandKey("install_name_tool", "-add_rpath", ".", binary),
		commandKey("install_name_tool", "-add_rpath", "@loader_path", binary),
		commandKey("install_name_tool", "-add_rpath", "@executable_path", binary),
	}, added)
}

// TestChangeLibsPath_Idempotent checks that a second run removes the
// previously added tokens and re-adds the same set.
func TestChangeLibsPath_Idempotent(t *testing.T) {
	t.Parallel()

	runner := setupRunner(".", "@loader_path", "@executable_path")
	reloc := New(runner, nil)

	require.NoError(t, reloc.ChangeLibsPath(context.Background(), binary))

	for _, rpath := range []string{".", "@loader_path", "@executable_path"} {
		require.Contains(t, runner.calls,
			commandKey("install_name_tool", "-delete_rpath", rpath, binary))
		require.Contains(t, runner.calls,
			commandKey("install_name_tool", "-add_rpath", rpath, binary))
	}
}

// TestChangeLibsPath_EditFailuresIgnored ensures a failing edit does
// not abort the remaining steps.
func TestChangeLibsPath_EditFailuresIgnored(t *testing.T) {
	t.Parallel()

	runner := setupRunner()
	runner.errs[commandKey("install_name_tool", "-change", "/opt/fw/lib/libcore.dylib", "@rpath/libcore.dylib", binary)] =
		errors.New("permission denied")

	reloc := New(runner, nil)

	require.NoError(t, reloc.ChangeLibsPath(context.Background(), binary))

	// Later edits still ran.
	require.Contains(t, runner.calls,
		commandKey("install_name_tool", "-change", "/opt/fw/lib/libbase.dylib", "@rpath/libbase.dylib", binary))
	require.Contains(t, runner.calls,
		commandKey("install_name_tool", "-add_rpath", "@executable_path", binary))
}

// TestChangeLibsPath_BareFilenameRecords ensures records without a
// directory component are left alone instead of having their dots
// rewritten to @rpath.
func TestChangeLibsPath_BareFilenameRecords(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.outputs[commandKey("otool", "-L", binary)] = []byte(binary + ":\n" +
		"\tlibbare.dylib (compatibility version 1.0.0)\n" +
		"\t/opt/fw/lib/libbase.dylib (compatibility version 1.0.0)\n")
	runner.outputs[commandKey("otool", "-l", binary)] = []byte(loadCommands())

	reloc := New(runner, nil)

	require.NoError(t, reloc.ChangeLibsPath(context.Background(), binary))

	require.Contains(t, runner.calls,
		commandKey("install_name_tool", "-change", "/opt/fw/lib/libbase.dylib", "@rpath/libbase.dylib", binary))

	for _, call := range runner.calls {
		require.NotContains(t, call, "libbare@rpathdylib")
		require.NotContains(t, call, "-change libbare.dylib")
	}
}

// TestChangeLibsPath_ConfigurableSystemPrefixes verifies the exclusion
// list is data, not hardcoded logic.
func TestChangeLibsPath_ConfigurableSystemPrefixes(t *testing.T) {
	t.Parallel()

	runner := setupRunner()
	reloc := New(runner, []string{"/opt/fw/lib"})

	require.NoError(t, reloc.ChangeLibsPath(context.Background(), binary))

	// The framework directory is now treated as a system location and
	// its records stay untouched.
	require.NotContains(t, runner.calls,
		commandKey("install_name_tool", "-change", "/opt/fw/lib/libcore.dylib", "@rpath/libcore.dylib", binary))

	// /usr/lib is no longer excluded, so its record is rewritten.
	require.Contains(t, runner.calls,
		commandKey("install_name_tool", "-change", "/usr/lib/libSystem.B.dylib", "@rpath/libSystem.B.dylib", binary))
}
