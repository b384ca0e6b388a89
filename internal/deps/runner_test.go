package deps

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRunner serves canned tool output keyed by the full command line.
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

// realTempDir returns a symlink-resolved temporary directory, so test
// expectations survive /tmp itself being a symlink.
func realTempDir(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	return dir
}
