package packager

import (
	"context"
	"strings"
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

func (f *fakeRunner) called(key string) bool {
	for _, call := range f.calls {
		if call == key {
			return true
		}
	}

	return false
}
