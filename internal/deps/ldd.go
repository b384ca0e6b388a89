package deps

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/longomatch/gstreamer-packager/internal/shell"
)

// LddLister lists dependencies of ELF binaries via the dynamic-linker
// diagnostic tool. ldd already reports the fully resolved transitive
// set, so no placeholder handling is needed here.
type LddLister struct {
	runner shell.Runner
}

// ListFileDeps implements Lister for ELF binaries.
func (l *LddLister) ListFileDeps(ctx context.Context, prefix, path string) ([]string, error) {
	out, err := l.runner.Output(ctx, "", "ldd", path)
	if err != nil {
		// Static binaries have no dynamic section and make ldd fail.
		if isStaticBinaryError(out, err) {
			return nil, nil
		}

		return nil, fmt.Errorf("ldd %s: %w", path, err)
	}

	var found []string

	for _, line := range shell.Lines(out) {
		// Lines look like "libfoo.so.1 => /opt/fw/lib/libfoo.so.1 (0x...)".
		if !strings.Contains(line, prefix) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 || fields[1] != "=>" {
			continue
		}

		found = append(found, fields[2])
	}

	return found, nil
}

// isStaticBinaryError reports whether a failed ldd run just complained
// about a non-dynamic executable.
func isStaticBinaryError(out []byte, err error) bool {
	const marker = "not a dynamic executable"

	if strings.Contains(string(out), marker) {
		return true
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return strings.Contains(string(exitErr.Stderr), marker)
	}

	return false
}
