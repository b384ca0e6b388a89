package deps

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/longomatch/gstreamer-packager/internal/shell"
)

// dllRecordPattern matches import records in objdump -xw output, e.g.
// "        DLL Name: libgstreamer-1.0-0.dll".
var dllRecordPattern = regexp.MustCompile(`(?i)^.*DLL[^:]*: (\S+\.dll)$`)

// ObjdumpLister lists direct dependencies of PE binaries by parsing
// the import table dumped by objdump. Imported names carry no
// directory, so they are resolved against <prefix>/bin.
type ObjdumpLister struct {
	runner shell.Runner
}

// ListFileDeps implements Lister for PE binaries.
func (l *ObjdumpLister) ListFileDeps(ctx context.Context, prefix, path string) ([]string, error) {
	out, err := l.runner.Output(ctx, "", "objdump", "-xw", path)
	if err != nil {
		return nil, fmt.Errorf("objdump %s: %w", path, err)
	}

	var found []string

	for _, line := range shell.Lines(out) {
		match := dllRecordPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		name := match[1]
		if !strings.HasSuffix(strings.ToLower(name), ".dll") {
			continue
		}

		// Only dependencies present under the install tree are kept;
		// anything else is a system DLL and is silently dropped.
		real, err := filepath.EvalSymlinks(filepath.Join(prefix, "bin", name))
		if err != nil {
			continue
		}

		found = append(found, real)
	}

	return found, nil
}
