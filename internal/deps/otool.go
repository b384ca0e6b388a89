package deps

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/longomatch/gstreamer-packager/internal/shell"
)

// Mach-O placeholder tokens resolved by dyld at load time.
const (
	rpathToken          = "@rpath"
	loaderPathToken     = "@loader_path"
	executablePathToken = "@executable_path"
)

// OtoolLister lists direct dependencies of Mach-O binaries via otool.
// Linked-library records may reference @rpath, which is substituted
// using the binary's own embedded run-path entries.
//
// A library's link to itself is excluded by comparing file names only.
// Two distinct libraries sharing a name in different directories would
// both be filtered; this matches the dump-tool output we get and is a
// known imprecision.
type OtoolLister struct {
	runner shell.Runner
}

// ListFileDeps implements Lister for Mach-O binaries.
func (l *OtoolLister) ListFileDeps(ctx context.Context, prefix, path string) ([]string, error) {
	out, err := l.runner.Output(ctx, "", "otool", "-L", path)
	if err != nil {
		return nil, fmt.Errorf("otool -L %s: %w", path, err)
	}

	var (
		entries  []string
		selfName = filepath.Base(path)
	)

	for _, line := range shell.Lines(out) {
		// First line repeats the inspected file followed by a colon.
		if strings.HasSuffix(strings.TrimSpace(line), ":") {
			continue
		}

		// Relocated libraries either carry the prefix or start with @rpath.
		if !strings.Contains(line, prefix) && !strings.Contains(line, rpathToken) {
			continue
		}

		entry := strings.SplitN(strings.TrimSpace(line), " ", 2)[0]
		if entry == "" || strings.HasSuffix(entry, selfName) {
			continue
		}

		entries = append(entries, entry)
	}

	rpaths, err := l.runPaths(ctx, prefix, path)
	if err != nil {
		return nil, err
	}

	found := make([]string, 0, len(entries))
	for _, entry := range entries {
		found = append(found, replaceRunPathToken(entry, rpaths))
	}

	return found, nil
}

// runPaths extracts the binary's embedded LC_RPATH entries, replacing
// placeholder tokens with concrete directories: "." means the prefix
// itself, @loader_path and @executable_path mean the directory
// containing the binary.
func (l *OtoolLister) runPaths(ctx context.Context, prefix, path string) ([]string, error) {
	out, err := l.runner.Output(ctx, "", "otool", "-l", path)
	if err != nil {
		return nil, fmt.Errorf("otool -l %s: %w", path, err)
	}

	var (
		lines  = shell.Lines(out)
		seen   = make(map[string]struct{})
		rpaths []string
	)

	for i, line := range lines {
		// Layout per load command:
		//          cmd LC_RPATH
		//      cmdsize 32
		//         path /opt/fw/lib (offset 12)
		if !strings.Contains(line, "cmd LC_RPATH") || i+2 >= len(lines) {
			continue
		}

		fields := strings.SplitN(strings.TrimSpace(lines[i+2]), " ", 3)
		if len(fields) < 2 || fields[0] != "path" {
			continue
		}

		rpath := fields[1]
		if rpath == "." {
			rpath = prefix
		} else {
			rpath = strings.ReplaceAll(rpath, loaderPathToken, filepath.Dir(path))
			rpath = strings.ReplaceAll(rpath, executablePathToken, filepath.Dir(path))
		}

		if _, dup := seen[rpath]; dup {
			continue
		}

		seen[rpath] = struct{}{}
		rpaths = append(rpaths, rpath)
	}

	return rpaths, nil
}

// replaceRunPathToken tries each run-path directory in turn; the first
// substitution naming an existing file wins. When none match, the
// entry is kept as given and the closure's realpath pass decides.
func replaceRunPathToken(entry string, rpaths []string) string {
	if !strings.Contains(entry, rpathToken) {
		return filepath.Clean(entry)
	}

	for _, rpath := range rpaths {
		candidate := strings.Replace(entry, rpathToken, rpath, 1)

		real, err := filepath.EvalSymlinks(candidate)
		if err == nil {
			return real
		}
	}

	return filepath.Clean(entry)
}
