package relocator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/longomatch/gstreamer-packager/internal/logger"
	"github.com/longomatch/gstreamer-packager/internal/shell"
)

// External binary-metadata tools; both are expected on PATH.
const (
	installNameTool = "install_name_tool"
	otoolTool       = "otool"
)

// rpathToken replaces the directory component of relocated records.
const rpathToken = "@rpath"

// DefaultSystemPrefixes are directories assumed present on every
// target machine; libraries under them are never relocated.
func DefaultSystemPrefixes() []string {
	return []string{"/usr/lib", "/System/Library"}
}

// Relocator edits Mach-O binaries in place through install_name_tool.
type Relocator struct {
	runner shell.Runner
	// systemPrefixes are directory prefixes excluded from relocation.
	systemPrefixes []string
}

// New builds a Relocator. An empty prefix list selects the defaults.
func New(runner shell.Runner, systemPrefixes []string) *Relocator {
	if len(systemPrefixes) == 0 {
		systemPrefixes = DefaultSystemPrefixes()
	}

	cleaned := make([]string, 0, len(systemPrefixes))
	for _, prefix := range systemPrefixes {
		cleaned = append(cleaned, strings.TrimSuffix(prefix, "/"))
	}

	return &Relocator{
		runner:         runner,
		systemPrefixes: cleaned,
	}
}

// ChangeLibsPath rewrites the binary's dependency records to @rpath
// references and resets its run-path records to the fixed token set.
// Only the initial library listing can fail; individual edits are
// fire-and-forget.
func (r *Relocator) ChangeLibsPath(ctx context.Context, objectFile string) error {
	libs, err := r.ListSharedLibraries(ctx, objectFile)
	if err != nil {
		return err
	}

	relocatable := r.relocatableDirs(libs)

	for _, lib := range libs {
		// Records without a directory need no relocation; replacing
		// "." inside the name would corrupt it.
		dir := filepath.Dir(lib)
		if dir == "." {
			continue
		}

		if _, ok := relocatable[dir]; !ok {
			continue
		}

		newLib := strings.Replace(lib, dir, rpathToken, 1)
		if newLib == lib {
			continue
		}

		if err := r.runner.Run(ctx, "", installNameTool, "-change", lib, newLib, objectFile); err != nil {
			logger.WarnKV(ctx, "Dependency record rewrite failed",
				"file", objectFile, "record", lib, "error", err)
		}
	}

	r.removeRunPaths(ctx, objectFile)

	for _, rpath := range []string{".", "@loader_path", "@executable_path"} {
		if err := r.runner.Run(ctx, "", installNameTool, "-add_rpath", rpath, objectFile); err != nil {
			logger.WarnKV(ctx, "Run-path record addition failed",
				"file", objectFile, "rpath", rpath, "error", err)
		}
	}

	return nil
}

// ListSharedLibraries returns every linked-library path string recorded
// in the binary, without any prefix filtering.
func (r *Relocator) ListSharedLibraries(ctx context.Context, objectFile string) ([]string, error) {
	out, err := r.runner.Output(ctx, "", otoolTool, "-L", objectFile)
	if err != nil {
		return nil, fmt.Errorf("otool -L %s: %w", objectFile, err)
	}

	lines := shell.Lines(out)
	if len(lines) == 0 {
		return nil, nil
	}

	// First line repeats the file name.
	libs := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		lib := strings.SplitN(strings.TrimSpace(line), " ", 2)[0]
		if lib != "" {
			libs = append(libs, lib)
		}
	}

	return libs, nil
}

// relocatableDirs collects the distinct containing directories of the
// linked libraries, minus the configured system prefixes.
func (r *Relocator) relocatableDirs(libs []string) map[string]struct{} {
	dirs := make(map[string]struct{}, len(libs))

	for _, lib := range libs {
		dir := filepath.Dir(lib)
		if dir == "." || r.isSystemDir(dir) {
			continue
		}

		dirs[dir] = struct{}{}
	}

	return dirs
}

func (r *Relocator) isSystemDir(dir string) bool {
	for _, prefix := range r.systemPrefixes {
		if strings.HasPrefix(dir, prefix) {
			return true
		}
	}

	return false
}

// removeRunPaths deletes every run-path record currently embedded in
// the binary, using the literal recorded strings.
func (r *Relocator) removeRunPaths(ctx context.Context, objectFile string) {
	rpaths, err := r.listRunPaths(ctx, objectFile)
	if err != nil {
		logger.WarnKV(ctx, "Run-path listing failed", "file", objectFile, "error", err)
		return
	}

	for _, rpath := range rpaths {
		if err := r.runner.Run(ctx, "", installNameTool, "-delete_rpath", rpath, objectFile); err != nil {
			logger.WarnKV(ctx, "Run-path record removal failed",
				"file", objectFile, "rpath", rpath, "error", err)
			continue
		}

		logger.DebugKV(ctx, "Removed run-path record", "file", objectFile, "rpath", rpath)
	}
}

// listRunPaths parses the load-command dump for LC_RPATH entries,
// keeping the recorded strings as-is.
func (r *Relocator) listRunPaths(ctx context.Context, objectFile string) ([]string, error) {
	out, err := r.runner.Output(ctx, "", otoolTool, "-l", objectFile)
	if err != nil {
		return nil, fmt.Errorf("otool -l %s: %w", objectFile, err)
	}

	var (
		lines  = shell.Lines(out)
		seen   = make(map[string]struct{})
		rpaths []string
	)

	for i, line := range lines {
		if !strings.Contains(line, "cmd LC_RPATH") || i+2 >= len(lines) {
			continue
		}

		fields := strings.SplitN(strings.TrimSpace(lines[i+2]), " ", 3)
		if len(fields) < 2 || fields[0] != "path" {
			continue
		}

		if _, dup := seen[fields[1]]; dup {
			continue
		}

		seen[fields[1]] = struct{}{}
		rpaths = append(rpaths, fields[1])
	}

	return rpaths, nil
}
