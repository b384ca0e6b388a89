package packager

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// copyFile copies src to dst, creating parent directories and keeping
// the source permission bits.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}

	return out.Close()
}

// copyGlob copies every file matching pattern into dstDir and returns
// the destination paths.
func copyGlob(pattern, dstDir string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	copied := make([]string, 0, len(matches))

	for _, match := range matches {
		dst := filepath.Join(dstDir, filepath.Base(match))
		if err := copyFile(match, dst); err != nil {
			return nil, err
		}

		copied = append(copied, dst)
	}

	return copied, nil
}

// renderTemplate copies src to dst replacing every placeholder.
func renderTemplate(src, dst string, replacements map[string]string) error {
	contents, err := os.ReadFile(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	rendered := string(contents)
	for placeholder, value := range replacements {
		rendered = strings.ReplaceAll(rendered, placeholder, value)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	return os.WriteFile(dst, []byte(rendered), 0o644)
}

// readPluginsList parses a plugin list file: one name per line, blank
// lines and # comments skipped.
func readPluginsList(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read plugins list: %w", err)
	}
	defer f.Close()

	var plugins []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		plugins = append(plugins, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return plugins, nil
}
