package integration

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/longomatch/gstreamer-packager/internal/service/depscan"
)

// TestDepscan_SystemBinary scans a real ELF binary with the host ldd.
// System libraries live outside the prefix, so the closure collapses
// to the entry point itself.
func TestDepscan_SystemBinary(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("ldd is only expected on linux hosts")
	}

	if _, err := exec.LookPath("ldd"); err != nil {
		t.Skip("ldd not installed")
	}

	shell, err := exec.LookPath("sh")
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(shell)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer

	options := &depscan.Options{
		Platform: "linux",
		Prefix:   filepath.Dir(resolved),
		Paths:    []string{shell},
	}

	require.NoError(t, depscan.Run(ctx, options, &out))
	require.Contains(t, out.String(), resolved)
}
