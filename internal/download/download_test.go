package download

import (
	"context"
	"crypto/md5" //nolint:gosec // Matches the implementation under test.
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFile_DownloadsAndCaches verifies the fetch path, the unconditional
// cache hit, and the checksum-driven re-download.
func TestFile_DownloadsAndCaches(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("installer payload"))
	}))
	t.Cleanup(server.Close)

	output := filepath.Join(t.TempDir(), "cache", "installer.pkg")

	require.NoError(t, File(context.Background(), server.URL, output, ""))
	require.EqualValues(t, 1, hits.Load())

	contents, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, "installer payload", string(contents))

	// Present without a checksum: skipped.
	require.NoError(t, File(context.Background(), server.URL, output, ""))
	require.EqualValues(t, 1, hits.Load())

	// Present with a matching checksum: skipped.
	sum := md5.Sum([]byte("installer payload")) //nolint:gosec // Test checksum.
	require.NoError(t, File(context.Background(), server.URL, output, hex.EncodeToString(sum[:])))
	require.EqualValues(t, 1, hits.Load())

	// Present with a stale checksum: fetched again.
	require.NoError(t, File(context.Background(), server.URL, output, "0000"))
	require.EqualValues(t, 2, hits.Load())
}

// TestFile_BadStatus surfaces non-200 responses as errors.
func TestFile_BadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	output := filepath.Join(t.TempDir(), "missing.pkg")

	err := File(context.Background(), server.URL, output, "")
	require.Error(t, err)

	_, statErr := os.Stat(output)
	require.Error(t, statErr)
}
