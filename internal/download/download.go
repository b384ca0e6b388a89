package download

import (
	"context"
	"crypto/md5" //nolint:gosec // Upstream publishes MD5 sums for installer artifacts.
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/longomatch/gstreamer-packager/internal/logger"
)

// errBadHTTPStatus is returned for non-200 responses.
var errBadHTTPStatus = errors.New("unexpected http status")

// File downloads url into outputFile unless a usable copy is already
// cached. A non-empty md5sum is verified against the cached file; when
// it matches, the download is skipped.
func File(ctx context.Context, url, outputFile, md5sum string) error {
	if _, err := os.Stat(outputFile); err == nil {
		if md5sum == "" {
			logger.InfoKV(ctx, "File already downloaded", "path", outputFile)
			return nil
		}

		cachedSum, err := fileMD5(outputFile)
		if err != nil {
			return err
		}

		if cachedSum == md5sum {
			logger.InfoKV(ctx, "File already downloaded", "path", outputFile)
			return nil
		}
	}

	logger.InfoKV(ctx, "Downloading", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, %s: %w", url, response.Status, errBadHTTPStatus)
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return err
	}

	output, err := os.Create(outputFile)
	if err != nil {
		return err
	}

	if _, err := io.Copy(output, response.Body); err != nil {
		_ = output.Close()

		return err
	}

	if err := output.Close(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Downloaded", "path", outputFile)

	return nil
}

// fileMD5 returns the hex MD5 sum of a file.
func fileMD5(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := md5.New() //nolint:gosec // Integrity check against published sums, not security.
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
