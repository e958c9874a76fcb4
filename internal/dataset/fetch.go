package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"tour-planner/internal/logger"
)

// IsRemote reports whether src names an http(s) dataset.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Fetch downloads rawURL into dataDir, keeping the file name from the URL so
// Load still picks the decompressor by extension. An existing copy is reused
// unless refresh is set. It returns the local path.
func Fetch(ctx context.Context, rawURL, dataDir string, refresh bool) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = "dataset.json"
	}
	dst := filepath.Join(dataDir, name)

	if !refresh {
		if _, err := os.Stat(dst); err == nil {
			logger.Info("Dataset", fmt.Sprintf("Using cached %s", dst))
			return dst, nil
		}
	}

	logger.Info("Dataset", fmt.Sprintf("Downloading %s...", rawURL))
	if err := downloadFile(ctx, dst, rawURL); err != nil {
		return "", fmt.Errorf("download dataset: %w", err)
	}
	return dst, nil
}

func downloadFile(ctx context.Context, dst, rawURL string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	// Write beside the target and rename so a failed download never leaves
	// a truncated cache entry.
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
