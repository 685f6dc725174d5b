package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultDownloadTimeout = 30 * time.Second
	maxDownloadBytes       = 32 << 20
)

var ErrStatus = errors.New("unexpected status")

type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// HTTPDownloader fetches a URL and fails on any non-2xx status.
type HTTPDownloader struct {
	client  *http.Client
	timeout time.Duration
}

func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	return &HTTPDownloader{client: &http.Client{}, timeout: timeout}
}

func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w %d for %s", ErrStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
