// Package source opens measurement files from the local filesystem or over HTTP.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rewired-gh/solarscope/internal/logger"
)

// Format identifies how a measurement file is encoded.
type Format int

const (
	// CSV is a delimited text file.
	CSV Format = iota
	// Workbook is an Excel .xlsx workbook.
	Workbook
)

func (f Format) String() string {
	if f == Workbook {
		return "xlsx"
	}
	return "csv"
}

// Detect guesses the format from the location's file extension.
func Detect(location string) Format {
	p := location
	if isRemote(location) {
		p = strings.SplitN(strings.SplitN(location, "?", 2)[0], "#", 2)[0]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".xlsx", ".xlsm":
		return Workbook
	default:
		return CSV
	}
}

// StatusError is returned for a non-retryable HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Client fetches measurement files
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new client
func NewClient(timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetch returns the full contents of location, which is either a file path
// or an http(s) URL.
func (c *Client) Fetch(ctx context.Context, location string) ([]byte, error) {
	if !isRemote(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", location, err)
		}
		return data, nil
	}

	resp, err := c.doRequest(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", location, err)
	}
	return data, nil
}

// doRequest performs HTTP request with retry logic. Transport errors and 5xx
// responses are retried; any other non-2xx status fails immediately.
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			logger.Warn("GET %s failed (attempt %d/%d): %v", url, i+1, c.maxRetries, err)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = &StatusError{URL: url, StatusCode: resp.StatusCode}
			logger.Warn("GET %s: server error %d (attempt %d/%d)", url, resp.StatusCode, i+1, c.maxRetries)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
