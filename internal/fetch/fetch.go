// Package fetch downloads remote source documents with bounded timeouts.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"printbridge/internal/config"
	"printbridge/internal/format"
)

var ErrFetch = errors.New("fetch failed")

type Client struct {
	httpClient *http.Client
}

func NewClient(cfg *config.FetchConfig) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		ResponseHeaderTimeout: cfg.ReadTimeout,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.ConnectTimeout + cfg.ReadTimeout,
		},
	}
}

// Fetch retrieves the resource into memory. Network failures and non-2xx
// responses map to ErrFetch.
func (c *Client) Fetch(ctx context.Context, sourceURL string) ([]byte, error) {
	body, err := c.open(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrFetch, sourceURL, err)
	}
	return data, nil
}

// Download retrieves the resource into a temporary file whose name keeps the
// source extension. The caller owns the file and must remove it.
func (c *Client) Download(ctx context.Context, sourceURL string) (string, error) {
	body, err := c.open(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	pattern := "printbridge_input_*"
	if ext := format.Extension(sourceURL); ext != "" {
		pattern += "." + ext
	}

	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: reading %s: %v", ErrFetch, sourceURL, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	return tmp.Name(), nil
}

func (c *Client) open(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q: %v", ErrFetch, sourceURL, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetch, sourceURL, resp.StatusCode)
	}

	return resp.Body, nil
}
