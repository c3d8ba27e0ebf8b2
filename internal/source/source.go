// Package source opens dashboard input assets from a local path, an
// http(s) URL or an s3:// object.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// Options configures remote access. The zero value reads local files and
// uses a 60s HTTP timeout.
type Options struct {
	HTTPTimeout time.Duration
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client

	S3Region    string
	S3Endpoint  string // optional; MinIO or other S3-compatible endpoint
	S3PathStyle bool
}

// ErrUnsupportedScheme indicates a location scheme with no reader.
var ErrUnsupportedScheme = errors.New("unsupported location scheme")

// Open returns a reader for location. Callers must close it.
func Open(ctx context.Context, location string, opt Options) (io.ReadCloser, error) {
	switch scheme(location) {
	case "":
		return openFile(location)
	case "file":
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parse location: %w", err)
		}
		return openFile(u.Path)
	case "http", "https":
		return openHTTP(ctx, location, opt)
	case "s3":
		return openS3(ctx, location, opt)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, location)
	}
}

// ReadAll reads the entire asset at location.
func ReadAll(ctx context.Context, location string, opt Options) ([]byte, error) {
	rc, err := Open(ctx, location, opt)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return b, nil
}

// Ext returns the lowercased file extension of location, ignoring any URL
// query string.
func Ext(location string) string {
	p := location
	if scheme(location) != "" {
		if u, err := url.Parse(location); err == nil {
			p = u.Path
		}
	}
	return strings.ToLower(path.Ext(p))
}

func scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(location[:i])
}

func openFile(p string) (io.ReadCloser, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func openHTTP(ctx context.Context, location string, opt Options) (io.ReadCloser, error) {
	client := opt.HTTPClient
	if client == nil {
		timeout := opt.HTTPTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("fetch: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return resp.Body, nil
}
