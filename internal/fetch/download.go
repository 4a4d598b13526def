// Package fetch downloads attached files to local storage.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const defaultTimeout = 2 * time.Minute

// HTTPError represents a non-success HTTP response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// Downloader fetches remote files into a directory.
type Downloader struct {
	dir    string
	client *http.Client
}

// NewDownloader creates a downloader writing into dir (the OS temp dir when empty).
func NewDownloader(dir string, client *http.Client) *Downloader {
	if dir == "" {
		dir = os.TempDir()
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Downloader{dir: dir, client: client}
}

// Download fetches fileURL and stores it under a sanitized version of
// suggestedName. The extension comes from the URL path, then the suggested
// name, then the response Content-Type.
func (d *Downloader) Download(ctx context.Context, fileURL, suggestedName string) (string, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: fileURL}
	}

	ext := guessExtension(fileURL, suggestedName, resp.Header.Get("Content-Type"))
	name := SafeName(strings.TrimSuffix(suggestedName, path.Ext(suggestedName)))
	if name == "" {
		name = "download"
	}
	localPath := filepath.Join(d.dir, name+ext)

	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", localPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(localPath)
		return "", fmt.Errorf("writing %s: %w", localPath, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", localPath, err)
	}
	return localPath, nil
}

// SafeName keeps letters, digits, spaces, '-' and '_' and trims trailing space.
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

func guessExtension(fileURL, name, contentType string) string {
	if u, err := url.Parse(fileURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" {
			return strings.ToLower(ext)
		}
	}
	if ext := path.Ext(name); ext != "" {
		return strings.ToLower(ext)
	}
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
				return exts[0]
			}
		}
	}
	return ""
}
