// Package notion implements the pending and destination stores on top of
// the Notion REST API: pages are records and databases are collections.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/fetch"
	"github.com/aktagon/inbox-sorter/internal/store"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	APIVersion     = "2022-06-28"
	defaultTimeout = 30 * time.Second
)

// Source property names on pending pages.
const (
	PropName     = "Name"
	PropLink     = "Link"
	PropFile     = "File"
	PropPlatform = "Platform"
)

var _ store.Backend = (*Client)(nil)

// Client talks to one pending database.
type Client struct {
	baseURL   string
	token     string
	pendingDB string
	http      *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at another API host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client reading from pendingDB.
func New(token, pendingDB string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("notion API key is required")
	}
	if pendingDB == "" {
		return nil, fmt.Errorf("pending database id is required")
	}
	c := &Client{
		baseURL:   DefaultBaseURL,
		token:     token,
		pendingDB: pendingDB,
		http:      &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (c *Client) Close() error { return nil }

// FetchNext queries the pending database for a single page.
func (c *Client) FetchNext(ctx context.Context) (*content.SourceRecord, error) {
	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, "/v1/databases/"+c.pendingDB+"/query", map[string]any{"page_size": 1}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	rec := resp.Results[0].record()
	return &rec, nil
}

// Relocate moves the page into the destination database.
func (c *Client) Relocate(ctx context.Context, id, destinationID string) error {
	body := map[string]any{"parent": map[string]string{"database_id": destinationID}}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+id, body, nil)
}

// WriteProperties sets the page's properties.
func (c *Client) WriteProperties(ctx context.Context, id string, props content.Properties) error {
	body := map[string]any{"properties": EncodeProperties(props)}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+id, body, nil)
}

const maxErrorBody = 64 << 10

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp, endpoint)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// APIError is a non-success response carrying Notion's error body.
type APIError struct {
	HTTP    *fetch.HTTPError `json:"-"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return e.HTTP.Error()
	}
	return fmt.Sprintf("%s: %s: %s", e.HTTP.Error(), e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.HTTP }

// decodeAPIError reads the {"code","message"} body Notion sends with errors.
// An unreadable body still yields the status.
func decodeAPIError(resp *http.Response, endpoint string) error {
	apiErr := &APIError{HTTP: &fetch.HTTPError{StatusCode: resp.StatusCode, URL: endpoint}}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		_ = json.Unmarshal(data, apiErr)
	}
	return apiErr
}
