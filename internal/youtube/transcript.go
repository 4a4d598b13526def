// Package youtube fetches video metadata and transcripts for YouTube links.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/aktagon/inbox-sorter/internal/fetch"
	"github.com/aktagon/inbox-sorter/internal/logging"
)

// ErrNoTranscript is returned when the transcript service has no transcript for a video.
var ErrNoTranscript = errors.New("no transcript available")

// ErrInvalidVideoID is returned for ids that are not plain YouTube video ids.
var ErrInvalidVideoID = errors.New("invalid video ID")

// videoIDPattern bounds ids to the URL-safe base64 alphabet; ids become cache file names.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)

// ValidVideoID reports whether id is safe to use as a video id.
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// Settings configures the transcript API client.
type Settings struct {
	TranscriptAPIURL string
	TranscriptAPIKey string
	Retries          int
	CacheDir         string
	CallDelay        time.Duration
}

// Client talks to the transcript API and to youtube.com.
type Client struct {
	settings   Settings
	httpClient *http.Client
	watchURL   string
	sleep      func(time.Duration)
	logger     logging.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient creates a client. A zero Retries defaults to 5; a nil logger discards.
func NewClient(settings Settings, httpClient *http.Client, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	if settings.Retries <= 0 {
		settings.Retries = 5
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		settings:   settings,
		httpClient: httpClient,
		watchURL:   "https://www.youtube.com/watch",
		sleep:      time.Sleep,
		logger:     logger,
	}
}

// ExtractVideoID returns the video id of a watch, shorts, embed or youtu.be link.
func ExtractVideoID(videoURL string) (string, error) {
	parsedURL, err := url.Parse(videoURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(parsedURL.Host)

	if !strings.Contains(host, "youtube.com") && !strings.Contains(host, "youtu.be") {
		return "", fmt.Errorf("not a YouTube URL")
	}

	var id string
	switch {
	case strings.Contains(host, "youtu.be"):
		id = strings.TrimPrefix(parsedURL.Path, "/")
	case strings.HasPrefix(parsedURL.Path, "/shorts/"):
		id = strings.TrimPrefix(parsedURL.Path, "/shorts/")
	case strings.HasPrefix(parsedURL.Path, "/embed/"):
		id = strings.TrimPrefix(parsedURL.Path, "/embed/")
	default:
		id = parsedURL.Query().Get("v")
	}
	id = strings.Trim(id, "/")
	if id == "" {
		return "", fmt.Errorf("no video ID found in URL")
	}
	if !ValidVideoID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVideoID, id)
	}
	return id, nil
}

// Transcript returns the transcript text for a video, using the on-disk cache when present.
func (c *Client) Transcript(ctx context.Context, videoID string) (string, error) {
	if c.settings.TranscriptAPIURL == "" || c.settings.TranscriptAPIKey == "" {
		return "", fmt.Errorf("YouTube transcript API configuration missing")
	}
	if !ValidVideoID(videoID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVideoID, videoID)
	}

	cachePath := ""
	if c.settings.CacheDir != "" {
		cachePath = filepath.Join(c.settings.CacheDir, videoID)
		if data, err := os.ReadFile(cachePath); err == nil {
			return string(data), nil
		}
	}

	transcript, err := c.fetchTranscriptWithRetries(ctx, videoID)
	if err != nil {
		return "", err
	}

	if cachePath != "" {
		if err := writeCache(cachePath, transcript); err != nil {
			c.logger.Warn("✗ Failed to cache transcript", logging.String("video_id", videoID), logging.Err(err))
		}
	}
	return transcript, nil
}

func writeCache(path, transcript string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating transcript cache: %w", err)
	}
	if err := os.WriteFile(path, []byte(transcript), 0644); err != nil {
		return fmt.Errorf("writing transcript cache: %w", err)
	}
	return nil
}

func (c *Client) fetchTranscriptWithRetries(ctx context.Context, videoID string) (string, error) {
	retries := c.settings.Retries
	var lastErr error
	for i := 0; i < retries; i++ {
		transcript, err := c.fetchTranscript(ctx, videoID)
		if err == nil {
			return transcript, nil
		}
		lastErr = err

		if !isRateLimit(err) {
			return "", err
		}
		if i < retries-1 {
			c.sleep(time.Duration(1<<uint(i)) * time.Second)
		}
	}
	return "", fmt.Errorf("exceeded max retries after %d attempts: %w", retries, lastErr)
}

func isRateLimit(err error) bool {
	var httpErr *fetch.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(err.Error(), "too many 429 error responses")
}

func (c *Client) fetchTranscript(ctx context.Context, videoID string) (string, error) {
	c.throttle()

	videoURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.settings.TranscriptAPIURL, http.NoBody)
	if err != nil {
		return "", err
	}
	q := req.URL.Query()
	q.Add("url", videoURL)
	q.Add("api_key", c.settings.TranscriptAPIKey)
	q.Add("text", "true")
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoTranscript
	}
	if resp.StatusCode != http.StatusOK {
		return "", &fetch.HTTPError{StatusCode: resp.StatusCode, URL: videoURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// throttle keeps at least CallDelay between transcript API calls.
func (c *Client) throttle() {
	if c.settings.CallDelay <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if since := time.Since(c.lastCall); since < c.settings.CallDelay {
		c.sleep(c.settings.CallDelay - since)
	}
	c.lastCall = time.Now()
}
