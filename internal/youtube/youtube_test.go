package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aktagon/inbox-sorter/internal/fetch"
	"github.com/aktagon/inbox-sorter/internal/logging"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name     string
		videoURL string
		expected string
		wantErr  bool
	}{
		{"youtube.com watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"watch URL with extra params", "https://youtube.com/watch?v=test123&t=10s", "test123", false},
		{"youtu.be short URL", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"youtu.be with query params", "https://youtu.be/i0P56Pm1Q3U?si=r_78flhyOFGnX58f", "i0P56Pm1Q3U", false},
		{"shorts URL", "https://www.youtube.com/shorts/abc_DEF-1", "abc_DEF-1", false},
		{"embed URL", "https://www.youtube.com/embed/xyz789", "xyz789", false},
		{"non-youtube URL", "https://example.com/watch?v=abc123", "", true},
		{"youtube URL without video ID", "https://www.youtube.com/channel/UC123", "", true},
		{"path traversal in v", "https://www.youtube.com/watch?v=x/../../../../secret.txt", "", true},
		{"path traversal in short link", "https://youtu.be/..%2F..%2Fsecret", "", true},
		{"id too short", "https://youtu.be/abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExtractVideoID(tt.videoURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://www.youtube.com/watch?v=test123", r.URL.Query().Get("url"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "true", r.URL.Query().Get("text"))
		w.Write([]byte("This is a test transcript\n"))
	}))
	defer server.Close()

	c := NewClient(Settings{TranscriptAPIURL: server.URL, TranscriptAPIKey: "test-key"}, server.Client(), nil)
	got, err := c.Transcript(context.Background(), "test123")
	require.NoError(t, err)
	assert.Equal(t, "This is a test transcript", got)
}

func TestTranscriptStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		isErr  func(error) bool
	}{
		{"not found means no transcript", http.StatusNotFound, func(err error) bool { return errors.Is(err, ErrNoTranscript) }},
		{"server error", http.StatusInternalServerError, func(err error) bool {
			var httpErr *fetch.HTTPError
			return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusInternalServerError
		}},
		{"unauthorized", http.StatusUnauthorized, func(err error) bool {
			var httpErr *fetch.HTTPError
			return errors.As(err, &httpErr)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := NewClient(Settings{TranscriptAPIURL: server.URL, TranscriptAPIKey: "k", Retries: 3}, server.Client(), nil)
			_, err := c.Transcript(context.Background(), "vid001")
			require.Error(t, err)
			assert.True(t, tt.isErr(err), "unexpected error %v", err)
			assert.Equal(t, 1, calls, "non rate-limit errors are not retried")
		})
	}
}

func TestTranscriptRetriesOnRateLimit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer server.Close()

	var slept []time.Duration
	c := NewClient(Settings{TranscriptAPIURL: server.URL, TranscriptAPIKey: "k", Retries: 5}, server.Client(), nil)
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	got, err := c.Transcript(context.Background(), "vid001")
	require.NoError(t, err)
	assert.Equal(t, "finally", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestTranscriptUsesCache(t *testing.T) {
	cacheDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "test123"), []byte("Cached transcript content"), 0644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called when cache exists")
	}))
	defer server.Close()

	c := NewClient(Settings{TranscriptAPIURL: server.URL, TranscriptAPIKey: "k", CacheDir: cacheDir}, server.Client(), nil)
	got, err := c.Transcript(context.Background(), "test123")
	require.NoError(t, err)
	assert.Equal(t, "Cached transcript content", got)
}

func TestTranscriptWritesCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	cacheDir := filepath.Join(t.TempDir(), "youtube")
	c := NewClient(Settings{TranscriptAPIURL: server.URL, TranscriptAPIKey: "k", CacheDir: cacheDir}, server.Client(), nil)
	_, err := c.Transcript(context.Background(), "abc123")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cacheDir, "abc123"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestTranscriptRejectsIDsOutsideCache(t *testing.T) {
	root := t.TempDir()
	cacheDir := filepath.Join(root, "cache", "youtube")
	require.NoError(t, os.MkdirAll(cacheDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("TOP SECRET"), 0644))

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("api response"))
	}))
	defer server.Close()

	c := NewClient(Settings{TranscriptAPIURL: server.URL, TranscriptAPIKey: "k", CacheDir: cacheDir}, server.Client(), nil)
	for _, id := range []string{"../../secret.txt", "../escaped", "x/../../../secret.txt"} {
		got, err := c.Transcript(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidVideoID, id)
		assert.Empty(t, got, id)
	}
	assert.Zero(t, calls)
	_, err := os.Stat(filepath.Join(root, "cache", "escaped"))
	assert.True(t, os.IsNotExist(err))
}

func TestTranscriptLogsCacheWriteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	core, logs := observer.New(zapcore.WarnLevel)
	c := NewClient(Settings{TranscriptAPIURL: server.URL, TranscriptAPIKey: "k", CacheDir: blocker}, server.Client(), logging.FromZap(zap.New(core)))
	got, err := c.Transcript(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	entries := logs.FilterMessage("✗ Failed to cache transcript").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "abc123", entries[0].ContextMap()["video_id"])
}

func TestTranscriptMissingConfiguration(t *testing.T) {
	c := NewClient(Settings{}, nil, nil)
	_, err := c.Transcript(context.Background(), "abc")
	assert.ErrorContains(t, err, "configuration missing")
}

func TestInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.URL.Query().Get("v"))
		w.Write([]byte(`<script>var ytInitialPlayerResponse = {"videoDetails":{"title":"Go & You","author":"x"},"channelName":"Gopher TV"};</script>`))
	}))
	defer server.Close()

	c := NewClient(Settings{}, server.Client(), nil)
	c.watchURL = server.URL + "/watch"

	info, err := c.Info(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Go & You", info.Title)
	assert.Equal(t, "Gopher TV", info.Channel)
}

func TestInfoDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>nothing useful</html>`))
	}))
	defer server.Close()

	c := NewClient(Settings{}, server.Client(), nil)
	c.watchURL = server.URL

	info, err := c.Info(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Unknown Title", info.Title)
	assert.Equal(t, "Unknown Channel", info.Channel)
}
