package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Quarterly Report", "Quarterly Report"},
		{"a/b\\c:d*e?", "abcde"},
		{"my_file-v2 ", "my_file-v2"},
		{"../../etc/passwd", "etcpasswd"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeName(tt.in), tt.in)
	}
}

func TestGuessExtension(t *testing.T) {
	assert.Equal(t, ".pdf", guessExtension("https://x.example/files/a.PDF?sig=1", "report", ""))
	assert.Equal(t, ".png", guessExtension("https://x.example/blob", "cat.png", ""))
	assert.Equal(t, "", guessExtension("https://x.example/blob", "cat", ""))
	assert.NotEmpty(t, guessExtension("https://x.example/blob", "cat", "image/jpeg"))
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 test"))
	}))
	defer server.Close()

	dir := t.TempDir()
	d := NewDownloader(dir, server.Client())

	localPath, err := d.Download(context.Background(), server.URL+"/files/report.pdf", "Q3 Report.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Q3 Report.pdf"), localPath)

	data, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))
}

func TestDownloadHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	d := NewDownloader(t.TempDir(), server.Client())
	_, err := d.Download(context.Background(), server.URL+"/x.pdf", "x.pdf")
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
}
