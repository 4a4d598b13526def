package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeYTDLP(t *testing.T, mode string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], append([]string{"-test.run=TestHelperProcess", "--"}, args...)...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "YTDLP_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
	return &captured
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}

	switch os.Getenv("YTDLP_HELPER_MODE") {
	case "metadata":
		fmt.Fprint(os.Stdout, `{"title":"Dance clip","uploader":"someone","channel":"Dancer","view_count":1200,"like_count":0}`)
	case "audio":
		for i, a := range args {
			if a == "-o" && i+1 < len(args) {
				out := strings.Replace(args[i+1], "%(ext)s", "mp3", 1)
				if err := os.WriteFile(out, []byte("ID3fakeaudio"), 0644); err != nil {
					os.Exit(3)
				}
			}
		}
	case "fail":
		fmt.Fprint(os.Stderr, "ERROR: Unsupported URL")
		os.Exit(1)
	}
	os.Exit(0)
}

func TestMetadata(t *testing.T) {
	captured := fakeYTDLP(t, "metadata")

	meta, err := NewYTDLP("", "").Metadata(context.Background(), "https://www.tiktok.com/@a/video/1")
	require.NoError(t, err)

	assert.Equal(t, "Dance clip", meta.Title)
	assert.Equal(t, "Dancer", meta.Author())
	require.NotNil(t, meta.ViewCount)
	assert.Equal(t, int64(1200), *meta.ViewCount)
	require.NotNil(t, meta.LikeCount)
	assert.Equal(t, int64(0), *meta.LikeCount)
	assert.Contains(t, *captured, "--dump-single-json")
}

func TestMetadataFailure(t *testing.T) {
	fakeYTDLP(t, "fail")

	_, err := NewYTDLP("", "").Metadata(context.Background(), "https://fb.watch/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported URL")
}

func TestMetadataRequiresURL(t *testing.T) {
	_, err := NewYTDLP("", "").Metadata(context.Background(), " ")
	assert.Error(t, err)
}

func TestAuthorFallsBackToUploader(t *testing.T) {
	assert.Equal(t, "up", VideoMetadata{Uploader: "up"}.Author())
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "audio.mp3", header.Filename)
		assert.Equal(t, "ID3fakeaudio", string(data))

		w.Write([]byte(`{"text":"  hello world  "}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "audio.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3fakeaudio"), 0644))

	tr := NewTranscriber(TranscriberSettings{BaseURL: server.URL, APIKey: "secret"}, server.Client())
	text, err := tr.Transcribe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestTranscribeRequiresKey(t *testing.T) {
	_, err := NewTranscriber(TranscriberSettings{}, nil).Transcribe(context.Background(), "x.mp3")
	assert.Error(t, err)
}

func TestFetchAndTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"spoken words"}`))
	}))
	defer server.Close()

	// first call dumps metadata, second extracts audio
	calls := 0
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls++
		mode := "metadata"
		if calls > 1 {
			mode = "audio"
		}
		cmd := exec.CommandContext(ctx, os.Args[0], append([]string{"-test.run=TestHelperProcess", "--"}, args...)...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "YTDLP_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })

	scratch := t.TempDir()
	svc := NewService(NewYTDLP("", ""), NewTranscriber(TranscriberSettings{BaseURL: server.URL, APIKey: "k"}, server.Client()), scratch)

	video, err := svc.FetchAndTranscribe(context.Background(), "https://vm.tiktok.com/abc")
	require.NoError(t, err)
	assert.Equal(t, "Dance clip", video.Title)
	assert.Equal(t, "Dancer", video.Channel)
	assert.Equal(t, "spoken words", video.Transcript)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory should be removed")
}
