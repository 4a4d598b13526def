// Package media downloads social videos with yt-dlp and transcribes their
// audio through an OpenAI-compatible transcription endpoint.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// commandContext is swapped in tests.
var commandContext = exec.CommandContext

// VideoMetadata is the subset of yt-dlp's JSON dump the processors use.
type VideoMetadata struct {
	Title     string `json:"title"`
	Uploader  string `json:"uploader"`
	Channel   string `json:"channel"`
	ViewCount *int64 `json:"view_count"`
	LikeCount *int64 `json:"like_count"`
}

// Author returns the channel, falling back to the uploader.
func (m VideoMetadata) Author() string {
	if m.Channel != "" {
		return m.Channel
	}
	return m.Uploader
}

// YTDLP drives the yt-dlp binary.
type YTDLP struct {
	binary      string
	audioFormat string
}

// NewYTDLP creates a runner; an empty binary means "yt-dlp" from PATH.
func NewYTDLP(binary, audioFormat string) *YTDLP {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	if audioFormat == "" {
		audioFormat = "mp3"
	}
	return &YTDLP{binary: binary, audioFormat: audioFormat}
}

// Metadata runs yt-dlp --dump-single-json against videoURL.
func (y *YTDLP) Metadata(ctx context.Context, videoURL string) (VideoMetadata, error) {
	if strings.TrimSpace(videoURL) == "" {
		return VideoMetadata{}, errors.New("yt-dlp metadata: empty url")
	}
	cmd := commandContext(ctx, y.binary, "--dump-single-json", "--no-warnings", "--skip-download", "--", videoURL)
	output, err := cmd.Output()
	if err != nil {
		return VideoMetadata{}, fmt.Errorf("yt-dlp metadata: %w%s", err, stderrOf(err))
	}

	var meta VideoMetadata
	if err := json.Unmarshal(output, &meta); err != nil {
		return VideoMetadata{}, fmt.Errorf("yt-dlp parse: %w", err)
	}
	return meta, nil
}

// ExtractAudio downloads the audio track of videoURL into dir and returns the
// path of the produced file.
func (y *YTDLP) ExtractAudio(ctx context.Context, videoURL, dir string) (string, error) {
	template := filepath.Join(dir, "audio.%(ext)s")
	cmd := commandContext(ctx, y.binary, "-x", "--audio-format", y.audioFormat, "--no-warnings", "-o", template, "--", videoURL)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("yt-dlp audio: %w: %s", err, strings.TrimSpace(string(output)))
	}

	matches, err := filepath.Glob(filepath.Join(dir, "audio.*"))
	if err != nil {
		return "", fmt.Errorf("locating audio: %w", err)
	}
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Size() > 0 {
			return m, nil
		}
	}
	return "", fmt.Errorf("yt-dlp audio: no audio file produced in %s", dir)
}

func stderrOf(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return ": " + strings.TrimSpace(string(exitErr.Stderr))
	}
	return ""
}
