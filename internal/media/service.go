package media

import (
	"context"
	"fmt"
	"os"
)

// Video is everything the social video processor records about one link.
type Video struct {
	Title      string
	Channel    string
	ViewCount  *int64
	LikeCount  *int64
	Transcript string
}

// Service combines yt-dlp metadata, audio extraction and transcription.
type Service struct {
	ytdlp       *YTDLP
	transcriber *Transcriber
	tempDir     string
}

// NewService wires the yt-dlp runner and transcriber. tempDir is the parent
// for per-call scratch directories (the OS temp dir when empty).
func NewService(ytdlp *YTDLP, transcriber *Transcriber, tempDir string) *Service {
	return &Service{ytdlp: ytdlp, transcriber: transcriber, tempDir: tempDir}
}

// FetchAndTranscribe reads the video's metadata, extracts its audio and
// transcribes it. Scratch files are removed before returning.
func (s *Service) FetchAndTranscribe(ctx context.Context, videoURL string) (*Video, error) {
	meta, err := s.ytdlp.Metadata(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(s.tempDir, "inbox-media-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	audio, err := s.ytdlp.ExtractAudio(ctx, videoURL, dir)
	if err != nil {
		return nil, err
	}
	transcript, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("transcribing: %w", err)
	}

	return &Video{
		Title:      meta.Title,
		Channel:    meta.Author(),
		ViewCount:  meta.ViewCount,
		LikeCount:  meta.LikeCount,
		Transcript: transcript,
	}, nil
}
