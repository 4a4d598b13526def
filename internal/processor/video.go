package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/youtube"
)

const noTranscript = "No transcript available"

// YouTubeProcessor reads title and channel from the watch page and the
// transcript from the transcript API.
type YouTubeProcessor struct {
	source VideoSource
}

func NewYouTubeProcessor(source VideoSource) *YouTubeProcessor {
	return &YouTubeProcessor{source: source}
}

func (p *YouTubeProcessor) Name() string { return AgentVideo }

func (p *YouTubeProcessor) Process(ctx context.Context, rec content.SourceRecord) (content.ProcessedContent, error) {
	videoID, err := youtube.ExtractVideoID(rec.Link)
	if err != nil {
		return content.ProcessedContent{}, fmt.Errorf("extracting video ID: %w", err)
	}

	info, err := p.source.Info(ctx, videoID)
	if err != nil {
		return content.ProcessedContent{}, fmt.Errorf("fetching video info: %w", err)
	}

	transcript, err := p.source.Transcript(ctx, videoID)
	switch {
	case errors.Is(err, youtube.ErrNoTranscript):
		transcript = noTranscript
	case err != nil:
		return content.ProcessedContent{}, fmt.Errorf("fetching transcript: %w", err)
	}

	return content.ProcessedContent{
		Title:           info.Title,
		Channel:         info.Channel,
		Transcript:      transcript,
		ProcessingAgent: AgentVideo,
	}, nil
}

// SocialVideoProcessor handles Instagram reels, TikTok and other short
// videos through yt-dlp and speech-to-text.
type SocialVideoProcessor struct {
	media    MediaTranscriber
	platform content.Platform
}

func NewSocialVideoProcessor(media MediaTranscriber, platform content.Platform) *SocialVideoProcessor {
	return &SocialVideoProcessor{media: media, platform: platform}
}

func (p *SocialVideoProcessor) Name() string { return AgentSocialVideo }

func (p *SocialVideoProcessor) Process(ctx context.Context, rec content.SourceRecord) (content.ProcessedContent, error) {
	video, err := p.media.FetchAndTranscribe(ctx, rec.Link)
	if err != nil {
		return content.ProcessedContent{}, fmt.Errorf("processing %s video: %w", p.platform, err)
	}

	transcript := video.Transcript
	if transcript == "" {
		transcript = noTranscript
	}
	return content.ProcessedContent{
		Title:           video.Title,
		Channel:         video.Channel,
		Transcript:      transcript,
		ViewCount:       video.ViewCount,
		LikeCount:       video.LikeCount,
		ProcessingAgent: AgentSocialVideo,
	}, nil
}
