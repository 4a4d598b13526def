// Package processor turns a classified SourceRecord into ProcessedContent.
// One Processor exists per label; the Dispatcher selects it and contains any
// failure so that a bad record degrades instead of stopping the queue.
package processor

import (
	"context"

	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/llm"
	"github.com/aktagon/inbox-sorter/internal/media"
	"github.com/aktagon/inbox-sorter/internal/scrape"
	"github.com/aktagon/inbox-sorter/internal/youtube"
)

// Agent names recorded in ProcessedContent.ProcessingAgent.
const (
	AgentText        = "Text Agent"
	AgentVideo       = "Video Agent"
	AgentSocialVideo = "Social Video Agent"
	AgentWebsite     = "Website Agent"
	AgentInstagram   = "Instagram Agent"
	AgentDocument    = "Document Agent"
	AgentImage       = "Image Agent"
)

// Processor produces ProcessedContent for one record. Returned errors are
// converted into degraded content by the Dispatcher.
type Processor interface {
	Name() string
	Process(ctx context.Context, rec content.SourceRecord) (content.ProcessedContent, error)
}

// Summarizer is the text-generation collaborator.
type Summarizer interface {
	Summarize(ctx context.Context, text, instructions string, keys ...string) (llm.Fields, error)
	Analyze(ctx context.Context, path, instructions string, keys ...string) (llm.Fields, error)
}

// VideoSource is the YouTube watch-page and transcript collaborator.
type VideoSource interface {
	Info(ctx context.Context, videoID string) (*youtube.VideoInfo, error)
	Transcript(ctx context.Context, videoID string) (string, error)
}

// MediaTranscriber downloads a social video and transcribes it.
type MediaTranscriber interface {
	FetchAndTranscribe(ctx context.Context, videoURL string) (*media.Video, error)
}

// PageFetcher is the web-scrape collaborator.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*scrape.Page, error)
}

// FileFetcher is the file-download collaborator.
type FileFetcher interface {
	Download(ctx context.Context, fileURL, suggestedName string) (string, error)
}
