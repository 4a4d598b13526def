package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aktagon/inbox-sorter/internal/classify"
	"github.com/aktagon/inbox-sorter/internal/config"
	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/fetch"
	"github.com/aktagon/inbox-sorter/internal/llm"
	"github.com/aktagon/inbox-sorter/internal/logging"
	"github.com/aktagon/inbox-sorter/internal/media"
	"github.com/aktagon/inbox-sorter/internal/normalize"
	"github.com/aktagon/inbox-sorter/internal/pipeline"
	"github.com/aktagon/inbox-sorter/internal/processor"
	"github.com/aktagon/inbox-sorter/internal/scrape"
	"github.com/aktagon/inbox-sorter/internal/store"
	"github.com/aktagon/inbox-sorter/internal/store/notion"
	"github.com/aktagon/inbox-sorter/internal/store/sqlite"
	"github.com/aktagon/inbox-sorter/internal/youtube"
)

// App holds the wired pipeline and the resources it must release.
type App struct {
	Orchestrator *pipeline.Orchestrator
	Store        store.Backend
	Logger       logging.Logger
}

func (a *App) Close() error {
	_ = a.Logger.Sync()
	return a.Store.Close()
}

// NewApp builds every collaborator from cfg. Processors whose collaborators
// lack credentials are left out; the dispatcher degrades their records.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	backend, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := cfg.Settings
	orch := pipeline.New(
		backend,
		backend,
		classify.New(),
		processor.NewDispatcher(buildProcessors(cfg, logger), logger),
		normalize.New(cfg.TagTable(), normalize.WithErrorField(s.Store.ErrorProperty)),
		pipeline.Options{
			PendingID:     s.Store.PendingID,
			DestinationID: s.Store.DestinationID,
			WriteRetries:  s.Commit.Retries,
			RetryDelay:    s.Commit.RetryDelay,
		},
		logger,
	)
	return &App{Orchestrator: orch, Store: backend, Logger: logger}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	s := cfg.Settings.Store
	switch s.Backend {
	case config.BackendNotion:
		client, err := notion.New(cfg.Secrets.NotionAPIKey, s.PendingID)
		if err != nil {
			return nil, fmt.Errorf("notion store: %w", err)
		}
		return client, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, s.SQLitePath, s.PendingID)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", s.Backend)
}

func buildProcessors(cfg *config.Config, logger logging.Logger) processor.Processors {
	s := cfg.Settings
	httpClient := &http.Client{Timeout: 60 * time.Second}

	yt := youtube.NewClient(youtube.Settings{
		TranscriptAPIURL: s.YouTube.TranscriptAPIURL,
		TranscriptAPIKey: cfg.Secrets.YouTubeTranscriptAPIKey,
		Retries:          s.YouTube.Retries,
		CacheDir:         s.YouTube.CacheDir,
		CallDelay:        s.YouTube.CallDelay,
	}, httpClient, logger)

	mediaService := media.NewService(
		media.NewYTDLP(s.Media.YTDLPBinary, s.Media.AudioFormat),
		media.NewTranscriber(media.TranscriberSettings{
			BaseURL: s.Media.TranscriptionURL,
			APIKey:  cfg.Secrets.TranscriptionAPIKey,
			Model:   s.Media.TranscriptionModel,
		}, nil),
		"",
	)

	procs := processor.Processors{
		Text:    processor.TextProcessor{},
		YouTube: processor.NewYouTubeProcessor(yt),
		SocialVideo: func(platform content.Platform) processor.Processor {
			return processor.NewSocialVideoProcessor(mediaService, platform)
		},
	}

	gen, err := llm.NewAnthropicGenerator(cfg.Secrets.AnthropicAPIKey, cfg.ModelSettings())
	if err != nil {
		logger.Warn("Summarizer disabled; website, Instagram, document and image records will be degraded", logging.Err(err))
		return procs
	}

	prompts := cfg.Prompts()
	summarizer := llm.NewSummarizer(gen, prompts, s.Agents.Summarizer.ContentMaxChars)
	pages := scrape.New(httpClient)
	files := fetch.NewDownloader(s.DownloadDir, httpClient)

	procs.Website = processor.NewWebsiteProcessor(pages, summarizer, prompts.Website)
	procs.Instagram = processor.NewInstagramProcessor(pages, summarizer, prompts.Instagram)
	procs.Document = processor.NewDocumentProcessor(files, summarizer, prompts.Document)
	procs.Image = processor.NewImageProcessor(files, summarizer, prompts.Image)
	return procs
}
