package processor

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/llm"
)

// DocumentProcessor downloads an attached document and has the model read it.
type DocumentProcessor struct {
	files        FileFetcher
	summarizer   Summarizer
	instructions string
}

func NewDocumentProcessor(files FileFetcher, summarizer Summarizer, instructions string) *DocumentProcessor {
	return &DocumentProcessor{files: files, summarizer: summarizer, instructions: instructions}
}

func (p *DocumentProcessor) Name() string { return AgentDocument }

func (p *DocumentProcessor) Process(ctx context.Context, rec content.SourceRecord) (content.ProcessedContent, error) {
	path, info, err := downloadAttachment(ctx, p.files, rec)
	if err != nil {
		return content.ProcessedContent{}, err
	}
	defer os.Remove(path)

	fields, err := p.summarizer.Analyze(ctx, path, p.instructions,
		llm.KeyTitle, llm.KeySummary, llm.KeyWordCount, llm.KeyKeywords)
	if err != nil {
		return content.ProcessedContent{}, fmt.Errorf("analyzing document: %w", err)
	}

	meta := &content.DocumentMetadata{FileType: info.fileType}
	if n, ok := fields.Int(llm.KeyWordCount); ok {
		meta.WordCount = &n
	}
	return content.ProcessedContent{
		Title:           firstNonEmpty(fields.Get(llm.KeyTitle), rec.File.Name, rec.DisplayName),
		Summary:         fields.Get(llm.KeySummary),
		Keywords:        fields.List(llm.KeyKeywords),
		SizeKB:          &info.sizeKB,
		Metadata:        meta,
		ProcessingAgent: AgentDocument,
	}, nil
}

// ImageProcessor downloads an attached image, measures it and has the model
// describe it.
type ImageProcessor struct {
	files        FileFetcher
	summarizer   Summarizer
	instructions string
}

func NewImageProcessor(files FileFetcher, summarizer Summarizer, instructions string) *ImageProcessor {
	return &ImageProcessor{files: files, summarizer: summarizer, instructions: instructions}
}

func (p *ImageProcessor) Name() string { return AgentImage }

func (p *ImageProcessor) Process(ctx context.Context, rec content.SourceRecord) (content.ProcessedContent, error) {
	path, info, err := downloadAttachment(ctx, p.files, rec)
	if err != nil {
		return content.ProcessedContent{}, err
	}
	defer os.Remove(path)

	fields, err := p.summarizer.Analyze(ctx, path, p.instructions,
		llm.KeyTitle, llm.KeyDescription, llm.KeyKeywords)
	if err != nil {
		return content.ProcessedContent{}, fmt.Errorf("analyzing image: %w", err)
	}

	return content.ProcessedContent{
		Title:           firstNonEmpty(fields.Get(llm.KeyTitle), rec.File.Name, rec.DisplayName),
		Description:     fields.Get(llm.KeyDescription),
		Keywords:        fields.List(llm.KeyKeywords),
		Dimensions:      imageDimensions(path),
		SizeKB:          &info.sizeKB,
		Metadata:        &content.DocumentMetadata{FileType: info.fileType},
		ProcessingAgent: AgentImage,
	}, nil
}

type fileInfo struct {
	fileType string
	sizeKB   int64
}

func downloadAttachment(ctx context.Context, files FileFetcher, rec content.SourceRecord) (string, fileInfo, error) {
	if !rec.HasFile() {
		return "", fileInfo{}, fmt.Errorf("no file attached")
	}
	name := rec.File.Name
	if name == "" {
		name = rec.DisplayName
	}
	path, err := files.Download(ctx, rec.File.URL, name)
	if err != nil {
		return "", fileInfo{}, fmt.Errorf("downloading file: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		os.Remove(path)
		return "", fileInfo{}, fmt.Errorf("reading downloaded file: %w", err)
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		os.Remove(path)
		return "", fileInfo{}, fmt.Errorf("detecting file type: %w", err)
	}
	return path, fileInfo{
		fileType: strings.TrimPrefix(mtype.Extension(), "."),
		sizeKB:   stat.Size() / 1024,
	}, nil
}

// imageDimensions returns "WxH", or "" when the format cannot be decoded.
func imageDimensions(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)
}
