package processor

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/llm"
)

// WebsiteProcessor scrapes a page and asks the model for a description,
// condensed content and keywords.
type WebsiteProcessor struct {
	pages        PageFetcher
	summarizer   Summarizer
	instructions string
}

func NewWebsiteProcessor(pages PageFetcher, summarizer Summarizer, instructions string) *WebsiteProcessor {
	return &WebsiteProcessor{pages: pages, summarizer: summarizer, instructions: instructions}
}

func (p *WebsiteProcessor) Name() string { return AgentWebsite }

func (p *WebsiteProcessor) Process(ctx context.Context, rec content.SourceRecord) (content.ProcessedContent, error) {
	page, err := p.pages.FetchPage(ctx, rec.Link)
	if err != nil {
		return content.ProcessedContent{}, fmt.Errorf("fetching page: %w", err)
	}

	fields, err := p.summarizer.Summarize(ctx, page.MainText, p.instructions,
		llm.KeyTitle, llm.KeyDescription, llm.KeyContent, llm.KeyKeywords)
	if err != nil {
		return content.ProcessedContent{}, fmt.Errorf("summarizing page: %w", err)
	}

	out := content.ProcessedContent{
		Title:           firstNonEmpty(page.Title, fields.Get(llm.KeyTitle), rec.DisplayName),
		Author:          page.Author,
		WebsiteName:     websiteName(rec.Link, page.SiteName),
		Content:         firstNonEmpty(fields.Get(llm.KeyContent), page.MainText),
		PublishedDate:   page.PublishDate,
		Description:     firstNonEmpty(fields.Get(llm.KeyDescription), page.Description),
		Keywords:        fields.List(llm.KeyKeywords),
		ProcessingAgent: AgentWebsite,
	}
	return out, nil
}

// websiteName is the link's host without "www.", or the og:site_name when
// the link does not parse.
func websiteName(link, siteName string) string {
	if u, err := url.Parse(link); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	return siteName
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
