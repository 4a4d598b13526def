package processor

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/llm"
)

var (
	shortcodePattern = regexp.MustCompile(`/(?:p|reels?)/([^/?#]+)`)
	hashtagPattern   = regexp.MustCompile(`#(\w+)`)
	// og:description on Instagram reads `123 likes, 4 comments - user on March 1, 2024: "caption"`.
	captionAuthorPattern = regexp.MustCompile(`-\s*([A-Za-z0-9._]+)\s+on\s+[^:]+:`)
	captionQuotePattern  = regexp.MustCompile(`(?s):\s*"(.*)"\s*\.?\s*$`)
)

// InstagramProcessor handles Instagram posts. The caption comes from the
// post page's og:description.
type InstagramProcessor struct {
	pages        PageFetcher
	summarizer   Summarizer
	instructions string
}

func NewInstagramProcessor(pages PageFetcher, summarizer Summarizer, instructions string) *InstagramProcessor {
	return &InstagramProcessor{pages: pages, summarizer: summarizer, instructions: instructions}
}

func (p *InstagramProcessor) Name() string { return AgentInstagram }

func (p *InstagramProcessor) Process(ctx context.Context, rec content.SourceRecord) (content.ProcessedContent, error) {
	if rec.Link == "" {
		return content.ProcessedContent{}, fmt.Errorf("no Instagram URL provided")
	}
	if _, err := InstagramShortcode(rec.Link); err != nil {
		return content.ProcessedContent{}, err
	}

	page, err := p.pages.FetchPage(ctx, rec.Link)
	if err != nil {
		return content.ProcessedContent{}, fmt.Errorf("fetching post: %w", err)
	}
	caption := captionText(page.Caption)

	fields, err := p.summarizer.Summarize(ctx, caption, p.instructions,
		llm.KeyTitle, llm.KeyDescription, llm.KeyContent, llm.KeyKeywords)
	if err != nil {
		return content.ProcessedContent{}, fmt.Errorf("analyzing caption: %w", err)
	}

	return content.ProcessedContent{
		Title:           firstNonEmpty(fields.Get(llm.KeyTitle), "Instagram post"),
		Author:          captionAuthor(page.Caption, page.Author),
		Description:     firstNonEmpty(fields.Get(llm.KeyDescription), "No description available"),
		Content:         firstNonEmpty(fields.Get(llm.KeyContent), "No content available"),
		Keywords:        mergeKeywords(fields.List(llm.KeyKeywords), Hashtags(caption)),
		ProcessingAgent: AgentInstagram,
	}, nil
}

// InstagramShortcode extracts the post shortcode from a /p/ or /reel/ URL.
func InstagramShortcode(link string) (string, error) {
	m := shortcodePattern.FindStringSubmatch(link)
	if m == nil {
		return "", fmt.Errorf("invalid Instagram URL: %s", link)
	}
	return m[1], nil
}

// Hashtags returns the tags in text without their '#'.
func Hashtags(text string) []string {
	var tags []string
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		tags = append(tags, m[1])
	}
	return tags
}

func captionText(ogDescription string) string {
	if m := captionQuotePattern.FindStringSubmatch(ogDescription); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(ogDescription)
}

func captionAuthor(ogDescription, fallback string) string {
	if m := captionAuthorPattern.FindStringSubmatch(ogDescription); m != nil {
		return m[1]
	}
	return fallback
}

func mergeKeywords(lists ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, list := range lists {
		for _, k := range list {
			if k != "" && !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}
