package llm

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

// Response keys requested by the embedded prompts.
const (
	KeyTitle       = "Title"
	KeyDescription = "Description"
	KeyContent     = "Content"
	KeyKeywords    = "Keywords"
	KeySummary     = "Summary"
	KeyWordCount   = "WordCount"
)

//go:embed prompts/system.md
var defaultSystemPrompt string

//go:embed prompts/website.md
var defaultWebsitePrompt string

//go:embed prompts/instagram.md
var defaultInstagramPrompt string

//go:embed prompts/document.md
var defaultDocumentPrompt string

//go:embed prompts/image.md
var defaultImagePrompt string

// Prompts holds the system prompt and the per-content instructions.
type Prompts struct {
	System    string
	Website   string
	Instagram string
	Document  string
	Image     string
}

// DefaultPrompts returns the embedded prompts.
func DefaultPrompts() Prompts {
	return Prompts{
		System:    strings.TrimSpace(defaultSystemPrompt),
		Website:   strings.TrimSpace(defaultWebsitePrompt),
		Instagram: strings.TrimSpace(defaultInstagramPrompt),
		Document:  strings.TrimSpace(defaultDocumentPrompt),
		Image:     strings.TrimSpace(defaultImagePrompt),
	}
}

// Summarizer turns raw text or files into parsed Fields.
type Summarizer struct {
	gen      Generator
	prompts  Prompts
	maxChars int
}

// NewSummarizer creates a summarizer. maxChars bounds the content sent to the
// model; zero means 16000 characters.
func NewSummarizer(gen Generator, prompts Prompts, maxChars int) *Summarizer {
	if maxChars <= 0 {
		maxChars = 16000
	}
	return &Summarizer{gen: gen, prompts: prompts, maxChars: maxChars}
}

// Prompts returns the prompts in use.
func (s *Summarizer) Prompts() Prompts {
	return s.prompts
}

// Summarize sends content with instructions and parses the requested keys.
func (s *Summarizer) Summarize(ctx context.Context, content, instructions string, keys ...string) (Fields, error) {
	userPrompt := fmt.Sprintf("%s\n\nContent:\n%s", instructions, limitChars(content, s.maxChars))
	text, err := s.gen.Generate(ctx, s.prompts.System, userPrompt)
	if err != nil {
		return nil, err
	}
	return ParseFields(text, keys...)
}

// Analyze sends the file at path with instructions and parses the requested keys.
func (s *Summarizer) Analyze(ctx context.Context, path, instructions string, keys ...string) (Fields, error) {
	text, err := s.gen.GenerateWithFile(ctx, s.prompts.System, instructions, path)
	if err != nil {
		return nil, err
	}
	return ParseFields(text, keys...)
}

// limitChars cuts content to at most max runes, marking the cut with "...".
func limitChars(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
