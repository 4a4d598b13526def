package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply      string
	err        error
	system     string
	user       string
	uploadPath string
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.system, f.user = systemPrompt, userPrompt
	return f.reply, f.err
}

func (f *fakeGenerator) GenerateWithFile(ctx context.Context, systemPrompt, userPrompt, path string) (string, error) {
	f.system, f.user, f.uploadPath = systemPrompt, userPrompt, path
	return f.reply, f.err
}

func TestSummarize(t *testing.T) {
	gen := &fakeGenerator{reply: "Title: T\nContent: C\nKeywords: a, b"}
	s := NewSummarizer(gen, DefaultPrompts(), 10)

	fields, err := s.Summarize(context.Background(), strings.Repeat("x", 50), "Extract things", KeyTitle, KeyContent, KeyKeywords)
	require.NoError(t, err)

	assert.Equal(t, "T", fields.Get(KeyTitle))
	assert.Equal(t, []string{"a", "b"}, fields.List(KeyKeywords))
	assert.Equal(t, DefaultPrompts().System, gen.system)
	assert.Contains(t, gen.user, "Extract things")
	assert.Contains(t, gen.user, strings.Repeat("x", 10)+"...")
	assert.NotContains(t, gen.user, strings.Repeat("x", 11))
}

func TestSummarizeGeneratorError(t *testing.T) {
	boom := errors.New("rate limited")
	s := NewSummarizer(&fakeGenerator{err: boom}, DefaultPrompts(), 0)

	_, err := s.Summarize(context.Background(), "text", "i", KeyTitle)
	assert.ErrorIs(t, err, boom)
}

func TestAnalyze(t *testing.T) {
	gen := &fakeGenerator{reply: "Title: Cat\nDescription: A cat on a mat."}
	s := NewSummarizer(gen, DefaultPrompts(), 0)

	fields, err := s.Analyze(context.Background(), "/tmp/cat.png", DefaultPrompts().Image, KeyTitle, KeyDescription)
	require.NoError(t, err)
	assert.Equal(t, "A cat on a mat.", fields.Get(KeyDescription))
	assert.Equal(t, "/tmp/cat.png", gen.uploadPath)
}

func TestDefaultPromptsEmbedded(t *testing.T) {
	p := DefaultPrompts()
	for name, prompt := range map[string]string{
		"system": p.System, "website": p.Website, "instagram": p.Instagram,
		"document": p.Document, "image": p.Image,
	} {
		assert.NotEmpty(t, prompt, name)
	}
	assert.Contains(t, p.Document, "WordCount:")
}

func TestNewAnthropicGeneratorRequiresKey(t *testing.T) {
	_, err := NewAnthropicGenerator("", ModelSettings{})
	assert.Error(t, err)

	g, err := NewAnthropicGenerator("key", ModelSettings{Model: "m", MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "m", g.settings.Model)
}
