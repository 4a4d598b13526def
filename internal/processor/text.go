package processor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aktagon/inbox-sorter/internal/content"
)

const (
	maxQuestions   = 3
	titlePreviewN  = 50
	textTitleLabel = "Text Analysis: "
)

// sentenceEnd matches terminal punctuation followed by whitespace.
var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// TextProcessor handles quoted inline text. It needs no collaborators.
type TextProcessor struct{}

func (TextProcessor) Name() string { return AgentText }

func (TextProcessor) Process(ctx context.Context, rec content.SourceRecord) (content.ProcessedContent, error) {
	text := rec.QuotedText()
	if text == "" {
		return content.ProcessedContent{}, fmt.Errorf("empty text")
	}

	words := int64(len(strings.Fields(text)))
	return content.ProcessedContent{
		Title:              textTitle(text),
		ProcessingAgent:    AgentText,
		GeneratedQuestions: generateQuestions(SplitSentences(text)),
		Metadata:           &content.DocumentMetadata{WordCount: &words},
	}, nil
}

func textTitle(text string) string {
	if utf8.RuneCountInString(text) <= titlePreviewN {
		return textTitleLabel + text
	}
	return textTitleLabel + string([]rune(text)[:titlePreviewN]) + "…"
}

// SplitSentences splits text after '.', '!' or '?' followed by whitespace.
func SplitSentences(text string) []string {
	marked := sentenceEnd.ReplaceAllString(strings.TrimSpace(text), "$1\x00")
	var out []string
	for _, s := range strings.Split(marked, "\x00") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// generateQuestions turns each of the first three sentences that end in a
// period into "What <rest of sentence>?".
func generateQuestions(sentences []string) []string {
	var questions []string
	for i, s := range sentences {
		if i == maxQuestions {
			break
		}
		if !strings.HasSuffix(s, ".") {
			continue
		}
		q := strings.TrimSuffix(s, ".") + "?"
		q = q[strings.Index(q, " ")+1:]
		questions = append(questions, "What "+strings.ToLower(q))
	}
	return questions
}
