// Package llm wraps the text-generation service used to summarise pages,
// captions, documents and images into a fixed "Key: value" response grammar.
package llm

import (
	"context"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

// Generator is a single request/response call to a language model.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateWithFile(ctx context.Context, systemPrompt, userPrompt, path string) (string, error)
}

// ModelSettings selects the model and sampling parameters.
type ModelSettings struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// AnthropicGenerator implements Generator with llmkit's Anthropic client.
type AnthropicGenerator struct {
	apiKey   string
	settings types.RequestSettings
}

// NewAnthropicGenerator creates a generator; the API key is required.
func NewAnthropicGenerator(apiKey string, settings ModelSettings) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	return &AnthropicGenerator{
		apiKey: apiKey,
		settings: types.RequestSettings{
			Model:       settings.Model,
			MaxTokens:   settings.MaxTokens,
			Temperature: settings.Temperature,
		},
	}, nil
}

// Generate sends one prompt and returns the first text block of the reply.
func (g *AnthropicGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, "", g.apiKey, g.settings)
	if err != nil {
		return "", fmt.Errorf("prompting model: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return response.Content[0].Text, nil
}

// GenerateWithFile uploads the file at path and sends it along with the prompt.
func (g *AnthropicGenerator) GenerateWithFile(ctx context.Context, systemPrompt, userPrompt, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	file, err := anthropic.UploadFile(path, g.apiKey)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", path, err)
	}

	response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, "", g.apiKey, g.settings, types.File{ID: file.ID})
	if err != nil {
		return "", fmt.Errorf("prompting model with file: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return response.Content[0].Text, nil
}
