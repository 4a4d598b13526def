package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aktagon/inbox-sorter/internal/fetch"
)

// TranscriberSettings configures the transcription endpoint.
type TranscriberSettings struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Transcriber posts audio files to /v1/audio/transcriptions.
type Transcriber struct {
	settings TranscriberSettings
	client   *http.Client
}

// NewTranscriber creates a transcriber. A nil client gets a 10 minute timeout.
func NewTranscriber(settings TranscriberSettings, client *http.Client) *Transcriber {
	if settings.BaseURL == "" {
		settings.BaseURL = "https://api.openai.com"
	}
	if settings.Model == "" {
		settings.Model = "whisper-1"
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Transcriber{settings: settings, client: client}
}

// Transcribe uploads the audio file at path and returns the recognised text.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	if t.settings.APIKey == "" {
		return "", fmt.Errorf("transcription API key not configured")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("model", t.settings.Model); err != nil {
		return "", err
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("reading audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(t.settings.BaseURL, "/") + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.settings.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &fetch.HTTPError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}
