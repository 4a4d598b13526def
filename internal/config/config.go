// Package config loads .inbox-sorter/settings.yaml and secrets from the
// environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/llm"
	"github.com/aktagon/inbox-sorter/internal/logging"
	"github.com/aktagon/inbox-sorter/internal/normalize"
	"github.com/aktagon/inbox-sorter/internal/pipeline"
)

// Dir is the default configuration directory, relative to the working directory.
const Dir = ".inbox-sorter"

const minContentMaxChars = 1000

// Store backends.
const (
	BackendNotion = "notion"
	BackendSQLite = "sqlite"
)

//go:embed settings.yaml
var defaultSettings []byte

// ConfigOverrides allows overriding the settings file and prompt files.
type ConfigOverrides struct {
	SettingsPath        *string
	SystemPromptPath    *string
	WebsitePromptPath   *string
	InstagramPromptPath *string
	DocumentPromptPath  *string
	ImagePromptPath     *string
}

// Settings represents the YAML configuration structure
type Settings struct {
	Store struct {
		Backend       string `yaml:"backend"`
		SQLitePath    string `yaml:"sqlite_path"`
		PendingID     string `yaml:"pending_id"`
		DestinationID string `yaml:"destination_id"`
		ErrorProperty string `yaml:"error_property"`
	} `yaml:"store"`
	Agents struct {
		Summarizer struct {
			Model           string  `yaml:"model"`
			MaxTokens       int     `yaml:"max_tokens"`
			Temperature     float64 `yaml:"temperature"`
			ContentMaxChars int     `yaml:"content_max_chars"`
		} `yaml:"summarizer"`
	} `yaml:"agents"`
	YouTube struct {
		TranscriptAPIURL string        `yaml:"transcript_api_url"`
		Retries          int           `yaml:"retries"`
		CacheDir         string        `yaml:"cache_dir"`
		CallDelay        time.Duration `yaml:"call_delay"`
	} `yaml:"youtube"`
	Media struct {
		YTDLPBinary        string `yaml:"ytdlp_binary"`
		AudioFormat        string `yaml:"audio_format"`
		TranscriptionURL   string `yaml:"transcription_url"`
		TranscriptionModel string `yaml:"transcription_model"`
	} `yaml:"media"`
	DownloadDir string `yaml:"download_dir"`
	Tags        struct {
		Types     map[string][]string `yaml:"types"`
		Platforms map[string]string   `yaml:"platforms"`
	} `yaml:"tags"`
	Commit struct {
		Retries    int           `yaml:"retries"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"commit"`
	Schedule string         `yaml:"schedule"`
	Log      logging.Config `yaml:"log"`
}

// Secrets are read from the environment only.
type Secrets struct {
	AnthropicAPIKey         string
	NotionAPIKey            string
	YouTubeTranscriptAPIKey string
	TranscriptionAPIKey     string
}

// Config holds settings, secrets and overrides
type Config struct {
	Settings  *Settings
	Secrets   Secrets
	Overrides *ConfigOverrides
}

// Load reads the settings file (the override path, or .inbox-sorter/settings.yaml)
// and the environment, then validates the result.
func Load(overrides *ConfigOverrides) (*Config, error) {
	path := filepath.Join(Dir, "settings.yaml")
	if overrides != nil && overrides.SettingsPath != nil {
		path = *overrides.SettingsPath
	}

	settings, err := loadSettings(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := &Config{
		Settings:  settings,
		Secrets:   secretsFromEnv(),
		Overrides: overrides,
	}
	if url := os.Getenv("YOUTUBE_TRANSCRIPT_API_URL"); url != "" {
		cfg.Settings.YouTube.TranscriptAPIURL = url
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func secretsFromEnv() Secrets {
	return Secrets{
		AnthropicAPIKey:         os.Getenv("ANTHROPIC_API_KEY"),
		NotionAPIKey:            os.Getenv("NOTION_API_KEY"),
		YouTubeTranscriptAPIKey: os.Getenv("YOUTUBE_TRANSCRIPT_API_KEY"),
		TranscriptionAPIKey:     os.Getenv("TRANSCRIPTION_API_KEY"),
	}
}

// loadSettings parses path on top of the embedded defaults, so a settings file
// only needs the keys it changes.
func loadSettings(path string) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(defaultSettings, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse embedded settings: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
	}

	if settings.Agents.Summarizer.ContentMaxChars < minContentMaxChars {
		settings.Agents.Summarizer.ContentMaxChars = minContentMaxChars
	}
	return &settings, nil
}

// Validate rejects settings that cannot drive a run.
func (c *Config) Validate() error {
	s := c.Settings
	var errs []error

	switch s.Store.Backend {
	case BackendNotion, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.backend must be %q or %q, got %q", BackendNotion, BackendSQLite, s.Store.Backend))
	}
	if s.Store.PendingID == "" {
		errs = append(errs, errors.New("store.pending_id is required"))
	}
	if s.Store.DestinationID == "" {
		errs = append(errs, errors.New("store.destination_id is required"))
	}
	if s.Store.PendingID != "" && s.Store.PendingID == s.Store.DestinationID {
		errs = append(errs, errors.New("store.pending_id and store.destination_id must differ"))
	}
	if s.Store.Backend == BackendSQLite && s.Store.SQLitePath == "" {
		errs = append(errs, errors.New("store.sqlite_path is required for the sqlite backend"))
	}
	if s.Commit.Retries < 0 {
		errs = append(errs, fmt.Errorf("commit.retries must not be negative, got %d", s.Commit.Retries))
	}
	if s.YouTube.Retries < 0 {
		errs = append(errs, fmt.Errorf("youtube.retries must not be negative, got %d", s.YouTube.Retries))
	}
	if err := pipeline.ValidateSchedule(s.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// TagTable converts the tags section for the normalizer.
func (c *Config) TagTable() normalize.TagTable {
	t := normalize.TagTable{
		Types:     make(map[content.ContentType][]string, len(c.Settings.Tags.Types)),
		Platforms: make(map[content.Platform]string, len(c.Settings.Tags.Platforms)),
	}
	for k, ids := range c.Settings.Tags.Types {
		t.Types[content.ContentType(k)] = ids
	}
	for k, id := range c.Settings.Tags.Platforms {
		t.Platforms[content.Platform(k)] = id
	}
	return t
}

// ModelSettings returns the summarizer model settings.
func (c *Config) ModelSettings() llm.ModelSettings {
	a := c.Settings.Agents.Summarizer
	return llm.ModelSettings{Model: a.Model, MaxTokens: a.MaxTokens, Temperature: a.Temperature}
}

// Prompts returns the summarizer prompts, each from its override file or embedded.
func (c *Config) Prompts() llm.Prompts {
	p := llm.DefaultPrompts()
	if c.Overrides == nil {
		return p
	}
	p.System = readOverride(c.Overrides.SystemPromptPath, p.System)
	p.Website = readOverride(c.Overrides.WebsitePromptPath, p.Website)
	p.Instagram = readOverride(c.Overrides.InstagramPromptPath, p.Instagram)
	p.Document = readOverride(c.Overrides.DocumentPromptPath, p.Document)
	p.Image = readOverride(c.Overrides.ImagePromptPath, p.Image)
	return p
}

func readOverride(path *string, fallback string) string {
	if path == nil {
		return fallback
	}
	if content, err := os.ReadFile(*path); err == nil {
		return string(content)
	}
	return fallback
}

// EnsureConfigExists creates dir and writes the default settings.yaml into it
// if the file doesn't exist yet.
func EnsureConfigExists(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	settingsPath := filepath.Join(dir, "settings.yaml")
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		if err := os.WriteFile(settingsPath, defaultSettings, 0644); err != nil {
			return fmt.Errorf("failed to write default settings: %w", err)
		}
	}
	return nil
}
