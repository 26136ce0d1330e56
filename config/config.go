// Package config provides configuration loading and management for
// vaultpipe.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete vaultpipe configuration.
type Config struct {
	Vault   VaultConfig   `yaml:"vault"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Media   MediaConfig   `yaml:"media"`
	Summary SummaryConfig `yaml:"summary"`
	Watch   WatchConfig   `yaml:"watch"`
}

// VaultConfig locates the vault on disk.
type VaultConfig struct {
	// Root is the vault root directory.
	Root string `yaml:"root"`
	// NotesDir is where notes are written, relative to Root.
	NotesDir string `yaml:"notes_dir"`
	// AttachmentsDir is where media assets land, relative to Root.
	AttachmentsDir string `yaml:"attachments_dir"`
	// DropDir is the watched inbox for local files, relative to Root.
	DropDir string `yaml:"drop_dir"`
}

// FetchConfig configures web retrieval and caching.
type FetchConfig struct {
	// ReaderURL is the base URL of the reader extraction service.
	ReaderURL string `yaml:"reader_url"`
	// ReaderKeyEnv names the environment variable holding the reader
	// API key. The key itself never lives in config files.
	ReaderKeyEnv string `yaml:"reader_key_env"`
	// ArchiveURL is the snapshot availability endpoint.
	ArchiveURL string `yaml:"archive_url"`
	// CacheDir is where fetched content is cached.
	CacheDir string `yaml:"cache_dir"`
	// CacheTTL is the cache freshness window.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// PaceInterval is the minimum spacing between network fetches.
	PaceInterval time.Duration `yaml:"pace_interval"`
	// Timeout bounds one fetch request.
	Timeout time.Duration `yaml:"timeout"`
	// MaxContentChars is the per-document content ceiling.
	MaxContentChars int `yaml:"max_content_chars"`
}

// MediaConfig configures media downloading and transcription.
type MediaConfig struct {
	// Enabled controls whether embedded media is downloaded.
	Enabled bool `yaml:"enabled"`
	// MaxDownloadBytes is the per-asset size ceiling.
	MaxDownloadBytes int64 `yaml:"max_download_bytes"`
	// YouTube controls video metadata and transcript retrieval
	// through yt-dlp.
	YouTube bool `yaml:"youtube"`
	// WhisperModel names the whisper model for audio transcription.
	WhisperModel string `yaml:"whisper_model"`
}

// SummaryConfig configures optional LLM note summarization.
type SummaryConfig struct {
	// Enabled controls whether fetched notes get a summary section.
	Enabled bool `yaml:"enabled"`
	// Endpoint is an OpenAI-compatible chat endpoint.
	Endpoint string `yaml:"endpoint"`
	// Model is the model name sent with each request.
	Model string `yaml:"model"`
	// KeyEnv names the environment variable holding the API key.
	KeyEnv string `yaml:"key_env"`
}

// WatchConfig configures drop-folder watch mode.
type WatchConfig struct {
	// Debounce is how long a file must sit unchanged before ingest.
	Debounce time.Duration `yaml:"debounce"`
	// MetricsAddr serves Prometheus metrics when set (e.g. ":9090").
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Vault: VaultConfig{
			Root:           filepath.Join(home, "vault"),
			NotesDir:       "notes",
			AttachmentsDir: "attachments",
			DropDir:        "inbox",
		},
		Fetch: FetchConfig{
			ReaderURL:       "https://r.jina.ai",
			ReaderKeyEnv:    "JINA_API_KEY",
			ArchiveURL:      "https://archive.org/wayback/available",
			CacheDir:        filepath.Join(home, ".cache", "vaultpipe"),
			CacheTTL:        7 * 24 * time.Hour,
			PaceInterval:    time.Second,
			Timeout:         30 * time.Second,
			MaxContentChars: 50000,
		},
		Media: MediaConfig{
			Enabled:          true,
			MaxDownloadBytes: 50 * 1024 * 1024,
			YouTube:          true,
			WhisperModel:     "base",
		},
		Summary: SummaryConfig{
			Enabled:  false,
			Endpoint: "http://localhost:11434/v1",
			Model:    "llama3.1:8b",
			KeyEnv:   "VAULTPIPE_SUMMARY_KEY",
		},
		Watch: WatchConfig{
			Debounce:    500 * time.Millisecond,
			MetricsAddr: "",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Vault.Root == "" {
		return fmt.Errorf("vault.root is required")
	}
	if c.Fetch.ReaderURL == "" {
		return fmt.Errorf("fetch.reader_url is required")
	}
	if c.Fetch.CacheTTL < 0 {
		return fmt.Errorf("fetch.cache_ttl must not be negative")
	}
	if c.Fetch.MaxContentChars <= 0 {
		return fmt.Errorf("fetch.max_content_chars must be positive")
	}
	if c.Media.MaxDownloadBytes <= 0 {
		return fmt.Errorf("media.max_download_bytes must be positive")
	}
	if c.Summary.Enabled && c.Summary.Endpoint == "" {
		return fmt.Errorf("summary.endpoint is required when summary is enabled")
	}
	return nil
}

// NotesPath returns the absolute notes directory.
func (c *Config) NotesPath() string {
	return filepath.Join(c.Vault.Root, c.Vault.NotesDir)
}

// AttachmentsPath returns the absolute attachments directory.
func (c *Config) AttachmentsPath() string {
	return filepath.Join(c.Vault.Root, c.Vault.AttachmentsDir)
}

// DropPath returns the absolute drop directory.
func (c *Config) DropPath() string {
	return filepath.Join(c.Vault.Root, c.Vault.DropDir)
}

// ReaderKey reads the reader API key from the configured environment
// variable.
func (c *Config) ReaderKey() string {
	if c.Fetch.ReaderKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Fetch.ReaderKeyEnv)
}

// SummaryKey reads the summarization API key from the configured
// environment variable.
func (c *Config) SummaryKey() string {
	if c.Summary.KeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Summary.KeyEnv)
}

// LoadFromFile loads configuration from a YAML file over defaults.
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.ApplyFile(path); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyFile overlays the YAML file at path onto the config. Only keys
// present in the file are touched, so an explicit "enabled: false"
// survives layering while absent keys keep their current values.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// SaveToFile writes the configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
