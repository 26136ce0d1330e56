package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Fetch.ReaderURL != "https://r.jina.ai" {
		t.Errorf("expected default reader URL https://r.jina.ai, got %s", cfg.Fetch.ReaderURL)
	}
	if cfg.Fetch.CacheTTL != 7*24*time.Hour {
		t.Errorf("expected default cache TTL of 7 days, got %v", cfg.Fetch.CacheTTL)
	}
	if cfg.Fetch.MaxContentChars != 50000 {
		t.Errorf("expected default content ceiling 50000, got %d", cfg.Fetch.MaxContentChars)
	}
	if !cfg.Media.Enabled {
		t.Error("expected media downloads enabled by default")
	}
	if cfg.Summary.Enabled {
		t.Error("expected summarization disabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing vault root",
			modify:  func(c *Config) { c.Vault.Root = "" },
			wantErr: true,
		},
		{
			name:    "missing reader URL",
			modify:  func(c *Config) { c.Fetch.ReaderURL = "" },
			wantErr: true,
		},
		{
			name:    "negative cache TTL",
			modify:  func(c *Config) { c.Fetch.CacheTTL = -time.Hour },
			wantErr: true,
		},
		{
			name:    "zero content ceiling",
			modify:  func(c *Config) { c.Fetch.MaxContentChars = 0 },
			wantErr: true,
		},
		{
			name:    "summary enabled without endpoint",
			modify:  func(c *Config) { c.Summary.Enabled = true; c.Summary.Endpoint = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
vault:
  root: "/data/vault"
  notes_dir: "pages"
fetch:
  reader_url: "https://reader.test"
  max_content_chars: 10000
media:
  whisper_model: "small"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Vault.Root != "/data/vault" {
		t.Errorf("expected vault root /data/vault, got %s", cfg.Vault.Root)
	}
	if cfg.Vault.NotesDir != "pages" {
		t.Errorf("expected notes dir pages, got %s", cfg.Vault.NotesDir)
	}
	if cfg.Fetch.ReaderURL != "https://reader.test" {
		t.Errorf("expected reader URL https://reader.test, got %s", cfg.Fetch.ReaderURL)
	}
	if cfg.Fetch.MaxContentChars != 10000 {
		t.Errorf("expected content ceiling 10000, got %d", cfg.Fetch.MaxContentChars)
	}
	if cfg.Media.WhisperModel != "small" {
		t.Errorf("expected whisper model small, got %s", cfg.Media.WhisperModel)
	}
	// Unset values keep defaults
	if cfg.Fetch.ArchiveURL != "https://archive.org/wayback/available" {
		t.Errorf("expected default archive URL to survive, got %s", cfg.Fetch.ArchiveURL)
	}
}

func TestApplyFileLayering(t *testing.T) {
	tmpDir := t.TempDir()
	userPath := filepath.Join(tmpDir, "user.yaml")
	projectPath := filepath.Join(tmpDir, "project.yaml")

	user := `
vault:
  root: "/override/vault"
fetch:
  reader_url: "https://reader.test"
`
	project := `
vault:
  notes_dir: "pages"
media:
  enabled: false
`
	if err := os.WriteFile(userPath, []byte(user), 0644); err != nil {
		t.Fatalf("failed to write user config: %v", err)
	}
	if err := os.WriteFile(projectPath, []byte(project), 0644); err != nil {
		t.Fatalf("failed to write project config: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyFile(userPath); err != nil {
		t.Fatalf("ApplyFile(user) error = %v", err)
	}
	if err := cfg.ApplyFile(projectPath); err != nil {
		t.Fatalf("ApplyFile(project) error = %v", err)
	}

	if cfg.Vault.Root != "/override/vault" {
		t.Errorf("expected vault root /override/vault, got %s", cfg.Vault.Root)
	}
	if cfg.Fetch.ReaderURL != "https://reader.test" {
		t.Errorf("expected reader URL https://reader.test, got %s", cfg.Fetch.ReaderURL)
	}
	if cfg.Vault.NotesDir != "pages" {
		t.Errorf("expected notes dir pages, got %s", cfg.Vault.NotesDir)
	}
	// An explicit false in a later layer switches the boolean off
	if cfg.Media.Enabled {
		t.Error("expected media.enabled false from project layer")
	}
	// Keys absent from every file keep their defaults
	if !cfg.Media.YouTube {
		t.Error("expected media.youtube to remain default true")
	}
}

func TestConfigPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vault.Root = "/v"

	if got := cfg.NotesPath(); got != filepath.Join("/v", "notes") {
		t.Errorf("NotesPath() = %s", got)
	}
	if got := cfg.AttachmentsPath(); got != filepath.Join("/v", "attachments") {
		t.Errorf("AttachmentsPath() = %s", got)
	}
	if got := cfg.DropPath(); got != filepath.Join("/v", "inbox") {
		t.Errorf("DropPath() = %s", got)
	}
}

func TestReaderKeyFromEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fetch.ReaderKeyEnv = "VAULTPIPE_TEST_READER_KEY"
	t.Setenv("VAULTPIPE_TEST_READER_KEY", "secret")

	if got := cfg.ReaderKey(); got != "secret" {
		t.Errorf("ReaderKey() = %s, want secret", got)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Vault.Root = "/saved/vault"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Vault.Root != "/saved/vault" {
		t.Errorf("expected vault root /saved/vault, got %s", loaded.Vault.Root)
	}
}
