package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Fetch.NavigationAttempts != 3 {
		t.Errorf("NavigationAttempts = %d, want 3", cfg.Fetch.NavigationAttempts)
	}
	if cfg.Fetch.MarkerTimeout != 30*time.Second {
		t.Errorf("MarkerTimeout = %v, want 30s", cfg.Fetch.MarkerTimeout)
	}
	if cfg.Fetch.RetryBackoff != 3*time.Second {
		t.Errorf("RetryBackoff = %v, want 3s", cfg.Fetch.RetryBackoff)
	}
	if cfg.Report.DefaultFormat != "pdf" {
		t.Errorf("DefaultFormat = %q, want pdf", cfg.Report.DefaultFormat)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCORECARD_NAV_ATTEMPTS", "5")
	t.Setenv("SCORECARD_MARKER_TIMEOUT", "10s")
	t.Setenv("SCORECARD_BLOCKED_RESOURCES", "Image, Media")

	cfg := Load()
	if cfg.Fetch.NavigationAttempts != 5 {
		t.Errorf("NavigationAttempts = %d, want 5", cfg.Fetch.NavigationAttempts)
	}
	if cfg.Fetch.MarkerTimeout != 10*time.Second {
		t.Errorf("MarkerTimeout = %v, want 10s", cfg.Fetch.MarkerTimeout)
	}
	if got := cfg.Fetch.BlockedResourceTypes; len(got) != 2 || got[0] != "Image" || got[1] != "Media" {
		t.Errorf("BlockedResourceTypes = %v", got)
	}
}

func TestLoadFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scorecard.yaml")
	body := `
fetch:
  navigation_attempts: 2
  warmup_url: ""
report:
  default_format: markdown
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path, Load())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Fetch.NavigationAttempts != 2 {
		t.Errorf("NavigationAttempts = %d, want 2", cfg.Fetch.NavigationAttempts)
	}
	if cfg.Fetch.WarmupURL != "" {
		t.Errorf("WarmupURL = %q, want empty", cfg.Fetch.WarmupURL)
	}
	if cfg.Report.DefaultFormat != "markdown" {
		t.Errorf("DefaultFormat = %q, want markdown", cfg.Report.DefaultFormat)
	}
	// Untouched keys keep their defaults.
	if cfg.Fetch.MarkerTimeout != 30*time.Second {
		t.Errorf("MarkerTimeout = %v, want 30s", cfg.Fetch.MarkerTimeout)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), Load())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero attempts", func(c *Config) { c.Fetch.NavigationAttempts = 0 }},
		{"zero marker timeout", func(c *Config) { c.Fetch.MarkerTimeout = 0 }},
		{"zero http timeout", func(c *Config) { c.Fetch.HTTPTimeout = 0 }},
		{"zero navigation timeout", func(c *Config) { c.Fetch.NavigationTimeout = 0 }},
		{"zero challenge pause", func(c *Config) { c.Fetch.ChallengePause = 0 }},
		{"negative retry backoff", func(c *Config) { c.Fetch.RetryBackoff = -time.Second }},
		{"unknown format", func(c *Config) { c.Report.DefaultFormat = "docx" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
