package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep the values already in cfg, so the usual call is
// LoadFile(path, Load()).
func LoadFile(path string, cfg *Config) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-selected config path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Fetch.NavigationAttempts < 1 {
		return fmt.Errorf("config: fetch.navigation_attempts must be >= 1, got %d", c.Fetch.NavigationAttempts)
	}
	if c.Fetch.MarkerTimeout <= 0 {
		return errors.New("config: fetch.marker_timeout must be positive")
	}
	if c.Fetch.HTTPTimeout <= 0 {
		return errors.New("config: fetch.http_timeout must be positive")
	}
	if c.Fetch.NavigationTimeout <= 0 {
		return errors.New("config: fetch.navigation_timeout must be positive")
	}
	if c.Fetch.ChallengePause <= 0 {
		return errors.New("config: fetch.challenge_pause must be positive")
	}
	if c.Fetch.RetryBackoff < 0 {
		return errors.New("config: fetch.retry_backoff must not be negative")
	}
	switch c.Report.DefaultFormat {
	case "pdf", "html", "markdown", "json":
	default:
		return fmt.Errorf("config: report.default_format %q is not one of pdf, html, markdown, json", c.Report.DefaultFormat)
	}
	return nil
}
