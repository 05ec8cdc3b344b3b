package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Report    ReportConfig    `yaml:"report"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8080
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"` // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// Proxy is an optional proxy URL for both tiers.
	Proxy string `yaml:"proxy"`

	// UserAgent is sent by both tiers.
	UserAgent string `yaml:"user_agent"`
}

// FetchConfig controls resolution and the two fetch tiers.
type FetchConfig struct {
	// HTTPTimeout bounds one lightweight request.
	HTTPTimeout time.Duration `yaml:"http_timeout"` // default: 15s

	// RequestTimeout bounds a whole pipeline invocation.
	RequestTimeout time.Duration `yaml:"request_timeout"` // default: 180s

	// NavigationTimeout bounds a single page.Navigate call.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"` // default: 60s

	// NavigationAttempts is the number of rendered navigation attempts.
	NavigationAttempts int `yaml:"navigation_attempts"` // default: 3

	// RetryBackoff is the pause after a failed attempt, multiplied by the
	// attempt number.
	RetryBackoff time.Duration `yaml:"retry_backoff"` // default: 3s

	// MarkerTimeout bounds the wait for the embedded-data script.
	MarkerTimeout time.Duration `yaml:"marker_timeout"` // default: 30s

	// ChallengePause is the extra wait when an interstitial is showing.
	ChallengePause time.Duration `yaml:"challenge_pause"` // default: 5s

	// WarmupURL is visited before the target; empty disables warm-up.
	WarmupURL string `yaml:"warmup_url"` // default: "https://www.google.com/"

	// DiagnosticsDir receives markup snapshots and screenshots.
	// Empty disables diagnostics.
	DiagnosticsDir string `yaml:"diagnostics_dir"` // default: "diagnostics"

	// BlockedResourceTypes lists resource types the rendered tier drops.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string `yaml:"blocked_resource_types"`
}

// ReportConfig controls report output.
type ReportConfig struct {
	// DefaultFormat is used when the caller does not choose one.
	DefaultFormat string `yaml:"default_format"` // default: "pdf"

	// FileName is the attachment name for PDF downloads.
	FileName string `yaml:"file_name"` // default: "match_scorecard.pdf"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool `yaml:"enabled"` // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 0.5

	// Burst is the maximum burst size per API key.
	Burst int `yaml:"burst"` // default: 2
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "text"
}

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SCORECARD_HOST", "0.0.0.0"),
			Port: envIntOr("SCORECARD_PORT", 8080),
			Mode: envOr("SCORECARD_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("SCORECARD_HEADLESS", true),
			NoSandbox:  envBoolOr("SCORECARD_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SCORECARD_BROWSER_BIN"),
			Proxy:      os.Getenv("SCORECARD_PROXY"),
			UserAgent:  envOr("SCORECARD_USER_AGENT", DefaultUserAgent),
		},
		Fetch: FetchConfig{
			HTTPTimeout:        envDurationOr("SCORECARD_HTTP_TIMEOUT", 15*time.Second),
			RequestTimeout:     envDurationOr("SCORECARD_REQUEST_TIMEOUT", 180*time.Second),
			NavigationTimeout:  envDurationOr("SCORECARD_NAV_TIMEOUT", 60*time.Second),
			NavigationAttempts: envIntOr("SCORECARD_NAV_ATTEMPTS", 3),
			RetryBackoff:       envDurationOr("SCORECARD_RETRY_BACKOFF", 3*time.Second),
			MarkerTimeout:      envDurationOr("SCORECARD_MARKER_TIMEOUT", 30*time.Second),
			ChallengePause:     envDurationOr("SCORECARD_CHALLENGE_PAUSE", 5*time.Second),
			WarmupURL:          envOr("SCORECARD_WARMUP_URL", "https://www.google.com/"),
			DiagnosticsDir:     envOr("SCORECARD_DIAGNOSTICS_DIR", "diagnostics"),
			BlockedResourceTypes: envSliceOr("SCORECARD_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Report: ReportConfig{
			DefaultFormat: envOr("SCORECARD_FORMAT", "pdf"),
			FileName:      envOr("SCORECARD_FILE_NAME", "match_scorecard.pdf"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SCORECARD_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SCORECARD_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SCORECARD_RATE_RPS", 0.5),
			Burst:             envIntOr("SCORECARD_RATE_BURST", 2),
		},
		Log: LogConfig{
			Level:  envOr("SCORECARD_LOG_LEVEL", "info"),
			Format: envOr("SCORECARD_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
