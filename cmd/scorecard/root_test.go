package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/scorecard/config"
	"github.com/use-agent/scorecard/models"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	if cmd.Use != "scorecard" {
		t.Errorf("Use = %q", cmd.Use)
	}
	if !cmd.SilenceUsage || !cmd.SilenceErrors {
		t.Error("expected usage and errors to be silenced")
	}

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"generate", "serve", "version"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}

	if f := cmd.PersistentFlags().Lookup("config"); f == nil || f.Shorthand != "c" {
		t.Error("expected --config/-c persistent flag")
	}
}

func TestNewGenerateCmd(t *testing.T) {
	t.Parallel()

	cmd := NewGenerateCmd()
	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("expected an error without a URL argument")
	}
	if err := cmd.Args(cmd, []string{"a", "b"}); err == nil {
		t.Error("expected an error with two URL arguments")
	}

	for _, tt := range []struct{ name, short string }{
		{"man-of-the-match", "m"},
		{"format", "f"},
		{"output", "o"},
		{"timeout", "t"},
	} {
		f := cmd.Flags().Lookup(tt.name)
		if f == nil {
			t.Errorf("missing --%s", tt.name)
			continue
		}
		if f.Shorthand != tt.short {
			t.Errorf("--%s shorthand = %q, want %q", tt.name, f.Shorthand, tt.short)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)
	if !strings.HasPrefix(out.String(), "scorecard version ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("fetch:\n  navigation_attempts: 5\nreport:\n  default_format: html\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("fetch:\n  navigation_attempts: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("explicit file overlays", func(t *testing.T) {
		root := NewRootCmd()
		if err := root.ParseFlags([]string{"--config", good, "--log-level", "debug"}); err != nil {
			t.Fatal(err)
		}
		cfg, err := loadConfig(root)
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if cfg.Fetch.NavigationAttempts != 5 || cfg.Report.DefaultFormat != "html" {
			t.Errorf("overlay not applied: %+v", cfg.Fetch)
		}
		if cfg.Fetch.MarkerTimeout != 30*time.Second {
			t.Errorf("unset key lost its default: %v", cfg.Fetch.MarkerTimeout)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %q", cfg.Log.Level)
		}
	})

	t.Run("explicit missing file", func(t *testing.T) {
		root := NewRootCmd()
		if err := root.ParseFlags([]string{"--config", filepath.Join(dir, "nope.yaml")}); err != nil {
			t.Fatal(err)
		}
		_, err := loadConfig(root)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("err = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		root := NewRootCmd()
		if err := root.ParseFlags([]string{"--config", bad}); err != nil {
			t.Fatal(err)
		}
		if _, err := loadConfig(root); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("no file", func(t *testing.T) {
		root := NewRootCmd()
		if err := root.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
		cfg, err := loadConfig(root)
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if cfg.Fetch.NavigationAttempts != 3 {
			t.Errorf("NavigationAttempts = %d", cfg.Fetch.NavigationAttempts)
		}
	})
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "nested", "match_scorecard.pdf")
	if err := writeReport(path, []byte("%PDF")); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "%PDF" {
		t.Errorf("read back %q, %v", got, err)
	}
}

func TestDescribeFailure(t *testing.T) {
	t.Parallel()

	fe := &models.FetchError{Reason: models.FetchBlocked, URL: "u", Snapshot: "diagnostics/a.html"}
	err := describeFailure(fe)
	if !errors.Is(err, fe) {
		t.Error("original error not wrapped")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, models.ErrCodeFetchBlocked+": ") || !strings.Contains(msg, "snapshot: diagnostics/a.html") || !strings.Contains(msg, "screenshot: none") {
		t.Errorf("message = %q", msg)
	}

	plain := describeFailure(&models.ResolutionError{URL: "u", Message: "m"})
	if !strings.HasPrefix(plain.Error(), models.ErrCodeResolution+": ") {
		t.Errorf("message = %q", plain.Error())
	}
}
