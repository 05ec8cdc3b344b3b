package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/scorecard/config"
	"github.com/use-agent/scorecard/diagnostics"
	"github.com/use-agent/scorecard/engine"
	"github.com/use-agent/scorecard/pipeline"
	"github.com/use-agent/scorecard/report"
	"github.com/use-agent/scorecard/resolver"
	"github.com/use-agent/scorecard/scraper"
)

// defaultConfigFile is read when present and --config is not given.
const defaultConfigFile = "scorecard.yaml"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scorecard",
		Short: "Generate printable cricket match scorecards",
		Long: `scorecard fetches a match page, reads the match data the page embeds,
and renders a one-page scorecard with the top three batters and bowlers
of every innings.

Pages are fetched with a plain HTTP request first. When that is blocked
or returns a page without match data, a headless Chromium session with a
stealth profile is used instead. Chromium must already be installed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: "+defaultConfigFile+" if present)")
	cmd.PersistentFlags().String("log-level", "",
		"Log level: debug, info, warn, error (overrides configuration)")

	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the configuration from the environment, overlays the
// config file and applies persistent flag overrides. A missing default
// file is not an error; a missing explicit file is.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()

	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	loaded, err := config.LoadFile(path, cfg)
	switch {
	case err == nil:
		cfg = loaded
	case errors.Is(err, config.ErrConfigNotFound) && !explicit:
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	// Logs go to stderr so `generate --output -` can stream the report.
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// buildPipeline wires the stages. The caller must Close the scraper.
//
//	lightweight tier: utls HTTP engine
//	rendered tier:    rod scraper behind engine.RodEngine
//	dispatcher:       both tiers in order, shared by resolver and fetcher
//	session scope:    one rendered session per run
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, *scraper.Scraper) {
	diag := diagnostics.NewWriter(cfg.Fetch.DiagnosticsDir)
	sc := scraper.NewScraper(cfg.Browser, cfg.Fetch, diag)

	dispatcher := engine.NewDispatcher(
		engine.NewHTTPEngine(cfg.Browser.UserAgent, cfg.Browser.Proxy, cfg.Fetch.HTTPTimeout),
		engine.NewRodEngine(sc.Render),
	)

	p := pipeline.New(
		resolver.New(dispatcher, 0),
		dispatcher,
		report.NewRenderer(sc),
		diag,
		cfg.Fetch.RequestTimeout,
	).WithSessionScope(sc)
	return p, sc
}
