package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/use-agent/scorecard/api/handler"
	"github.com/use-agent/scorecard/models"
	"github.com/use-agent/scorecard/pipeline"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <match-url>",
		Short: "Generate a scorecard for one match",
		Long: `Generate resolves the match URL to its scorecard page, fetches it,
and writes the rendered report.

Examples:
  # PDF named after the configured file name (match_scorecard.pdf)
  scorecard generate https://cricheroes.com/scorecard/123/lions-vs-tigers/summary

  # Override the player of the match
  scorecard generate -m "A. Khan" https://cricheroes.com/scorecard/123/x/summary

  # Canonical JSON on stdout
  scorecard generate -f json -o - https://cricheroes.com/scorecard/123/x/summary`,
		Args: cobra.ExactArgs(1),
		RunE: runGenerateCmd,
	}

	cmd.Flags().StringP("man-of-the-match", "m", "",
		"Name to print as man of the match instead of the extracted one")
	cmd.Flags().StringP("format", "f", "",
		"Output format: pdf, html, markdown, json (default: configured format)")
	cmd.Flags().StringP("output", "o", "",
		"Output file path, or - for stdout (default: configured file name)")
	cmd.Flags().DurationP("timeout", "t", 0,
		"Overall timeout (default: configured request timeout)")

	return cmd
}

func runGenerateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	initLogger(cfg.Log)

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Report.DefaultFormat
	}
	if !models.ValidFormat(format) {
		return fmt.Errorf("unknown format %q: use pdf, html, markdown or json", format)
	}
	override, _ := cmd.Flags().GetString("man-of-the-match")
	output, _ := cmd.Flags().GetString("output")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, sc := buildPipeline(cfg)
	defer sc.Close()

	res, err := p.Run(ctx, pipeline.Request{
		URL:           args[0],
		ManOfTheMatch: override,
		Format:        format,
		Timeout:       timeout,
	})
	if err != nil {
		return describeFailure(err)
	}

	if output == "-" {
		_, err := cmd.OutOrStdout().Write(res.Report.Data)
		return err
	}
	if output == "" {
		output = handler.AttachmentName(cfg.Report.FileName, res.Report)
	}
	if err := writeReport(output, res.Report.Data); err != nil {
		return err
	}

	slog.Info("report written", "path", output, "format", res.Report.Format, "source", res.SourceURL)
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

func writeReport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // report files are meant to be shared
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// describeFailure adds the operator hints a bare error would omit: the
// error code and, for failed rendered fetches, where the snapshots went.
func describeFailure(err error) error {
	var fe *models.FetchError
	if errors.As(err, &fe) && (fe.Snapshot != "" || fe.Screenshot != "") {
		return fmt.Errorf("%s: %w (snapshot: %s, screenshot: %s)", models.CodeOf(err), err, orNone(fe.Snapshot), orNone(fe.Screenshot))
	}
	return fmt.Errorf("%s: %w", models.CodeOf(err), err)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
