package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/use-agent/scorecard/models"
)

// ErrNoPrinter is returned for PDF output when the renderer was built
// without a printer.
var ErrNoPrinter = errors.New("no PDF printer configured")

// Printer turns a self-contained HTML document into PDF bytes.
type Printer interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// Report is a rendered document.
type Report struct {
	Format      string
	ContentType string
	Data        []byte
}

// Extension returns the file extension for the report's format.
func (r *Report) Extension() string {
	switch r.Format {
	case models.FormatMarkdown:
		return ".md"
	default:
		return "." + r.Format
	}
}

// Renderer produces reports from scorecards. It holds no per-request
// state and is safe for concurrent use.
type Renderer struct {
	printer Printer
	md      *converter.Converter
}

// NewRenderer creates a Renderer. printer may be nil when PDF output is
// not needed.
func NewRenderer(printer Printer) *Renderer {
	return &Renderer{
		printer: printer,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// Render produces the report for sc in the given format. A non-blank
// override replaces the man of the match on a copy; sc itself is never
// modified.
func (r *Renderer) Render(ctx context.Context, sc *models.Scorecard, override, format string) (*Report, error) {
	if format == "" {
		format = models.FormatPDF
	}
	if !models.ValidFormat(format) {
		return nil, &models.InvalidInputError{Message: fmt.Sprintf("unknown format %q", format)}
	}

	view := WithOverride(sc, override)

	if format == models.FormatJSON {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return nil, &models.RenderError{Format: format, Err: err}
		}
		return &Report{Format: format, ContentType: "application/json; charset=utf-8", Data: data}, nil
	}

	html, err := RenderHTML(view)
	if err != nil {
		return nil, &models.RenderError{Format: format, Err: err}
	}

	switch format {
	case models.FormatHTML:
		return &Report{Format: format, ContentType: "text/html; charset=utf-8", Data: []byte(html)}, nil

	case models.FormatMarkdown:
		md, err := r.md.ConvertString(html)
		if err != nil {
			return nil, &models.RenderError{Format: format, Err: err}
		}
		return &Report{Format: format, ContentType: "text/markdown; charset=utf-8", Data: []byte(md)}, nil

	default:
		if r.printer == nil {
			return nil, &models.RenderError{Format: format, Err: ErrNoPrinter}
		}
		pdf, err := r.printer.PrintPDF(ctx, html)
		if err != nil {
			return nil, &models.RenderError{Format: format, Err: err}
		}
		slog.Debug("report printed", "bytes", len(pdf), "innings", len(view.Innings))
		return &Report{Format: format, ContentType: "application/pdf", Data: pdf}, nil
	}
}

// RenderHTML renders the report template for sc.
func RenderHTML(sc *models.Scorecard) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, BuildLayout(sc)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WithOverride returns a copy of sc. A non-blank override replaces the
// copy's man of the match.
func WithOverride(sc *models.Scorecard, override string) *models.Scorecard {
	view := sc.Clone()
	if o := strings.TrimSpace(override); o != "" {
		view.Meta.ManOfTheMatch = o
	}
	return view
}
