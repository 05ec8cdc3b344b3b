// Package pipeline runs one scorecard request end to end:
// resolve, fetch, extract, normalize and render.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/scorecard/diagnostics"
	"github.com/use-agent/scorecard/engine"
	"github.com/use-agent/scorecard/extractor"
	"github.com/use-agent/scorecard/models"
	"github.com/use-agent/scorecard/normalizer"
	"github.com/use-agent/scorecard/report"
)

// Resolver maps a user-supplied match URL to its scorecard URL.
type Resolver interface {
	Resolve(ctx context.Context, inputURL string) (string, error)
}

// SessionScoper lets the rendered tier keep one browser session for the
// resolution and fetch of a single run. end must always be called.
type SessionScoper interface {
	Scope(ctx context.Context) (scoped context.Context, end func())
}

// Request is one pipeline invocation.
type Request struct {
	URL           string
	ManOfTheMatch string
	Format        string

	// Timeout bounds the whole invocation. Zero uses the pipeline default.
	Timeout time.Duration
}

// Result is the output of a successful run. Report is nil when only the
// scorecard was requested.
type Result struct {
	SourceURL string
	Transport models.Transport
	Scorecard *models.Scorecard
	Report    *report.Report
	Timing    models.TimingInfo
}

// Pipeline wires the stages together. It keeps no state between runs.
type Pipeline struct {
	resolver Resolver
	fetcher  engine.Engine
	renderer *report.Renderer
	diag     *diagnostics.Writer
	timeout  time.Duration
	scoper   SessionScoper
}

// New creates a Pipeline. diag may be nil; timeout zero means the
// caller's context is the only bound.
func New(resolver Resolver, fetcher engine.Engine, renderer *report.Renderer, diag *diagnostics.Writer, timeout time.Duration) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		fetcher:  fetcher,
		renderer: renderer,
		diag:     diag,
		timeout:  timeout,
	}
}

// WithSessionScope makes every run share one rendered session between
// resolution and fetch.
func (p *Pipeline) WithSessionScope(s SessionScoper) *Pipeline {
	p.scoper = s
	return p
}

// Run resolves, fetches, extracts, normalizes and renders. Any stage
// failure aborts the run and is returned as that stage's typed error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Format == "" {
		req.Format = models.FormatPDF
	}
	if !models.ValidFormat(req.Format) {
		return nil, &models.InvalidInputError{Message: "unknown format " + req.Format}
	}

	ctx, cancel := p.withTimeout(ctx, req.Timeout)
	defer cancel()

	start := time.Now()
	res, err := p.scorecard(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	renderStart := time.Now()
	rep, err := p.renderer.Render(ctx, res.Scorecard, req.ManOfTheMatch, req.Format)
	if err != nil {
		return nil, err
	}
	res.Report = rep
	res.Timing.RenderMs = time.Since(renderStart).Milliseconds()
	res.Timing.TotalMs = time.Since(start).Milliseconds()

	slog.Info("scorecard generated",
		"url", res.SourceURL,
		"format", rep.Format,
		"bytes", len(rep.Data),
		"transport", res.Transport,
		"total_ms", res.Timing.TotalMs,
	)
	return res, nil
}

// Scorecard runs every stage except rendering.
func (p *Pipeline) Scorecard(ctx context.Context, inputURL string, timeout time.Duration) (*Result, error) {
	ctx, cancel := p.withTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := p.scorecard(ctx, inputURL)
	if err != nil {
		return nil, err
	}
	res.Timing.TotalMs = time.Since(start).Milliseconds()
	return res, nil
}

func (p *Pipeline) scorecard(ctx context.Context, inputURL string) (*Result, error) {
	inputURL = strings.TrimSpace(inputURL)
	if inputURL == "" {
		return nil, &models.InvalidInputError{Message: "url is required"}
	}

	if p.scoper != nil {
		var end func()
		ctx, end = p.scoper.Scope(ctx)
		defer end()
	}

	var res Result

	// ── Resolve ─────────────────────────────────────────────────────
	t := time.Now()
	scorecardURL, err := p.resolver.Resolve(ctx, inputURL)
	if err != nil {
		return nil, err
	}
	res.SourceURL = scorecardURL
	res.Timing.ResolveMs = time.Since(t).Milliseconds()

	// ── Fetch ───────────────────────────────────────────────────────
	t = time.Now()
	fetched, err := p.fetcher.Fetch(ctx, &engine.FetchRequest{URL: scorecardURL, Marker: models.MarkerID})
	if err != nil {
		var fe *models.FetchError
		if !errors.As(err, &fe) {
			err = &models.FetchError{Reason: models.FetchExhausted, URL: scorecardURL, Err: err}
		}
		return nil, err
	}
	res.Timing.FetchMs = time.Since(t).Milliseconds()
	res.Transport = fetched.Transport
	p.diag.LastFetch(fetched.HTML)

	// ── Extract ─────────────────────────────────────────────────────
	payload, err := extractor.Extract(fetched.Document())
	if err != nil {
		var ee *models.ExtractionError
		if errors.As(err, &ee) {
			slog.Warn("extraction failed", "url", scorecardURL, "reason", ee.Reason, "diagnosis", ee.Diagnosis)
		}
		return nil, err
	}

	// ── Normalize ───────────────────────────────────────────────────
	res.Scorecard = normalizer.Normalize(payload)
	slog.Info("scorecard extracted",
		"url", scorecardURL,
		"innings", len(res.Scorecard.Innings),
		"tournament", res.Scorecard.Meta.TournamentName,
	)
	return &res, nil
}

func (p *Pipeline) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = p.timeout
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
