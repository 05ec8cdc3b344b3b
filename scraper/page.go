package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/scorecard/engine"
	"github.com/use-agent/scorecard/extractor"
	"github.com/use-agent/scorecard/models"
	"github.com/ysmood/gson"
)

// markerPoll is how often the marker element is re-checked.
const markerPoll = 500 * time.Millisecond

// warmupSettle is how long the warm-up page is left to set cookies.
const warmupSettle = 2 * time.Second

// snapshotTimeout bounds diagnostics capture after a failure.
const snapshotTimeout = 10 * time.Second

// errMarkerTimeout means the marker element never appeared.
var errMarkerTimeout = errors.New("marker element did not appear")

// Render is the rendered tier: it fetches req.URL in a stealth browser
// session and returns the hydrated markup.
//
// Lifecycle:
//
//  1. Session           – fresh incognito page, or the Scope's shared one
//  2. Headers           – search-engine Referer plus request headers
//  3. Warm-up           – once per session, neutral page for cookies
//  4. Navigate          – up to NavigationAttempts, backoff grows per attempt
//  5. Marker wait       – poll for the marker, pausing longer on challenges
//  6. Failure handling  – snapshot + screenshot, then a classified FetchError
//
// Stealth, identity and hijacking are installed when the session opens,
// before its first navigation.
func (s *Scraper) Render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	// ── 1. Session ───────────────────────────────────────────────────
	page, done, warmUp, err := s.acquire(ctx)
	if err != nil {
		return nil, &models.FetchError{Reason: models.FetchExhausted, URL: req.URL, Err: fmt.Errorf("open browser session: %w", err)}
	}
	defer done()
	s.renders.Add(1)

	return s.fetch(ctx, page, req, warmUp)
}

func (s *Scraper) fetch(ctx context.Context, page pageDriver, req *engine.FetchRequest, warmUp bool) (*engine.FetchResult, error) {
	// ── 2. Headers ───────────────────────────────────────────────────
	if err := page.SetHeaders(requestHeaders(req)); err != nil {
		slog.Warn("set extra headers failed", "error", err)
	}

	// ── 3. Warm-up ───────────────────────────────────────────────────
	if warmUp {
		s.warmUp(ctx, page)
	}

	// ── 4. Navigate ──────────────────────────────────────────────────
	if err := s.navigate(ctx, page, req.URL); err != nil {
		return nil, s.fail(ctx, page, req.URL, err)
	}

	// ── 5. Marker wait ───────────────────────────────────────────────
	var (
		html string
		err  error
	)
	if req.Marker != "" {
		html, err = s.waitForMarker(ctx, page, req.Marker)
	} else {
		if stableErr := page.WaitStable(ctx); stableErr != nil {
			slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
		}
		html, err = page.HTML(ctx)
	}
	if err != nil {
		// ── 6. Failure handling ──────────────────────────────────────
		return nil, s.fail(ctx, page, req.URL, err)
	}

	finalURL := page.Location(ctx)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &engine.FetchResult{
		HTML:       html,
		StatusCode: http.StatusOK,
		FinalURL:   finalURL,
	}, nil
}

// applyIdentity sets a desktop user agent and viewport on the page.
// Failures are logged; the fetch still proceeds.
func (s *Scraper) applyIdentity(page *rod.Page) {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      s.browserCfg.UserAgent,
		AcceptLanguage: "en-US,en;q=0.9",
		Platform:       "Win32",
	}); err != nil {
		slog.Warn("set user agent failed", "error", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Warn("set viewport failed", "error", err)
	}
}

// requestHeaders is the extra header set for req: a search-engine
// Referer that req.Headers may override.
func requestHeaders(req *engine.FetchRequest) map[string]string {
	headers := map[string]string{"Referer": engine.SearchReferer(req.URL)}
	for k, v := range req.Headers {
		headers[k] = v
	}
	return headers
}

// warmUp visits the configured neutral page. Any failure is ignored.
func (s *Scraper) warmUp(ctx context.Context, page pageDriver) {
	if s.fetchCfg.WarmupURL == "" {
		return
	}
	warmCtx, cancel := context.WithTimeout(ctx, s.fetchCfg.NavigationTimeout)
	defer cancel()

	if err := page.Navigate(warmCtx, s.fetchCfg.WarmupURL); err != nil {
		slog.Debug("warm-up navigation failed", "url", s.fetchCfg.WarmupURL, "error", err)
		return
	}
	s.sleep(ctx, warmupSettle)
}

// navigate loads url, retrying sequentially. The pause after attempt n is
// RetryBackoff*n.
func (s *Scraper) navigate(ctx context.Context, page pageDriver, url string) error {
	attempts := s.fetchCfg.NavigationAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		navCtx, cancel := context.WithTimeout(ctx, s.fetchCfg.NavigationTimeout)
		err = page.Navigate(navCtx, url)
		cancel()
		if err == nil {
			slog.Debug("navigation succeeded", "url", url, "attempt", attempt)
			return nil
		}

		slog.Warn("navigation failed", "url", url, "attempt", attempt, "of", attempts, "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < attempts && !s.sleep(ctx, s.fetchCfg.RetryBackoff*time.Duration(attempt)) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("navigation failed after %d attempts: %w", attempts, err)
}

// waitForMarker polls until the element with id marker exists, then
// returns the page markup. While a challenge interstitial is showing it
// waits ChallengePause between checks instead of markerPoll.
func (s *Scraper) waitForMarker(ctx context.Context, page pageDriver, marker string) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.fetchCfg.MarkerTimeout)
	defer cancel()

	selector := `script[id="` + marker + `"]`

	for {
		has, err := page.Has(waitCtx, selector)
		if err == nil && has {
			return page.HTML(waitCtx)
		}

		pause := markerPoll
		if html, htmlErr := page.HTML(waitCtx); htmlErr == nil && extractor.IsChallenge(html) {
			slog.Info("challenge page detected, waiting", "pause", s.fetchCfg.ChallengePause)
			pause = s.fetchCfg.ChallengePause
		}

		if !s.sleep(waitCtx, pause) {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", errMarkerTimeout
		}
	}
}

// fail captures diagnostics and classifies the failure. The capture runs
// on a context detached from ctx so a snapshot is still possible after
// the deadline has passed.
func (s *Scraper) fail(ctx context.Context, page pageDriver, url string, cause error) *models.FetchError {
	snapCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()

	html, err := page.HTML(snapCtx)
	if err != nil {
		slog.Warn("diagnostics: snapshot failed", "error", err)
	}
	png, err := page.Screenshot(snapCtx)
	if err != nil {
		slog.Warn("diagnostics: screenshot failed", "error", err)
	}

	reason := classifyFailure(html, cause, ctx.Err())
	htmlPath, pngPath := s.diag.Snapshot(string(reason), html, png)
	slog.Warn("rendered fetch failed", "url", url, "reason", reason,
		"snapshot", htmlPath, "screenshot", pngPath, "error", cause)

	return &models.FetchError{
		Reason:     reason,
		URL:        url,
		Err:        cause,
		Snapshot:   htmlPath,
		Screenshot: pngPath,
	}
}

// classifyFailure maps a failed rendered fetch to its reason. A challenge
// page wins over a deadline.
func classifyFailure(html string, cause, ctxErr error) models.FetchReason {
	switch {
	case html != "" && extractor.IsChallenge(html):
		return models.FetchBlocked
	case errors.Is(cause, context.DeadlineExceeded) || ctxErr != nil:
		return models.FetchTimeout
	default:
		return models.FetchExhausted
	}
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// sleepCtx waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
