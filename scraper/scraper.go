package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/scorecard/config"
	"github.com/use-agent/scorecard/diagnostics"
	"github.com/use-agent/scorecard/models"
)

// ErrBrowserNotFound is returned when no Chromium binary is configured or
// installed. The scraper never downloads one itself.
var ErrBrowserNotFound = errors.New("scraper: no browser binary found; install Chromium or set SCORECARD_BROWSER_BIN")

// Scraper owns the browser process. Every print, and every fetch outside
// a Scope, runs in its own incognito context that is disposed on return.
// It is safe for concurrent use.
type Scraper struct {
	browserCfg config.BrowserConfig
	fetchCfg   config.FetchConfig
	diag       *diagnostics.Writer

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser

	// lost is set when the launched browser stopped answering and has
	// not been replaced yet.
	lost atomic.Bool

	activeSessions atomic.Int32
	renders        atomic.Int64

	open  func() (pageDriver, func(), error)
	sleep func(ctx context.Context, d time.Duration) bool
	ping  func(b *rod.Browser) error
}

// pingTimeout bounds the liveness check on the cached browser.
const pingTimeout = 3 * time.Second

// NewScraper prepares a scraper. The browser is launched on first use so
// that runs served entirely by the lightweight tier never start Chromium.
func NewScraper(browserCfg config.BrowserConfig, fetchCfg config.FetchConfig, diag *diagnostics.Writer) *Scraper {
	s := &Scraper{
		browserCfg: browserCfg,
		fetchCfg:   fetchCfg,
		diag:       diag,
		sleep:      sleepCtx,
		ping:       pingBrowser,
	}
	s.open = s.openRendered
	return s
}

// pingBrowser asks the browser for its version over CDP.
func pingBrowser(b *rod.Browser) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	_, err := proto.BrowserGetVersion{}.Call(b.Context(ctx))
	return err
}

// alive reports whether the cached browser still answers. A dead one is
// dropped so the next connect relaunches it. Callers hold s.mu.
func (s *Scraper) alive() bool {
	if s.browser == nil {
		return false
	}
	if err := s.ping(s.browser); err != nil {
		slog.Warn("browser stopped responding, dropping it", "error", err)
		if s.launcher != nil {
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
		s.browser = nil
		s.launcher = nil
		s.lost.Store(true)
		return false
	}
	return true
}

// connect returns the shared browser, launching it if needed.
func (s *Scraper) connect() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alive() {
		return s.browser, nil
	}

	bin := s.browserCfg.BrowserBin
	if bin == "" {
		path, found := launcher.LookPath()
		if !found {
			return nil, ErrBrowserNotFound
		}
		bin = path
	}

	l := launcher.New().
		Bin(bin).
		Headless(s.browserCfg.Headless).
		NoSandbox(s.browserCfg.NoSandbox)

	if s.browserCfg.Proxy != "" {
		l = l.Proxy(s.browserCfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), "1920,1080")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}
	slog.Info("browser launched", "bin", bin, "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, err
	}

	s.launcher = l
	s.browser = browser
	if s.lost.Swap(false) {
		slog.Info("browser relaunched after loss")
	}
	return browser, nil
}

// Stats returns a snapshot of the rendered tier's state.
func (s *Scraper) Stats() models.BrowserStats {
	s.mu.Lock()
	connected := s.alive()
	s.mu.Unlock()
	return models.BrowserStats{
		Connected:      connected,
		Lost:           s.lost.Load(),
		ActiveSessions: int(s.activeSessions.Load()),
		Renders:        s.renders.Load(),
	}
}

// Close kills the browser process if one was launched.
// Call this on shutdown to prevent zombie Chrome processes.
func (s *Scraper) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return
	}
	slog.Info("scraper shutting down: closing browser")
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	s.browser = nil
	s.launcher = nil
	slog.Info("scraper shutdown complete")
}

// session opens an isolated incognito context and a page inside it. The
// returned release func closes both and must always be called.
func (s *Scraper) session() (*rod.Page, func(), error) {
	browser, err := s.connect()
	if err != nil {
		return nil, nil, err
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return nil, nil, err
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, nil, err
	}

	s.activeSessions.Add(1)
	release := func() {
		if err := page.Close(); err != nil {
			slog.Debug("session: page close failed", "error", err)
		}
		if err := incognito.Close(); err != nil {
			slog.Debug("session: context close failed", "error", err)
		}
		s.activeSessions.Add(-1)
	}
	return page, release, nil
}
