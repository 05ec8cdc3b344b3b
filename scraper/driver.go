package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// pageDriver is the slice of a browser page the rendered fetch flow
// uses. Every call is bounded by its ctx.
type pageDriver interface {
	SetHeaders(headers map[string]string) error
	Navigate(ctx context.Context, url string) error
	Has(ctx context.Context, selector string) (bool, error)
	HTML(ctx context.Context) (string, error)
	WaitStable(ctx context.Context) error
	Location(ctx context.Context) string
	Screenshot(ctx context.Context) ([]byte, error)
}

// rodDriver drives a rod page.
type rodDriver struct {
	page *rod.Page
}

func (d rodDriver) SetHeaders(headers map[string]string) error {
	return proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(d.page)
}

func (d rodDriver) Navigate(ctx context.Context, url string) error {
	return d.page.Context(ctx).Navigate(url)
}

func (d rodDriver) Has(ctx context.Context, selector string) (bool, error) {
	has, _, err := d.page.Context(ctx).Has(selector)
	return has, err
}

func (d rodDriver) HTML(ctx context.Context) (string, error) {
	return d.page.Context(ctx).HTML()
}

func (d rodDriver) WaitStable(ctx context.Context) error {
	return d.page.Context(ctx).WaitDOMStable(300*time.Millisecond, 0.1)
}

func (d rodDriver) Location(ctx context.Context) string {
	return evalStringOrEmpty(d.page.Context(ctx), `() => window.location.href`)
}

func (d rodDriver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.page.Context(ctx).Screenshot(false, nil)
}

// openRendered opens an isolated session and prepares its page for a
// rendered fetch: stealth scripts, desktop identity and request
// hijacking. All three must be in place before the first navigation.
func (s *Scraper) openRendered() (pageDriver, func(), error) {
	page, release, err := s.session()
	if err != nil {
		return nil, nil, err
	}

	if err := installStealth(page); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}
	s.applyIdentity(page)

	router := setupHijack(page, s.fetchCfg.BlockedResourceTypes)

	return rodDriver{page: page}, func() {
		_ = router.Stop()
		release()
	}, nil
}
