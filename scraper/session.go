package scraper

import (
	"context"
	"sync"
)

type sessionKey struct{}

// sharedSession is one rendered session reused by every Render call made
// under the same Scope. mu serializes those calls.
type sharedSession struct {
	mu      sync.Mutex
	page    pageDriver
	release func()
	warmed  bool
}

// Scope returns a context under which Render calls share one browser
// session, so resolution and fetch of a single run keep the same cookies
// and warm up once. The session opens on first rendered use; end closes
// it and must always be called.
func (s *Scraper) Scope(ctx context.Context) (context.Context, func()) {
	ss := &sharedSession{}
	end := func() {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		if ss.release != nil {
			ss.release()
		}
		ss.page, ss.release = nil, nil
	}
	return context.WithValue(ctx, sessionKey{}, ss), end
}

// acquire returns the page to fetch with and the func that gives it back.
// Outside a Scope every call gets a fresh session that done closes.
// warmUp reports whether the page has not been warmed up yet.
func (s *Scraper) acquire(ctx context.Context) (page pageDriver, done func(), warmUp bool, err error) {
	ss, ok := ctx.Value(sessionKey{}).(*sharedSession)
	if !ok {
		page, release, err := s.open()
		if err != nil {
			return nil, nil, false, err
		}
		return page, release, true, nil
	}

	ss.mu.Lock()
	if ss.page == nil {
		page, release, err := s.open()
		if err != nil {
			ss.mu.Unlock()
			return nil, nil, false, err
		}
		ss.page, ss.release = page, release
	}
	warmUp = !ss.warmed
	ss.warmed = true
	return ss.page, ss.mu.Unlock, warmUp, nil
}
