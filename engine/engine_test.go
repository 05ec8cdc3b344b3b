package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/scorecard/models"
)

const pageWithMarker = `<html><head><title>m</title></head><body>
<script id="__NEXT_DATA__" type="application/json">{"props":{}}</script></body></html>`

const pageWithoutMarker = `<html><head><title>m</title></head><body><div id="__next"></div></body></html>`

func newPageServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPEngine_MarkerPresent(t *testing.T) {
	srv := newPageServer(t, http.StatusOK, pageWithMarker)
	e := NewHTTPEngine("test-agent", "", 0)

	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL, Marker: models.MarkerID})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Transport != models.TransportLightweight {
		t.Errorf("Transport = %q, want lightweight", res.Transport)
	}
	if !strings.Contains(res.HTML, models.MarkerID) {
		t.Error("HTML should contain the marker")
	}
}

func TestHTTPEngine_MarkerMissing(t *testing.T) {
	srv := newPageServer(t, http.StatusOK, pageWithoutMarker)
	e := NewHTTPEngine("test-agent", "", 0)

	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL, Marker: models.MarkerID})
	if !errors.Is(err, ErrMarkerMissing) {
		t.Fatalf("err = %v, want ErrMarkerMissing", err)
	}
}

func TestHTTPEngine_NoMarkerRequired(t *testing.T) {
	srv := newPageServer(t, http.StatusOK, pageWithoutMarker)
	e := NewHTTPEngine("test-agent", "", 0)

	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.FinalURL != srv.URL {
		t.Errorf("FinalURL = %q, want %q", res.FinalURL, srv.URL)
	}
}

func TestHTTPEngine_Non200(t *testing.T) {
	srv := newPageServer(t, http.StatusForbidden, pageWithMarker)
	e := NewHTTPEngine("test-agent", "", 0)

	if _, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL, Marker: models.MarkerID}); err == nil {
		t.Fatal("expected error for 403")
	}
}

func TestHTTPEngine_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, pageWithMarker)
	}))
	defer srv.Close()

	e := NewHTTPEngine("test-agent/1.0", "", 0)
	if _, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.Get("User-Agent") != "test-agent/1.0" {
		t.Errorf("User-Agent = %q", got.Get("User-Agent"))
	}
	if got.Get("Accept-Language") == "" {
		t.Error("Accept-Language not set")
	}
	if !strings.HasPrefix(got.Get("Referer"), "https://www.google.com/search?q=") {
		t.Errorf("Referer = %q", got.Get("Referer"))
	}
}

func TestHTTPEngine_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	e := NewHTTPEngine("test-agent", "", 0)
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL, Timeout: 50 * time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestHTTPEngine_DefaultTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	e := NewHTTPEngine("test-agent", "", 50*time.Millisecond)
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

// stubEngine records calls and returns a canned result.
type stubEngine struct {
	name   string
	result *FetchResult
	err    error
	calls  int
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	r := *s.result
	r.EngineName = s.name
	return &r, nil
}

func TestDispatcher_ShortCircuitsOnFirstSuccess(t *testing.T) {
	light := &stubEngine{name: "http", result: &FetchResult{HTML: "a", Transport: models.TransportLightweight}}
	rendered := &stubEngine{name: "rod-stealth", result: &FetchResult{HTML: "b"}}

	res, err := NewDispatcher(light, rendered).Fetch(context.Background(), &FetchRequest{URL: "https://x.test"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.HTML != "a" {
		t.Errorf("HTML = %q, want a", res.HTML)
	}
	if rendered.calls != 0 {
		t.Errorf("rendered tier called %d times, want 0", rendered.calls)
	}
}

func TestDispatcher_EscalatesWhenMarkerMissing(t *testing.T) {
	srv := newPageServer(t, http.StatusOK, pageWithoutMarker)
	rendered := &stubEngine{name: "rod-stealth", result: &FetchResult{HTML: pageWithMarker, Transport: models.TransportRendered}}

	d := NewDispatcher(NewHTTPEngine("test-agent", "", 0), rendered)
	res, err := d.Fetch(context.Background(), &FetchRequest{URL: srv.URL, Marker: models.MarkerID})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if rendered.calls != 1 {
		t.Fatalf("rendered tier called %d times, want 1", rendered.calls)
	}
	if res.Transport != models.TransportRendered {
		t.Errorf("Transport = %q, want rendered", res.Transport)
	}
}

func TestDispatcher_AllFail(t *testing.T) {
	tests := []struct {
		name string
		last error
		want models.FetchReason
	}{
		{"plain error", errors.New("boom"), models.FetchExhausted},
		{"deadline", fmt.Errorf("nav: %w", context.DeadlineExceeded), models.FetchTimeout},
		{"classified blocked", &models.FetchError{Reason: models.FetchBlocked, Snapshot: "snap.html"}, models.FetchBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			light := &stubEngine{name: "http", err: ErrMarkerMissing}
			rendered := &stubEngine{name: "rod-stealth", err: tt.last}

			_, err := NewDispatcher(light, rendered).Fetch(context.Background(), &FetchRequest{URL: "https://x.test"})
			var fe *models.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("err = %v, want *models.FetchError", err)
			}
			if fe.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", fe.Reason, tt.want)
			}
			if fe.URL != "https://x.test" {
				t.Errorf("URL = %q", fe.URL)
			}
		})
	}
}

func TestDispatcher_KeepsDiagnosticPaths(t *testing.T) {
	rendered := &stubEngine{name: "rod-stealth", err: &models.FetchError{
		Reason: models.FetchExhausted, Snapshot: "s.html", Screenshot: "s.png",
	}}
	_, err := NewDispatcher(rendered).Fetch(context.Background(), &FetchRequest{URL: "https://x.test"})
	var fe *models.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v", err)
	}
	if fe.Snapshot != "s.html" || fe.Screenshot != "s.png" {
		t.Errorf("diagnostics = %q, %q", fe.Snapshot, fe.Screenshot)
	}
}

func TestRodEngine_SetsTransport(t *testing.T) {
	e := NewRodEngine(func(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
		return &FetchResult{HTML: "ok"}, nil
	})
	res, err := e.Fetch(context.Background(), &FetchRequest{URL: "https://x.test"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Transport != models.TransportRendered || res.EngineName != "rod-stealth" {
		t.Errorf("got transport %q engine %q", res.Transport, res.EngineName)
	}
}

func TestSearchReferer(t *testing.T) {
	if got := SearchReferer("https://cricheroes.com/scorecard/1/x"); got != "https://www.google.com/search?q=cricheroes.com" {
		t.Errorf("SearchReferer = %q", got)
	}
	if got := SearchReferer("::bad"); got != "https://www.google.com/" {
		t.Errorf("SearchReferer(bad) = %q", got)
	}
}

func TestHTTPEngine_BodyCap(t *testing.T) {
	tests := []struct {
		name    string
		max     int64
		wantErr bool
	}{
		{"fits exactly", int64(len(pageWithMarker)), false},
		{"one byte over", int64(len(pageWithMarker)) - 1, true},
		{"marker before cut", int64(len(pageWithMarker)) - 20, true},
	}
	srv := newPageServer(t, http.StatusOK, pageWithMarker)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewHTTPEngine("test-agent", "", 0)
			e.maxBody = tt.max

			_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL, Marker: models.MarkerID})
			if tt.wantErr && !errors.Is(err, ErrBodyTooLarge) {
				t.Fatalf("err = %v, want ErrBodyTooLarge", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Fetch: %v", err)
			}
		})
	}
}

func TestDispatcher_EscalatesOnOversizedBody(t *testing.T) {
	srv := newPageServer(t, http.StatusOK, pageWithMarker)
	light := NewHTTPEngine("test-agent", "", 0)
	light.maxBody = 16
	rendered := &stubEngine{name: "rod-stealth", result: &FetchResult{HTML: pageWithMarker, Transport: models.TransportRendered}}

	res, err := NewDispatcher(light, rendered).Fetch(context.Background(), &FetchRequest{URL: srv.URL, Marker: models.MarkerID})
	if err != nil {
		t.Fatal(err)
	}
	if res.Transport != models.TransportRendered || rendered.calls != 1 {
		t.Errorf("Transport = %q, rendered calls = %d", res.Transport, rendered.calls)
	}
}
