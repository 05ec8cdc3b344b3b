package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scorecard/api/handler"
	"github.com/use-agent/scorecard/config"
	"github.com/use-agent/scorecard/models"
	"github.com/use-agent/scorecard/pipeline"
	"github.com/use-agent/scorecard/report"
)

type fakeGenerator struct {
	err error
	got pipeline.Request
}

func (f *fakeGenerator) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	sc := models.NewScorecard()
	sc.Meta.ManOfTheMatch = "Y"
	sc.Innings = []models.Innings{{TeamName: "Lions"}}

	rep, err := report.NewRenderer(pdfStub{}).Render(ctx, sc, req.ManOfTheMatch, req.Format)
	if err != nil {
		return nil, err
	}
	return &pipeline.Result{
		SourceURL: "https://cricheroes.com/scorecard/1/x/scorecard",
		Transport: models.TransportRendered,
		Scorecard: sc,
		Report:    rep,
	}, nil
}

type pdfStub struct{}

func (pdfStub) PrintPDF(context.Context, string) ([]byte, error) { return []byte("%PDF-1.7"), nil }

type fakeStats struct{ stats models.BrowserStats }

func (f fakeStats) Stats() models.BrowserStats { return f.stats }

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Server.Mode = gin.TestMode
	cfg.RateLimit.RequestsPerSecond = 100
	cfg.RateLimit.Burst = 100
	return cfg
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) models.ScorecardResponse {
	t.Helper()
	var resp models.ScorecardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, w.Body.String())
	}
	return resp
}

const validBody = `{"url":"https://cricheroes.com/scorecard/1/x/summary","man_of_the_match":"X"}`

func TestScorecard_PDFAttachment(t *testing.T) {
	gen := &fakeGenerator{}
	r := NewRouter(gen, fakeStats{}, testConfig(), time.Now(), "test")

	w := do(r, http.MethodPost, "/api/v1/scorecard", validBody, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename=match_scorecard.pdf` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if w.Body.String() != "%PDF-1.7" {
		t.Errorf("body = %q", w.Body.String())
	}
	if gen.got.Format != models.FormatPDF || gen.got.ManOfTheMatch != "X" {
		t.Errorf("pipeline request = %+v", gen.got)
	}
}

func TestScorecard_JSONEnvelope(t *testing.T) {
	r := NewRouter(&fakeGenerator{}, fakeStats{}, testConfig(), time.Now(), "test")

	w := do(r, http.MethodPost, "/api/v1/scorecard",
		`{"url":"https://cricheroes.com/scorecard/1/x/summary","man_of_the_match":"X","format":"json"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeResponse(t, w)
	if !resp.Success || resp.Scorecard == nil || resp.Transport != models.TransportRendered {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Scorecard.Meta.ManOfTheMatch != "X" {
		t.Errorf("ManOfTheMatch = %q, want override", resp.Scorecard.Meta.ManOfTheMatch)
	}
}

func TestScorecard_HTMLInline(t *testing.T) {
	r := NewRouter(&fakeGenerator{}, fakeStats{}, testConfig(), time.Now(), "test")

	w := do(r, http.MethodPost, "/api/v1/scorecard",
		`{"url":"https://cricheroes.com/scorecard/1/x/summary","format":"html"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Content-Disposition") != "" {
		t.Error("html should not be an attachment")
	}
	if !strings.Contains(w.Body.String(), "Match Scorecard") {
		t.Error("body is not the report")
	}
}

func TestScorecard_InvalidInput(t *testing.T) {
	r := NewRouter(&fakeGenerator{}, fakeStats{}, testConfig(), time.Now(), "test")

	for _, body := range []string{
		`{}`,
		`{"url":"not a url"}`,
		`{"url":"https://cricheroes.com/x","format":"docx"}`,
		`not json`,
	} {
		w := do(r, http.MethodPost, "/api/v1/scorecard", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
			continue
		}
		if resp := decodeResponse(t, w); resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
			t.Errorf("body %s: error = %+v", body, resp.Error)
		}
	}
}

func TestScorecard_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&models.ResolutionError{URL: "u", Message: "m"}, http.StatusUnprocessableEntity, models.ErrCodeResolution},
		{&models.FetchError{Reason: models.FetchTimeout}, http.StatusGatewayTimeout, models.ErrCodeFetchTimeout},
		{&models.FetchError{Reason: models.FetchBlocked}, http.StatusBadGateway, models.ErrCodeFetchBlocked},
		{&models.FetchError{Reason: models.FetchExhausted}, http.StatusBadGateway, models.ErrCodeFetchExhausted},
		{&models.ExtractionError{Reason: models.ExtractionMarkerNotFound}, http.StatusBadGateway, models.ErrCodeMarkerNotFound},
		{&models.ExtractionError{Reason: models.ExtractionMalformedJSON}, http.StatusBadGateway, models.ErrCodeMalformedJSON},
		{&models.RenderError{Format: "pdf"}, http.StatusInternalServerError, models.ErrCodeRender},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, models.ErrCodeFetchTimeout},
	}
	for _, tt := range tests {
		r := NewRouter(&fakeGenerator{err: tt.err}, fakeStats{}, testConfig(), time.Now(), "test")
		w := do(r, http.MethodPost, "/api/v1/scorecard", validBody, nil)
		if w.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.status)
		}
		resp := decodeResponse(t, w)
		if resp.Success || resp.Error == nil || resp.Error.Code != tt.code {
			t.Errorf("%v: resp = %+v", tt.err, resp)
		}
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{"secret"}
	r := NewRouter(&fakeGenerator{}, fakeStats{}, cfg, time.Now(), "test")

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/scorecard", validBody, tt.headers)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}

	w := do(r, http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health behind auth: status = %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.RequestsPerSecond = 0.01
	cfg.RateLimit.Burst = 1
	r := NewRouter(&fakeGenerator{}, fakeStats{}, cfg, time.Now(), "test")

	if w := do(r, http.MethodPost, "/api/v1/scorecard", validBody, nil); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}
	w := do(r, http.MethodPost, "/api/v1/scorecard", validBody, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "100" {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	if resp := decodeResponse(t, w); resp.Error == nil || resp.Error.Code != models.ErrCodeRateLimited {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		stats  models.BrowserStats
		status string
	}{
		{"not launched yet", models.BrowserStats{}, "healthy"},
		{"connected", models.BrowserStats{Connected: true, Renders: 3}, "healthy"},
		{"lost browser", models.BrowserStats{Renders: 3}, "degraded"},
		{"crashed before any render", models.BrowserStats{Lost: true}, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(&fakeGenerator{}, fakeStats{tt.stats}, testConfig(), time.Now(), "1.2.3")
			w := do(r, http.MethodGet, "/api/v1/health", "", nil)
			var resp models.HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.status || resp.Version != "1.2.3" || resp.Browser != tt.stats {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestAttachmentName(t *testing.T) {
	tests := []struct {
		file, format, want string
	}{
		{"match_scorecard.pdf", models.FormatPDF, "match_scorecard.pdf"},
		{"match_scorecard.pdf", models.FormatMarkdown, "match_scorecard.md"},
		{"report", models.FormatHTML, "report.html"},
		{"", models.FormatPDF, "match_scorecard.pdf"},
	}
	for _, tt := range tests {
		got := handler.AttachmentName(tt.file, &report.Report{Format: tt.format})
		if got != tt.want {
			t.Errorf("AttachmentName(%q, %q) = %q, want %q", tt.file, tt.format, got, tt.want)
		}
	}
}
