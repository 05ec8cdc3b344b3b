package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/scorecard/engine"
	"github.com/use-agent/scorecard/models"
)

const (
	summarySegment   = "summary"
	scorecardSegment = "scorecard"
)

// Resolver maps a user-supplied match URL to the match's scorecard URL.
type Resolver struct {
	fetcher engine.Engine
	timeout time.Duration
}

// New creates a Resolver that reads pages through fetcher. timeout bounds
// each fetch; zero leaves it to the caller's context.
func New(fetcher engine.Engine, timeout time.Duration) *Resolver {
	return &Resolver{fetcher: fetcher, timeout: timeout}
}

// Resolve fetches inputURL, reads the page's canonical reference and
// rewrites it to the scorecard shape. Without a canonical reference it
// falls back to the URL reached after redirects.
func (r *Resolver) Resolve(ctx context.Context, inputURL string) (string, error) {
	if _, err := parseAbsolute(inputURL); err != nil {
		return "", &models.ResolutionError{URL: inputURL, Message: "invalid match URL", Err: err}
	}

	res, err := r.fetcher.Fetch(ctx, &engine.FetchRequest{URL: inputURL, Timeout: r.timeout})
	if err != nil {
		return "", &models.ResolutionError{URL: inputURL, Message: "match page unreachable", Err: err}
	}

	finalURL := res.FinalURL
	if finalURL == "" {
		finalURL = inputURL
	}

	canonical, err := CanonicalFromHTML(res.HTML, finalURL)
	if err != nil {
		return "", &models.ResolutionError{URL: inputURL, Message: "unreadable match page", Err: err}
	}

	var resolved string
	if canonical != "" {
		resolved, err = FromCanonical(canonical)
		slog.Debug("canonical reference found", "canonical", canonical, "resolved", resolved)
	} else {
		resolved, err = FromFinalURL(finalURL)
		slog.Debug("no canonical reference, using final URL", "final_url", finalURL, "resolved", resolved)
	}
	if err != nil {
		return "", &models.ResolutionError{URL: inputURL, Message: "no canonical reference derivable", Err: err}
	}

	slog.Info("resolved scorecard URL", "input", inputURL, "url", resolved, "engine", res.EngineName)
	return resolved, nil
}

// CanonicalFromHTML returns the page's declared canonical URL, resolved
// against base. It checks <link rel="canonical"> first and then the
// og:url meta property. An empty string means the page declares none.
func CanonicalFromHTML(rawHTML, base string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	href := ""
	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		for _, token := range strings.Fields(strings.ToLower(rel)) {
			if token == "canonical" {
				href = strings.TrimSpace(s.AttrOr("href", ""))
				return href == ""
			}
		}
		return true
	})
	if href == "" {
		href = strings.TrimSpace(doc.Find(`meta[property="og:url"]`).First().AttrOr("content", ""))
	}
	if href == "" {
		return "", nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := baseURL.Parse(href)
	if err != nil {
		return "", err
	}
	return ref.String(), nil
}

// FromCanonical rewrites a trailing "summary" path segment to "scorecard".
// Any other canonical URL is returned unchanged.
func FromCanonical(canonical string) (string, error) {
	u, err := parseAbsolute(canonical)
	if err != nil {
		return "", err
	}
	segs := splitPath(u.Path)
	if n := len(segs); n > 0 && segs[n-1] == summarySegment {
		segs[n-1] = scorecardSegment
		u.Path = joinPath(segs)
		u.RawPath = ""
	}
	return u.String(), nil
}

// FromFinalURL derives the scorecard URL from the URL a fetch ended on:
// a "summary" segment becomes "scorecard"; otherwise a "scorecard"
// segment is appended unless the path already ends with one.
func FromFinalURL(final string) (string, error) {
	u, err := parseAbsolute(final)
	if err != nil {
		return "", err
	}
	segs := splitPath(u.Path)

	replaced := false
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] == summarySegment {
			segs[i] = scorecardSegment
			replaced = true
			break
		}
	}
	if !replaced && (len(segs) == 0 || segs[len(segs)-1] != scorecardSegment) {
		segs = append(segs, scorecardSegment)
	}

	u.Path = joinPath(segs)
	u.RawPath = ""
	return u.String(), nil
}

func parseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return u, nil
}

func splitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func joinPath(segs []string) string {
	return "/" + strings.Join(segs, "/")
}
