package engine

import (
	"context"
	"errors"
	"time"

	"github.com/use-agent/scorecard/models"
)

// ErrMarkerMissing is returned by an engine that reached the page but did
// not find the required marker token in the body.
var ErrMarkerMissing = errors.New("marker not present in document")

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod-stealth").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration

	// Marker, when non-empty, is a token the body must contain (or, for
	// the browser, the id of an element that must appear) for the fetch
	// to count as a success.
	Marker string
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	StatusCode int
	FinalURL   string
	EngineName string
	Transport  models.Transport
}

// Document converts the result to the pipeline's RawDocument.
func (r *FetchResult) Document() models.RawDocument {
	return models.RawDocument{
		HTML:      r.HTML,
		Transport: r.Transport,
		FinalURL:  r.FinalURL,
	}
}
