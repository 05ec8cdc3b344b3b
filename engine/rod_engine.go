package engine

import (
	"context"
	"fmt"

	"github.com/use-agent/scorecard/models"
)

// RodFetchFunc is the callback that runs a rendered browser fetch.
// It is injected from main to avoid an engine -> scraper import.
type RodFetchFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is the rendered tier. It delegates to the rod scraper through
// a callback; the scraper always applies the stealth profile.
type RodEngine struct {
	fetchFunc RodFetchFunc
}

// NewRodEngine creates a RodEngine around fetchFunc.
func NewRodEngine(fetchFunc RodFetchFunc) *RodEngine {
	return &RodEngine{fetchFunc: fetchFunc}
}

func (e *RodEngine) Name() string { return "rod-stealth" }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.fetchFunc == nil {
		return nil, fmt.Errorf("%s: fetchFunc not configured", e.Name())
	}

	// Clone the request so we don't mutate the caller's copy.
	r := *req

	result, err := e.fetchFunc(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}

	result.EngineName = e.Name()
	result.Transport = models.TransportRendered
	return result, nil
}
