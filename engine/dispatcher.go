package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/scorecard/models"
)

// Dispatcher runs engines in tier order, cheapest first, and returns the
// first success. A later tier starts only after the previous one failed.
type Dispatcher struct {
	engines []Engine
}

// NewDispatcher creates a Dispatcher trying engines in the given order.
func NewDispatcher(engines ...Engine) *Dispatcher {
	return &Dispatcher{engines: engines}
}

func (d *Dispatcher) Name() string { return "dispatcher" }

// Fetch escalates through the tiers. When every tier fails it returns a
// *models.FetchError whose reason comes from the last tier that reported
// one, or from the context deadline.
func (d *Dispatcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	var errs []error
	for i, eng := range d.engines {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		slog.Debug("engine starting", "engine", eng.Name(), "tier", i+1, "url", req.URL)
		result, err := eng.Fetch(ctx, req)
		if err == nil {
			slog.Info("engine succeeded", "engine", result.EngineName, "url", req.URL)
			return result, nil
		}

		errs = append(errs, err)
		if i < len(d.engines)-1 {
			slog.Info("engine failed, escalating", "engine", eng.Name(), "url", req.URL, "error", err)
		} else {
			slog.Warn("engine failed", "engine", eng.Name(), "url", req.URL, "error", err)
		}
	}

	return nil, classify(req.URL, errs)
}

// classify folds the per-tier errors into a single FetchError.
func classify(rawURL string, errs []error) *models.FetchError {
	if len(errs) == 0 {
		return &models.FetchError{
			Reason: models.FetchExhausted,
			URL:    rawURL,
			Err:    fmt.Errorf("dispatcher: no engines configured"),
		}
	}

	joined := errors.Join(errs...)

	// A tier that already classified its failure wins; take the last one.
	for i := len(errs) - 1; i >= 0; i-- {
		var fe *models.FetchError
		if errors.As(errs[i], &fe) {
			return &models.FetchError{
				Reason:     fe.Reason,
				URL:        rawURL,
				Err:        joined,
				Snapshot:   fe.Snapshot,
				Screenshot: fe.Screenshot,
			}
		}
	}

	reason := models.FetchExhausted
	if errors.Is(errs[len(errs)-1], context.DeadlineExceeded) {
		reason = models.FetchTimeout
	}
	return &models.FetchError{Reason: reason, URL: rawURL, Err: joined}
}
