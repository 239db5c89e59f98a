package extract

import (
	"context"

	"go.uber.org/zap"
)

// Runner tries strategies in priority order, returning the first tier that
// yields at least one store. When every tier comes up empty it returns a
// zero-store Result with page diagnostics attached; that is a valid outcome
// for the caller, not an error.
type Runner struct {
	marker     string
	strategies []Strategy
}

// NewRunner creates a Runner. Strategies are tried in order.
func NewRunner(marker string, strategies ...Strategy) *Runner {
	return &Runner{marker: marker, strategies: strategies}
}

func (r *Runner) Extract(ctx context.Context, page Page) (*Result, error) {
	for _, s := range r.strategies {
		stores, err := s.Extract(ctx, page)
		if err != nil {
			zap.L().Debug("extract: strategy failed, trying next",
				zap.String("strategy", s.Name()),
				zap.Error(err),
			)
			continue
		}
		if len(stores) > 0 {
			zap.L().Info("extract: strategy succeeded",
				zap.String("strategy", s.Name()),
				zap.Int("stores", len(stores)),
			)
			return &Result{Stores: stores, Source: s.Name()}, nil
		}
		zap.L().Debug("extract: strategy yielded zero stores, trying next",
			zap.String("strategy", s.Name()),
		)
	}

	diag := r.collectDiagnostics(ctx, page)
	zap.L().Warn("extract: all strategies yielded zero stores",
		zap.String("url", diag.URL),
		zap.String("title", diag.Title),
		zap.Int("text_length", diag.TextLength),
		zap.Bool("angular_ready", diag.AngularReady),
		zap.Bool("marker_found", diag.MarkerFound),
	)
	return &Result{Stores: map[string]StoreRecord{}, Diagnostics: diag}, nil
}

func (r *Runner) collectDiagnostics(ctx context.Context, page Page) *Diagnostics {
	diag := &Diagnostics{URL: page.URL()}
	if title, err := page.Title(); err == nil {
		diag.Title = title
	}
	if text, err := page.BodyText(ctx); err == nil {
		diag.TextLength = len(text)
		preview := text
		if len(preview) > 500 {
			preview = preview[:500]
		}
		diag.TextPreview = preview
		diag.MarkerFound = r.marker != "" && indexFold(text, r.marker) >= 0
	}
	if ready, err := page.Evaluate(ctx, `() => !!window.angular`); err == nil {
		if b, ok := ready.(bool); ok {
			diag.AngularReady = b
		}
	}
	return diag
}
