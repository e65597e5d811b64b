package provider

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/mohammedbabelly/zakah-calculator/internal/errors"
	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

// GoldPriceResolver tries gold sources strictly in priority order and
// returns the first quote obtained. It never retries within one call.
type GoldPriceResolver struct {
	sources  []GoldSource
	observer AttemptObserver
	logger   *zap.SugaredLogger
}

// NewGoldPriceResolver creates a resolver over sources, highest priority first.
// observer may be nil.
func NewGoldPriceResolver(sources []GoldSource, observer AttemptObserver, logger *zap.SugaredLogger) *GoldPriceResolver {
	return &GoldPriceResolver{sources: sources, observer: observer, logger: logger}
}

// Sources returns the source names in priority order.
func (r *GoldPriceResolver) Sources() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// Resolve returns the first successful quote unchanged. When every source
// fails it returns ErrAllSourcesFailed wrapping the individual failures.
func (r *GoldPriceResolver) Resolve(ctx context.Context) (*models.GoldPriceQuote, error) {
	var failures []error

	for _, s := range r.sources {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}

		quote, err := s.Attempt(ctx)
		if r.observer != nil {
			r.observer.ObserveSourceAttempt(s.Name(), err)
		}
		if err != nil {
			r.logger.Warnw("gold source failed", "source", s.Name(), "error", err.Error())
			failures = append(failures, err)
			continue
		}

		r.logger.Debugw("gold price resolved", "source", quote.SourceID, "price_per_gram", quote.PricePerGram.String())
		return quote, nil
	}

	return nil, apperrors.Wrap(apperrors.ErrAllSourcesFailed, errors.Join(failures...))
}
