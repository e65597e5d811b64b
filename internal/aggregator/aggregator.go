// Package aggregator keeps the current gold price and exchange rate table,
// refreshing them from upstream sources or accepting manual values.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/mohammedbabelly/zakah-calculator/internal/errors"
	"github.com/mohammedbabelly/zakah-calculator/internal/events"
	"github.com/mohammedbabelly/zakah-calculator/internal/metrics"
	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

// ManualSourceID is the source id of a manually entered gold price.
const ManualSourceID = "manual"

// GoldResolver resolves the gold price from the source chain.
type GoldResolver interface {
	Resolve(ctx context.Context) (*models.GoldPriceQuote, error)
}

// RateFetcher fetches the exchange rate table.
type RateFetcher interface {
	Fetch(ctx context.Context) (*models.ExchangeRateTable, error)
}

// RateCache persists the installed pair for the session.
type RateCache interface {
	ReadGoldPrice(ctx context.Context) (*models.GoldPriceQuote, bool)
	ReadRates(ctx context.Context) (*models.ExchangeRateTable, bool)
	WritePair(ctx context.Context, q *models.GoldPriceQuote, t *models.ExchangeRateTable) error
}

// Recorder receives fetch outcomes.
type Recorder interface {
	ObserveFetch(outcome string, d time.Duration)
	SetStatus(status models.FetchStatus)
	SetGoldPrice(price decimal.Decimal)
}

// Snapshot is a point-in-time copy of the aggregator state. The quote and
// table are shared and must not be mutated.
type Snapshot struct {
	Status        models.FetchStatus        `json:"status"`
	GoldPrice     *models.GoldPriceQuote    `json:"goldPrice"`
	ExchangeRates *models.ExchangeRateTable `json:"exchangeRates"`
	Manual        bool                      `json:"manual"`
	Stale         bool                      `json:"stale"`
	Generation    uint64                    `json:"generation"`
	LastError     string                    `json:"lastError,omitempty"`
}

// Available reports whether both values are present.
func (s Snapshot) Available() bool {
	return s.GoldPrice != nil && s.ExchangeRates != nil
}

// Options tunes an Aggregator. Zero values are replaced by defaults.
type Options struct {
	// StaleAfter marks fetched values stale once older than this. Zero disables it.
	StaleAfter time.Duration
	Now        func() time.Time
}

// Aggregator owns the installed (quote, table) pair. Every accepted value
// bumps the generation; a fetch whose starting generation is no longer
// current is discarded, so a slow fetch cannot overwrite a manual entry.
type Aggregator struct {
	resolver  GoldResolver
	fetcher   RateFetcher
	cache     RateCache
	publisher events.Publisher
	recorder  Recorder
	logger    *zap.SugaredLogger
	opts      Options

	flight singleflight.Group

	mu         sync.RWMutex
	status     models.FetchStatus
	quote      *models.GoldPriceQuote
	table      *models.ExchangeRateTable
	generation uint64
	lastErr    error
}

// New creates an idle Aggregator with nothing installed.
func New(resolver GoldResolver, fetcher RateFetcher, cache RateCache, publisher events.Publisher, recorder Recorder, logger *zap.SugaredLogger, opts Options) *Aggregator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Aggregator{
		resolver:  resolver,
		fetcher:   fetcher,
		cache:     cache,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		opts:      opts,
		status:    models.FetchStatusIdle,
	}
}

// Snapshot returns the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() Snapshot {
	s := Snapshot{
		Status:        a.status,
		GoldPrice:     a.quote,
		ExchangeRates: a.table,
		Manual:        a.isManualLocked(),
		Generation:    a.generation,
	}
	if a.lastErr != nil {
		s.LastError = a.lastErr.Error()
	}
	if a.opts.StaleAfter > 0 && a.quote != nil && a.table != nil {
		now := a.opts.Now()
		s.Stale = a.quote.ObservedAt.IsStale(now, a.opts.StaleAfter) ||
			a.table.ObservedAt.IsStale(now, a.opts.StaleAfter)
	}
	return s
}

func (a *Aggregator) isManualLocked() bool {
	return (a.quote != nil && a.quote.ObservedAt.Manual) ||
		(a.table != nil && a.table.ObservedAt.Manual)
}

// Hydrate installs the cached pair, if both halves are present. It neither
// writes the cache nor publishes.
func (a *Aggregator) Hydrate(ctx context.Context) bool {
	quote, okQuote := a.cache.ReadGoldPrice(ctx)
	table, okTable := a.cache.ReadRates(ctx)
	if !okQuote || !okTable {
		return false
	}

	a.mu.Lock()
	a.generation++
	a.quote, a.table = quote, table
	a.status = models.FetchStatusSuccess
	a.lastErr = nil
	gen := a.generation
	a.mu.Unlock()

	a.setStatus(models.FetchStatusSuccess)
	a.recordGoldPrice(quote)
	a.logger.Infow("restored rates from cache",
		"generation", gen,
		"gold_source", quote.SourceID,
		"manual", quote.ObservedAt.Manual || table.ObservedAt.Manual,
	)
	return true
}

// FetchAll fetches a fresh pair. Concurrent callers at the same generation
// share one in-flight cycle; a caller arriving after a newer value was
// installed starts its own. The cycle itself is detached from ctx; a caller
// whose ctx ends first gets the current snapshot.
func (a *Aggregator) FetchAll(ctx context.Context) Snapshot {
	a.mu.RLock()
	gen := a.generation
	a.mu.RUnlock()

	return a.shareCycle(ctx, gen)
}

// Refresh is the scheduled form of FetchAll. Manually entered values are
// never replaced in the background.
func (a *Aggregator) Refresh(ctx context.Context) Snapshot {
	a.mu.RLock()
	gen := a.generation
	manual := a.isManualLocked()
	a.mu.RUnlock()

	if manual {
		a.logger.Debug("skipping scheduled refresh of manual rates")
		return a.Snapshot()
	}
	return a.shareCycle(ctx, gen)
}

// shareCycle joins or starts the cycle for generation gen. The state of a
// generation is fixed, so callers sharing a key agree on whether it holds
// manual values.
func (a *Aggregator) shareCycle(ctx context.Context, gen uint64) Snapshot {
	detached := context.WithoutCancel(ctx)
	ch := a.flight.DoChan(fmt.Sprintf("fetch-%d", gen), func() (interface{}, error) {
		return a.fetchAll(detached, gen), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Snapshot)
	case <-ctx.Done():
		return a.Snapshot()
	}
}

// fetchAll runs one cycle on behalf of callers that saw generation gen. If
// a value was installed since, the request is already answered and nothing
// is fetched.
func (a *Aggregator) fetchAll(ctx context.Context, gen uint64) Snapshot {
	start := a.opts.Now()

	a.mu.Lock()
	if a.generation != gen {
		snap := a.snapshotLocked()
		a.mu.Unlock()
		a.logger.Debugw("skipping fetch superseded before start", "requested_generation", gen, "current_generation", snap.Generation)
		return snap
	}
	a.status = models.FetchStatusLoading
	a.mu.Unlock()
	a.setStatus(models.FetchStatusLoading)

	var (
		quote *models.GoldPriceQuote
		table *models.ExchangeRateTable
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := a.resolver.Resolve(gctx)
		quote = q
		return err
	})
	g.Go(func() error {
		t, err := a.fetcher.Fetch(gctx)
		table = t
		return err
	})
	err := g.Wait()

	a.mu.Lock()
	if a.generation != gen {
		snap := a.snapshotLocked()
		a.mu.Unlock()
		a.observe(metrics.OutcomeDiscarded, start)
		a.logger.Infow("discarding superseded fetch", "started_generation", gen, "current_generation", snap.Generation)
		return snap
	}

	if err != nil {
		outcome := metrics.OutcomeError
		a.lastErr = err
		if a.quote != nil && a.table != nil {
			a.status = models.FetchStatusSuccess
			outcome = metrics.OutcomeDegraded
		} else {
			a.status = models.FetchStatusError
		}
		snap := a.snapshotLocked()
		a.mu.Unlock()

		a.setStatus(snap.Status)
		a.observe(outcome, start)
		a.logger.Warnw("rate fetch failed", "status", snap.Status, "generation", snap.Generation, "error", err.Error())
		return snap
	}

	snap := a.installLocked(ctx, quote, table)
	a.mu.Unlock()

	a.afterInstall(ctx, snap)
	a.observe(metrics.OutcomeSuccess, start)
	a.logger.Infow("rates refreshed",
		"status", snap.Status,
		"generation", snap.Generation,
		"gold_source", quote.SourceID,
		"duration_ms", a.opts.Now().Sub(start).Milliseconds(),
	)
	return snap
}

// SetManualRates installs a user-entered gold price and rate table,
// superseding any fetch still in flight. Rates that are not positive or
// not in the supported set are dropped and the reference currency is
// pinned to 1. A non-positive gold price is rejected.
func (a *Aggregator) SetManualRates(ctx context.Context, pricePerGram decimal.Decimal, rates map[models.Currency]decimal.Decimal) (Snapshot, error) {
	if !pricePerGram.IsPositive() {
		return a.Snapshot(), apperrors.ErrInvalidManualRates
	}

	quote := &models.GoldPriceQuote{
		PricePerGram: pricePerGram,
		SourceID:     ManualSourceID,
		ObservedAt:   models.ObservedManually(),
	}
	table := models.NewManualRateTable(rates)

	a.mu.Lock()
	snap := a.installLocked(ctx, quote, table)
	a.mu.Unlock()

	a.afterInstall(ctx, snap)
	a.logger.Infow("manual rates installed", "generation", snap.Generation, "currencies", len(table.Rates))
	return snap, nil
}

// installLocked replaces the pair, writes it through the cache and bumps
// the generation. a.mu must be held.
func (a *Aggregator) installLocked(ctx context.Context, quote *models.GoldPriceQuote, table *models.ExchangeRateTable) Snapshot {
	a.generation++
	a.quote, a.table = quote, table
	a.status = models.FetchStatusSuccess
	a.lastErr = nil

	if err := a.cache.WritePair(ctx, quote, table); err != nil {
		a.logger.Warnw("failed to write rate cache", "generation", a.generation, "error", err.Error())
	}
	return a.snapshotLocked()
}

func (a *Aggregator) afterInstall(ctx context.Context, snap Snapshot) {
	a.setStatus(snap.Status)
	a.recordGoldPrice(snap.GoldPrice)

	event := events.RatesEvent{
		Generation:    snap.Generation,
		Manual:        snap.Manual,
		GoldPrice:     snap.GoldPrice,
		ExchangeRates: snap.ExchangeRates,
		InstalledAt:   a.opts.Now().UTC(),
	}
	if err := a.publisher.PublishRates(ctx, event); err != nil {
		a.logger.Warnw("failed to publish rates", "generation", snap.Generation, "error", err.Error())
	}
}

func (a *Aggregator) setStatus(s models.FetchStatus) {
	if a.recorder != nil {
		a.recorder.SetStatus(s)
	}
}

func (a *Aggregator) recordGoldPrice(q *models.GoldPriceQuote) {
	if a.recorder != nil && q != nil {
		a.recorder.SetGoldPrice(q.PricePerGram)
	}
}

func (a *Aggregator) observe(outcome string, start time.Time) {
	if a.recorder != nil {
		a.recorder.ObserveFetch(outcome, a.opts.Now().Sub(start))
	}
}
