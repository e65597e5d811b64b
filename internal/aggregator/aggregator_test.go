package aggregator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohammedbabelly/zakah-calculator/internal/cache"
	apperrors "github.com/mohammedbabelly/zakah-calculator/internal/errors"
	"github.com/mohammedbabelly/zakah-calculator/internal/events"
	"github.com/mohammedbabelly/zakah-calculator/internal/metrics"
	"github.com/mohammedbabelly/zakah-calculator/internal/models"
	"github.com/mohammedbabelly/zakah-calculator/internal/testutil"
)

// mockResolver implements GoldResolver for testing.
type mockResolver struct {
	calls     atomic.Int32
	resolveFn func(ctx context.Context) (*models.GoldPriceQuote, error)
}

func (m *mockResolver) Resolve(ctx context.Context) (*models.GoldPriceQuote, error) {
	m.calls.Add(1)
	return m.resolveFn(ctx)
}

// mockFetcher implements RateFetcher for testing.
type mockFetcher struct {
	calls   atomic.Int32
	fetchFn func(ctx context.Context) (*models.ExchangeRateTable, error)
}

func (m *mockFetcher) Fetch(ctx context.Context) (*models.ExchangeRateTable, error) {
	m.calls.Add(1)
	return m.fetchFn(ctx)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishRates(ctx context.Context, e events.RatesEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

var observed = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func liveQuote(price string) *models.GoldPriceQuote {
	return &models.GoldPriceQuote{
		PricePerGram: decimal.RequireFromString(price),
		SourceID:     "goldprice.org",
		ObservedAt:   models.ObservedAtTime(observed),
	}
}

func liveTable(eur string) *models.ExchangeRateTable {
	return &models.ExchangeRateTable{
		Base:       models.CurrencyUSD,
		Rates:      map[models.Currency]decimal.Decimal{models.CurrencyEUR: decimal.RequireFromString(eur)},
		ObservedAt: models.ObservedAtTime(observed),
	}
}

func okResolver(price string) *mockResolver {
	return &mockResolver{resolveFn: func(context.Context) (*models.GoldPriceQuote, error) {
		return liveQuote(price), nil
	}}
}

func okFetcher(eur string) *mockFetcher {
	return &mockFetcher{fetchFn: func(context.Context) (*models.ExchangeRateTable, error) {
		return liveTable(eur), nil
	}}
}

func failingResolver() *mockResolver {
	return &mockResolver{resolveFn: func(context.Context) (*models.GoldPriceQuote, error) {
		return nil, apperrors.ErrAllSourcesFailed
	}}
}

type fixture struct {
	agg       *Aggregator
	cache     *cache.RateCache
	publisher *mockPublisher
	metrics   *metrics.Collector
}

func newFixture(t *testing.T, r GoldResolver, f RateFetcher) *fixture {
	t.Helper()

	rc := cache.NewRateCache(cache.NewMemoryStore(), zap.NewNop().Sugar())
	pub := &mockPublisher{}
	pub.On("PublishRates", mock.Anything, mock.Anything).Return(nil).Maybe()
	col := metrics.NewCollector(prometheus.NewRegistry())

	agg := New(r, f, rc, pub, col, zap.NewNop().Sugar(), Options{
		Now: func() time.Time { return observed.Add(time.Minute) },
	})
	return &fixture{agg: agg, cache: rc, publisher: pub, metrics: col}
}

func TestAggregator_InitialState(t *testing.T) {
	fx := newFixture(t, okResolver("80"), okFetcher("0.92"))

	snap := fx.agg.Snapshot()
	assert.Equal(t, models.FetchStatusIdle, snap.Status)
	assert.False(t, snap.Available())
	assert.Zero(t, snap.Generation)
}

func TestAggregator_FetchAllSuccess(t *testing.T) {
	r, f := okResolver("80"), okFetcher("0.92")
	fx := newFixture(t, r, f)
	ctx := context.Background()

	snap := fx.agg.FetchAll(ctx)

	assert.Equal(t, models.FetchStatusSuccess, snap.Status)
	require.True(t, snap.Available())
	assert.True(t, snap.GoldPrice.PricePerGram.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, uint64(1), snap.Generation)
	assert.False(t, snap.Manual)
	assert.Empty(t, snap.LastError)

	cachedQuote, ok := fx.cache.ReadGoldPrice(ctx)
	require.True(t, ok)
	assert.Equal(t, "goldprice.org", cachedQuote.SourceID)
	_, ok = fx.cache.ReadRates(ctx)
	assert.True(t, ok)

	fx.publisher.AssertCalled(t, "PublishRates", mock.Anything, mock.MatchedBy(func(e events.RatesEvent) bool {
		return e.Generation == 1 && !e.Manual && e.GoldPrice.SourceID == "goldprice.org"
	}))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(fx.metrics.FetchTotal.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(fx.metrics.FetchStatus.WithLabelValues("success")))
	assert.Equal(t, 80.0, promtestutil.ToFloat64(fx.metrics.GoldPricePerGram))
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestAggregator_FailureWithoutPriorData(t *testing.T) {
	fx := newFixture(t, failingResolver(), okFetcher("0.92"))
	ctx := context.Background()

	snap := fx.agg.FetchAll(ctx)

	assert.Equal(t, models.FetchStatusError, snap.Status)
	assert.False(t, snap.Available())
	assert.NotEmpty(t, snap.LastError)

	_, ok := fx.cache.ReadRates(ctx)
	assert.False(t, ok, "partial data must not be cached")
	fx.publisher.AssertNotCalled(t, "PublishRates", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(fx.metrics.FetchTotal.WithLabelValues(metrics.OutcomeError)))
}

func TestAggregator_FailureKeepsPreviousPair(t *testing.T) {
	r := okResolver("80")
	f := okFetcher("0.92")
	fx := newFixture(t, r, f)
	ctx := context.Background()

	first := fx.agg.FetchAll(ctx)
	require.Equal(t, models.FetchStatusSuccess, first.Status)

	f.fetchFn = func(context.Context) (*models.ExchangeRateTable, error) {
		return nil, apperrors.ErrTransportFailure
	}
	r.resolveFn = func(context.Context) (*models.GoldPriceQuote, error) {
		return liveQuote("99"), nil
	}

	snap := fx.agg.FetchAll(ctx)

	assert.Equal(t, models.FetchStatusSuccess, snap.Status)
	assert.True(t, snap.GoldPrice.PricePerGram.Equal(decimal.NewFromInt(80)), "old gold price kept")
	assert.Equal(t, first.Generation, snap.Generation)
	assert.NotEmpty(t, snap.LastError)

	cached, ok := fx.cache.ReadGoldPrice(ctx)
	require.True(t, ok)
	assert.True(t, cached.PricePerGram.Equal(decimal.NewFromInt(80)), "cache not overwritten with partial data")
	assert.Equal(t, 1.0, promtestutil.ToFloat64(fx.metrics.FetchTotal.WithLabelValues(metrics.OutcomeDegraded)))
}

func TestAggregator_SetManualRates(t *testing.T) {
	fx := newFixture(t, failingResolver(), okFetcher("0.92"))
	ctx := context.Background()

	require.Equal(t, models.FetchStatusError, fx.agg.FetchAll(ctx).Status)

	snap, err := fx.agg.SetManualRates(ctx, decimal.NewFromInt(75), map[models.Currency]decimal.Decimal{
		models.CurrencyUSD: decimal.NewFromInt(5),
		models.CurrencyEUR: decimal.RequireFromString("0.9"),
		models.CurrencySYP: decimal.Zero,
		"JPY":              decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	assert.Equal(t, models.FetchStatusSuccess, snap.Status)
	assert.True(t, snap.Manual)
	assert.Empty(t, snap.LastError, "manual entry clears the error")
	assert.Equal(t, ManualSourceID, snap.GoldPrice.SourceID)
	assert.True(t, snap.GoldPrice.ObservedAt.Manual)

	usd, _ := snap.ExchangeRates.Rate(models.CurrencyUSD)
	assert.True(t, usd.Equal(decimal.NewFromInt(1)), "USD pinned to 1")
	_, ok := snap.ExchangeRates.Rate(models.CurrencySYP)
	assert.False(t, ok, "zero rate dropped")
	_, present := snap.ExchangeRates.Rates["JPY"]
	assert.False(t, present, "unsupported currency dropped")

	cached, ok := fx.cache.ReadRates(ctx)
	require.True(t, ok)
	assert.True(t, cached.ObservedAt.Manual)

	fx.publisher.AssertCalled(t, "PublishRates", mock.Anything, mock.MatchedBy(func(e events.RatesEvent) bool {
		return e.Manual
	}))
}

func TestAggregator_SetManualRatesRejectsNonPositivePrice(t *testing.T) {
	fx := newFixture(t, okResolver("80"), okFetcher("0.92"))

	for _, price := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
		snap, err := fx.agg.SetManualRates(context.Background(), price, nil)
		testutil.AssertAppError(t, err, apperrors.ErrInvalidManualRates)
		assert.False(t, snap.Available())
	}
}

func TestAggregator_RefreshSkipsManual(t *testing.T) {
	r, f := okResolver("80"), okFetcher("0.92")
	fx := newFixture(t, r, f)
	ctx := context.Background()

	_, err := fx.agg.SetManualRates(ctx, decimal.NewFromInt(70), nil)
	require.NoError(t, err)

	snap := fx.agg.Refresh(ctx)
	assert.True(t, snap.Manual)
	assert.Zero(t, r.calls.Load(), "background refresh must not touch manual values")

	// An explicit retry replaces the manual entry.
	snap = fx.agg.FetchAll(ctx)
	assert.False(t, snap.Manual)
	assert.True(t, snap.GoldPrice.PricePerGram.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, uint64(2), snap.Generation)
}

func TestAggregator_RefreshFetchesLiveValues(t *testing.T) {
	r, f := okResolver("80"), okFetcher("0.92")
	fx := newFixture(t, r, f)

	snap := fx.agg.Refresh(context.Background())
	assert.Equal(t, models.FetchStatusSuccess, snap.Status)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestAggregator_StaleFetchCannotClobberManual(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	r := &mockResolver{resolveFn: func(context.Context) (*models.GoldPriceQuote, error) {
		close(entered)
		<-release
		return liveQuote("80"), nil
	}}
	fx := newFixture(t, r, okFetcher("0.92"))
	ctx := context.Background()

	done := make(chan Snapshot)
	go func() { done <- fx.agg.FetchAll(ctx) }()

	<-entered
	manual, err := fx.agg.SetManualRates(ctx, decimal.NewFromInt(70), map[models.Currency]decimal.Decimal{
		models.CurrencyEUR: decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)
	close(release)

	snap := <-done
	assert.True(t, snap.Manual, "late fetch result discarded")
	assert.Equal(t, manual.Generation, snap.Generation)
	assert.True(t, fx.agg.Snapshot().GoldPrice.PricePerGram.Equal(decimal.NewFromInt(70)))

	cached, ok := fx.cache.ReadGoldPrice(ctx)
	require.True(t, ok)
	assert.Equal(t, ManualSourceID, cached.SourceID)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(fx.metrics.FetchTotal.WithLabelValues(metrics.OutcomeDiscarded)))
}

func TestAggregator_RetryAfterManualStartsNewCycle(t *testing.T) {
	var blocked atomic.Bool
	entered := make(chan struct{})
	release := make(chan struct{})
	r := &mockResolver{resolveFn: func(context.Context) (*models.GoldPriceQuote, error) {
		if blocked.CompareAndSwap(false, true) {
			close(entered)
			<-release
			return liveQuote("80"), nil
		}
		return liveQuote("85"), nil
	}}
	fx := newFixture(t, r, okFetcher("0.92"))
	ctx := context.Background()

	scheduled := make(chan Snapshot)
	go func() { scheduled <- fx.agg.FetchAll(ctx) }()
	<-entered

	_, err := fx.agg.SetManualRates(ctx, decimal.NewFromInt(70), map[models.Currency]decimal.Decimal{
		models.CurrencyEUR: decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)

	retry := fx.agg.FetchAll(ctx)
	close(release)
	<-scheduled

	assert.Equal(t, int32(2), r.calls.Load())
	assert.False(t, retry.Manual)
	assert.True(t, retry.GoldPrice.PricePerGram.Equal(decimal.NewFromInt(85)))

	snap := fx.agg.Snapshot()
	assert.False(t, snap.Manual, "superseded cycle left the retry in place")
	assert.Equal(t, retry.Generation, snap.Generation)
	assert.True(t, snap.GoldPrice.PricePerGram.Equal(decimal.NewFromInt(85)))
}

func TestAggregator_CycleSupersededBeforeStartDoesNotFetch(t *testing.T) {
	r, f := okResolver("80"), okFetcher("0.92")
	fx := newFixture(t, r, f)
	ctx := context.Background()

	// A scheduled refresh that saw generation 0 runs after a manual entry lands.
	manual, err := fx.agg.SetManualRates(ctx, decimal.NewFromInt(70), nil)
	require.NoError(t, err)

	snap := fx.agg.shareCycle(ctx, 0)

	assert.Zero(t, r.calls.Load())
	assert.Zero(t, f.calls.Load())
	assert.True(t, snap.Manual)
	assert.Equal(t, manual.Generation, snap.Generation)
	assert.Equal(t, models.FetchStatusSuccess, fx.agg.Snapshot().Status)

	cached, ok := fx.cache.ReadGoldPrice(ctx)
	require.True(t, ok)
	assert.Equal(t, ManualSourceID, cached.SourceID)
}

func TestAggregator_CacheWriteFailureKeepsCachedPair(t *testing.T) {
	store := &flakyStore{MemoryStore: cache.NewMemoryStore()}
	rc := cache.NewRateCache(store, zap.NewNop().Sugar())
	pub := &mockPublisher{}
	pub.On("PublishRates", mock.Anything, mock.Anything).Return(nil).Maybe()
	agg := New(okResolver("80"), okFetcher("0.92"), rc, pub, metrics.NewCollector(prometheus.NewRegistry()), zap.NewNop().Sugar(), Options{})
	ctx := context.Background()

	agg.FetchAll(ctx)

	store.fail.Store(true)
	snap, err := agg.SetManualRates(ctx, decimal.NewFromInt(70), nil)
	require.NoError(t, err, "cache failures are not fatal")
	assert.True(t, snap.Manual)

	gold, ok := rc.ReadGoldPrice(ctx)
	require.True(t, ok)
	assert.True(t, gold.PricePerGram.Equal(decimal.NewFromInt(80)))
	rates, ok := rc.ReadRates(ctx)
	require.True(t, ok)
	assert.False(t, rates.ObservedAt.Manual)
}

// flakyStore fails PutMany once fail is set.
type flakyStore struct {
	*cache.MemoryStore
	fail atomic.Bool
}

func (s *flakyStore) PutMany(ctx context.Context, entries map[string][]byte) error {
	if s.fail.Load() {
		return errors.New("store unavailable")
	}
	return s.MemoryStore.PutMany(ctx, entries)
}

func TestAggregator_ConcurrentFetchesShareOneCycle(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	r := &mockResolver{resolveFn: func(context.Context) (*models.GoldPriceQuote, error) {
		entered <- struct{}{}
		<-release
		return liveQuote("80"), nil
	}}
	f := okFetcher("0.92")
	fx := newFixture(t, r, f)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]Snapshot, 3)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = fx.agg.FetchAll(ctx)
	}()
	<-entered

	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = fx.agg.FetchAll(ctx)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, int32(1), f.calls.Load())
	for _, s := range results {
		assert.Equal(t, uint64(1), s.Generation)
	}
}

func TestAggregator_Hydrate(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, okResolver("80"), okFetcher("0.92"))

	assert.False(t, fx.agg.Hydrate(ctx), "empty cache")

	require.NoError(t, fx.cache.WriteGoldPrice(ctx, liveQuote("88")))
	assert.False(t, fx.agg.Hydrate(ctx), "half a pair is not installed")

	require.NoError(t, fx.cache.WriteRates(ctx, liveTable("0.95")))
	require.True(t, fx.agg.Hydrate(ctx))

	snap := fx.agg.Snapshot()
	assert.Equal(t, models.FetchStatusSuccess, snap.Status)
	assert.True(t, snap.GoldPrice.PricePerGram.Equal(decimal.NewFromInt(88)))
	fx.publisher.AssertNotCalled(t, "PublishRates", mock.Anything, mock.Anything)
}

func TestAggregator_Stale(t *testing.T) {
	now := observed
	rc := cache.NewRateCache(cache.NewMemoryStore(), zap.NewNop().Sugar())
	agg := New(okResolver("80"), okFetcher("0.92"), rc, nil, nil, zap.NewNop().Sugar(), Options{
		StaleAfter: 30 * time.Minute,
		Now:        func() time.Time { return now },
	})
	ctx := context.Background()

	agg.FetchAll(ctx)
	assert.False(t, agg.Snapshot().Stale)

	now = observed.Add(time.Hour)
	assert.True(t, agg.Snapshot().Stale)

	_, err := agg.SetManualRates(ctx, decimal.NewFromInt(70), nil)
	require.NoError(t, err)
	assert.False(t, agg.Snapshot().Stale, "manual values never go stale")
}

func TestAggregator_PublishFailureIsNotFatal(t *testing.T) {
	rc := cache.NewRateCache(cache.NewMemoryStore(), zap.NewNop().Sugar())
	pub := &mockPublisher{}
	pub.On("PublishRates", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	agg := New(okResolver("80"), okFetcher("0.92"), rc, pub, nil, zap.NewNop().Sugar(), Options{})
	snap := agg.FetchAll(context.Background())

	assert.Equal(t, models.FetchStatusSuccess, snap.Status)
	pub.AssertExpectations(t)
}
