package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

// Fixed slot names for the two cached values.
const (
	KeyRates     = "zakah-rates"
	KeyGoldPrice = "zakah-gold-price"
)

// RateCache stores the latest GoldPriceQuote and ExchangeRateTable as JSON
// in a Store. A slot that cannot be read or decoded is reported absent.
type RateCache struct {
	store  Store
	logger *zap.SugaredLogger
}

// NewRateCache creates a RateCache over store.
func NewRateCache(store Store, logger *zap.SugaredLogger) *RateCache {
	return &RateCache{store: store, logger: logger}
}

// ReadGoldPrice returns the cached quote, if any.
func (c *RateCache) ReadGoldPrice(ctx context.Context) (*models.GoldPriceQuote, bool) {
	var q models.GoldPriceQuote
	if !c.read(ctx, KeyGoldPrice, &q) {
		return nil, false
	}
	if !q.PricePerGram.IsPositive() {
		c.logger.Warnw("ignoring cached gold price", "key", KeyGoldPrice, "price_per_gram", q.PricePerGram.String())
		return nil, false
	}
	return &q, true
}

// ReadRates returns the cached rate table, if any.
func (c *RateCache) ReadRates(ctx context.Context) (*models.ExchangeRateTable, bool) {
	var t models.ExchangeRateTable
	if !c.read(ctx, KeyRates, &t) {
		return nil, false
	}
	if t.Base == "" {
		t.Base = models.ReferenceCurrency
	}
	return &t, true
}

// WriteGoldPrice replaces the cached quote.
func (c *RateCache) WriteGoldPrice(ctx context.Context, q *models.GoldPriceQuote) error {
	return c.write(ctx, KeyGoldPrice, q)
}

// WriteRates replaces the cached rate table.
func (c *RateCache) WriteRates(ctx context.Context, t *models.ExchangeRateTable) error {
	return c.write(ctx, KeyRates, t)
}

// WritePair replaces both slots together. If either write fails neither
// slot changes, so a later read never pairs values from different installs.
func (c *RateCache) WritePair(ctx context.Context, q *models.GoldPriceQuote, t *models.ExchangeRateTable) error {
	gold, err := encode(KeyGoldPrice, q)
	if err != nil {
		return err
	}
	rates, err := encode(KeyRates, t)
	if err != nil {
		return err
	}
	return c.store.PutMany(ctx, map[string][]byte{
		KeyGoldPrice: gold,
		KeyRates:     rates,
	})
}

// Clear removes both slots.
func (c *RateCache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

func (c *RateCache) read(ctx context.Context, key string, dst any) bool {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warnw("cache read failed", "key", key, "error", err.Error())
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warnw("discarding corrupt cache entry", "key", key, "error", err.Error())
		return false
	}
	return true
}

func (c *RateCache) write(ctx context.Context, key string, v any) error {
	raw, err := encode(key, v)
	if err != nil {
		return err
	}
	return c.store.Put(ctx, key, raw)
}

func encode(key string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", key, err)
	}
	return raw, nil
}
