// Package provider fetches gold prices and exchange rates from external data sources.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/mohammedbabelly/zakah-calculator/internal/errors"
	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

// TroyOunceGrams is the number of grams in one troy ounce. Every source
// quoting per ounce converts to per gram with this constant.
const TroyOunceGrams = "31.1034768"

const userAgent = "Mozilla/5.0 (compatible; zakah-calculator/1.0)"

var troyOunce = decimal.RequireFromString(TroyOunceGrams)

// GoldSource obtains the gold spot price from one upstream provider.
type GoldSource interface {
	// Name identifies the source in quotes, logs and metrics.
	Name() string

	// Attempt fetches one quote normalized to price per gram in the
	// reference currency. Any failure is returned as a *SourceError.
	Attempt(ctx context.Context) (*models.GoldPriceQuote, error)
}

// RateTableSource returns a full exchange rate table.
type RateTableSource interface {
	Fetch(ctx context.Context) (*models.ExchangeRateTable, error)
}

// AttemptObserver is notified of every gold source attempt.
type AttemptObserver interface {
	ObserveSourceAttempt(source string, err error)
}

// SourceError represents a failed attempt against a specific source.
type SourceError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying transport or data failure.
func (e *SourceError) Unwrap() error { return e.Err }

func transportError(source string, err error) error {
	return &SourceError{Source: source, Err: apperrors.Wrap(apperrors.ErrTransportFailure, err)}
}

func dataError(source string, err error) error {
	return &SourceError{Source: source, Err: apperrors.Wrap(apperrors.ErrDataFailure, err)}
}

// getJSON performs a GET against url and decodes a 200 response into dst.
// Transport errors and non-200 statuses are transport failures; an
// undecodable body is a data failure.
func getJSON(ctx context.Context, client *http.Client, source, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return transportError(source, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return transportError(source, fmt.Errorf("http request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return transportError(source, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return dataError(source, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// nowUTC is the default clock for sources.
func nowUTC() time.Time { return time.Now().UTC() }
