package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

const exchangeRateName = "open.er-api.com"

// exchangeRateResponse is the open.er-api latest-rates payload.
type exchangeRateResponse struct {
	Result         string                     `json:"result"`
	Rates          map[string]decimal.Decimal `json:"rates"`
	TimeLastUpdate string                     `json:"time_last_update_utc"`
}

// ExchangeRateFetcher reads the rate table for the reference currency from a single upstream.
type ExchangeRateFetcher struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	now        func() time.Time
}

// NewExchangeRateFetcher creates a fetcher reading from baseURL.
func NewExchangeRateFetcher(httpClient *http.Client, baseURL string) *ExchangeRateFetcher {
	return &ExchangeRateFetcher{httpClient: httpClient, baseURL: baseURL, now: nowUTC}
}

// Fetch returns every rate in the response, including currencies outside
// the supported set. A missing time_last_update_utc falls back to now.
func (f *ExchangeRateFetcher) Fetch(ctx context.Context) (*models.ExchangeRateTable, error) {
	var body exchangeRateResponse
	if err := getJSON(ctx, f.httpClient, exchangeRateName, f.baseURL, &body); err != nil {
		return nil, err
	}

	if body.Result != "" && body.Result != "success" {
		return nil, dataError(exchangeRateName, errors.New("upstream result "+body.Result))
	}
	if len(body.Rates) == 0 {
		return nil, dataError(exchangeRateName, errors.New("no rates in response"))
	}

	rates := make(map[models.Currency]decimal.Decimal, len(body.Rates))
	for code, r := range body.Rates {
		rates[models.Currency(code)] = r
	}

	return &models.ExchangeRateTable{
		Base:       models.ReferenceCurrency,
		Rates:      rates,
		ObservedAt: models.ObservedAtTime(f.observedAt(body.TimeLastUpdate)),
	}, nil
}

func (f *ExchangeRateFetcher) observedAt(raw string) time.Time {
	if raw == "" {
		return f.now()
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return f.now()
}
