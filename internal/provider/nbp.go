package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

const (
	nbpName = "nbp.pl"

	// nbpCurrency is the currency NBP quotes gold in.
	nbpCurrency models.Currency = "PLN"
)

// nbpGoldPrice is one entry of the cenyzlota feed: PLN per gram of pure gold.
type nbpGoldPrice struct {
	Date  string          `json:"data"`
	Price decimal.Decimal `json:"cena"`
}

// NBPSource derives the USD price per gram from the Polish central bank's
// PLN gold price and the PLN rate from a secondary rate table. Both lookups
// must succeed for the source to succeed.
type NBPSource struct {
	httpClient *http.Client
	goldURL    string // overridable for tests
	rates      RateTableSource
	now        func() time.Time
}

// NewNBPSource creates an NBP source converting through rates.
func NewNBPSource(httpClient *http.Client, goldURL string, rates RateTableSource) *NBPSource {
	return &NBPSource{httpClient: httpClient, goldURL: goldURL, rates: rates, now: nowUTC}
}

// Name returns the source identifier.
func (s *NBPSource) Name() string { return nbpName }

// Attempt fetches the PLN gold price and the PLN rate concurrently.
func (s *NBPSource) Attempt(ctx context.Context) (*models.GoldPriceQuote, error) {
	var (
		prices []nbpGoldPrice
		table  *models.ExchangeRateTable
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return getJSON(gctx, s.httpClient, nbpName, s.goldURL, &prices)
	})
	g.Go(func() error {
		t, err := s.rates.Fetch(gctx)
		if err != nil {
			return &SourceError{Source: nbpName, Err: err}
		}
		table = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(prices) == 0 {
		return nil, dataError(nbpName, errors.New("empty gold price list"))
	}
	pricePLN := prices[0].Price
	if !pricePLN.IsPositive() {
		return nil, dataError(nbpName, fmt.Errorf("invalid gold price %s PLN", pricePLN))
	}
	plnPerUSD, ok := table.Rate(nbpCurrency)
	if !ok {
		return nil, dataError(nbpName, errors.New("missing or non-positive PLN rate"))
	}

	return &models.GoldPriceQuote{
		PricePerGram: pricePLN.Div(plnPerUSD),
		SourceID:     nbpName,
		ObservedAt:   models.ObservedAtTime(s.now()),
	}, nil
}
