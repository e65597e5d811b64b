package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

const goldPriceOrgName = "goldprice.org"

// goldPriceOrgResponse is the dbXRates payload; prices are per troy ounce.
type goldPriceOrgResponse struct {
	Items []struct {
		Currency string          `json:"curr"`
		XauPrice decimal.Decimal `json:"xauPrice"`
	} `json:"items"`
}

// GoldPriceOrgSource reads the USD spot price per troy ounce from goldprice.org.
type GoldPriceOrgSource struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	now        func() time.Time
}

// NewGoldPriceOrgSource creates a goldprice.org source reading from baseURL.
func NewGoldPriceOrgSource(httpClient *http.Client, baseURL string) *GoldPriceOrgSource {
	return &GoldPriceOrgSource{httpClient: httpClient, baseURL: baseURL, now: nowUTC}
}

// Name returns the source identifier.
func (s *GoldPriceOrgSource) Name() string { return goldPriceOrgName }

// Attempt fetches the first item's xauPrice and converts it to price per gram.
func (s *GoldPriceOrgSource) Attempt(ctx context.Context) (*models.GoldPriceQuote, error) {
	var body goldPriceOrgResponse
	if err := getJSON(ctx, s.httpClient, goldPriceOrgName, s.baseURL, &body); err != nil {
		return nil, err
	}

	if len(body.Items) == 0 {
		return nil, dataError(goldPriceOrgName, errors.New("no items in response"))
	}
	perOunce := body.Items[0].XauPrice
	if !perOunce.IsPositive() {
		return nil, dataError(goldPriceOrgName, fmt.Errorf("invalid xauPrice %s", perOunce))
	}

	return &models.GoldPriceQuote{
		PricePerGram: perOunce.Div(troyOunce),
		SourceID:     goldPriceOrgName,
		ObservedAt:   models.ObservedAtTime(s.now()),
	}, nil
}
