package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

const proxyName = "gold-price-proxy"

// goldPriceProxyResponse is the body of the gold-price endpoint. On failure
// only Error is set.
type goldPriceProxyResponse struct {
	PricePerGramUSD decimal.Decimal `json:"pricePerGramUSD"`
	Source          string          `json:"source,omitempty"`
	Timestamp       string          `json:"timestamp,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// GoldPriceProxySource consumes another deployment's /api/gold-price endpoint.
type GoldPriceProxySource struct {
	httpClient *http.Client
	baseURL    string
	now        func() time.Time
}

// NewGoldPriceProxySource creates a source reading from baseURL + "/api/gold-price".
func NewGoldPriceProxySource(httpClient *http.Client, baseURL string) *GoldPriceProxySource {
	return &GoldPriceProxySource{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        nowUTC,
	}
}

// Name returns the source identifier.
func (s *GoldPriceProxySource) Name() string { return proxyName }

// Attempt fetches the proxied quote. The upstream's own source name is kept
// as the quote's source id when present.
func (s *GoldPriceProxySource) Attempt(ctx context.Context) (*models.GoldPriceQuote, error) {
	var body goldPriceProxyResponse
	if err := getJSON(ctx, s.httpClient, proxyName, s.baseURL+"/api/gold-price", &body); err != nil {
		return nil, err
	}

	if body.Error != "" {
		return nil, dataError(proxyName, errors.New(body.Error))
	}
	if !body.PricePerGramUSD.IsPositive() {
		return nil, dataError(proxyName, fmt.Errorf("invalid pricePerGramUSD %s", body.PricePerGramUSD))
	}

	sourceID := body.Source
	if sourceID == "" {
		sourceID = proxyName
	}
	observed := s.now()
	if body.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, body.Timestamp); err == nil {
			observed = t
		}
	}

	return &models.GoldPriceQuote{
		PricePerGram: body.PricePerGramUSD,
		SourceID:     sourceID,
		ObservedAt:   models.ObservedAtTime(observed),
	}, nil
}
