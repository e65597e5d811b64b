package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// manualObservation is the wire form of a user-entered observation.
const manualObservation = "manual"

// ObservedAt is either the time a value was observed upstream or the
// marker for a manually entered value. Manual values never go stale.
type ObservedAt struct {
	Time   time.Time
	Manual bool
}

// ObservedAtTime returns an ObservedAt for an upstream observation.
func ObservedAtTime(t time.Time) ObservedAt {
	return ObservedAt{Time: t.UTC()}
}

// ObservedManually returns the manual marker.
func ObservedManually() ObservedAt {
	return ObservedAt{Manual: true}
}

// IsStale reports whether an upstream observation is older than maxAge at now.
// Manual entries are never stale.
func (o ObservedAt) IsStale(now time.Time, maxAge time.Duration) bool {
	if o.Manual {
		return false
	}
	return now.Sub(o.Time) > maxAge
}

// String returns "manual" or the RFC 3339 timestamp.
func (o ObservedAt) String() string {
	if o.Manual {
		return manualObservation
	}
	return o.Time.Format(time.RFC3339)
}

// MarshalJSON encodes the observation as "manual" or an RFC 3339 string.
func (o ObservedAt) MarshalJSON() ([]byte, error) {
	if o.Manual {
		return json.Marshal(manualObservation)
	}
	return json.Marshal(o.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts "manual" or an RFC 3339 string.
func (o *ObservedAt) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("observedAt must be a string: %w", err)
	}
	if s == manualObservation {
		*o = ObservedManually()
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("observedAt: %w", err)
	}
	*o = ObservedAtTime(t)
	return nil
}

// GoldPriceQuote is a single gold price observation, per gram of pure gold,
// in the reference currency.
type GoldPriceQuote struct {
	PricePerGram decimal.Decimal `json:"pricePerGram"`
	SourceID     string          `json:"source"`
	ObservedAt   ObservedAt      `json:"observedAt"`
}

// ExchangeRateTable maps currencies to units of that currency per one unit of Base.
// Tables are replaced whole and must not be mutated once published.
type ExchangeRateTable struct {
	Base       Currency                     `json:"base"`
	Rates      map[Currency]decimal.Decimal `json:"rates"`
	ObservedAt ObservedAt                   `json:"observedAt"`
}

// Rate returns the multiplier for c. The base currency is always 1.
// A missing, zero or negative rate reports ok=false.
func (t *ExchangeRateTable) Rate(c Currency) (decimal.Decimal, bool) {
	if c == t.Base {
		return decimal.NewFromInt(1), true
	}
	r, ok := t.Rates[c]
	if !ok || !r.IsPositive() {
		return decimal.Zero, false
	}
	return r, true
}

// NewManualRateTable builds a manual table from user input. Unsupported
// currencies and non-positive rates are dropped; the reference currency is
// pinned to 1 whatever the input says.
func NewManualRateTable(input map[Currency]decimal.Decimal) *ExchangeRateTable {
	rates := map[Currency]decimal.Decimal{ReferenceCurrency: decimal.NewFromInt(1)}
	for c, r := range input {
		if c == ReferenceCurrency || !c.IsSupported() || !r.IsPositive() {
			continue
		}
		rates[c] = r
	}
	return &ExchangeRateTable{
		Base:       ReferenceCurrency,
		Rates:      rates,
		ObservedAt: ObservedManually(),
	}
}

// FetchStatus describes the outcome of the last aggregate rate fetch.
type FetchStatus string

const (
	FetchStatusIdle    FetchStatus = "idle"
	FetchStatusLoading FetchStatus = "loading"
	FetchStatusSuccess FetchStatus = "success"
	FetchStatusError   FetchStatus = "error"
)

// AllFetchStatuses lists every FetchStatus value.
var AllFetchStatuses = []FetchStatus{
	FetchStatusIdle,
	FetchStatusLoading,
	FetchStatusSuccess,
	FetchStatusError,
}
