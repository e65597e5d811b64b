package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidAsset is returned when a holding fails construction checks.
var ErrInvalidAsset = errors.New("invalid asset")

// Karat is a gold purity measure out of 24.
type Karat int

const (
	Karat18 Karat = 18
	Karat21 Karat = 21
	Karat22 Karat = 22
	Karat24 Karat = 24
)

// Valid reports whether k is one of the supported purities.
func (k Karat) Valid() bool {
	switch k {
	case Karat18, Karat21, Karat22, Karat24:
		return true
	default:
		return false
	}
}

// AssetKind discriminates the Asset variants on the wire.
type AssetKind string

const (
	AssetKindGold     AssetKind = "gold"
	AssetKindCurrency AssetKind = "currency"
)

// AssetVisitor handles every Asset variant. Adding a variant adds a method
// here, so every consumer stops compiling until it handles the new kind.
type AssetVisitor interface {
	VisitGold(GoldHolding)
	VisitCurrency(CurrencyHolding)
}

// Asset is a declared holding: either a GoldHolding or a CurrencyHolding.
// The set of implementations is closed to this package.
type Asset interface {
	AssetID() string
	Kind() AssetKind
	Accept(v AssetVisitor)
	sealed()
}

// GoldHolding is a weight of gold at a given purity.
type GoldHolding struct {
	ID          string          `json:"id"`
	Karat       Karat           `json:"karat"`
	WeightGrams decimal.Decimal `json:"weightGrams"`
}

// NewGoldHolding validates the purity and weight and assigns a fresh id.
func NewGoldHolding(karat Karat, weightGrams decimal.Decimal) (GoldHolding, error) {
	if !karat.Valid() {
		return GoldHolding{}, fmt.Errorf("%w: karat must be one of 18, 21, 22, 24, got %d", ErrInvalidAsset, karat)
	}
	if !weightGrams.IsPositive() {
		return GoldHolding{}, fmt.Errorf("%w: weight must be positive, got %s", ErrInvalidAsset, weightGrams)
	}
	return GoldHolding{ID: newAssetID(), Karat: karat, WeightGrams: weightGrams}, nil
}

func (g GoldHolding) AssetID() string       { return g.ID }
func (g GoldHolding) Kind() AssetKind       { return AssetKindGold }
func (g GoldHolding) Accept(v AssetVisitor) { v.VisitGold(g) }
func (GoldHolding) sealed()                 {}

// CurrencyHolding is an amount of cash in one of the supported currencies.
type CurrencyHolding struct {
	ID       string          `json:"id"`
	Currency Currency        `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// NewCurrencyHolding validates the currency and amount and assigns a fresh id.
func NewCurrencyHolding(currency Currency, amount decimal.Decimal) (CurrencyHolding, error) {
	if !currency.IsSupported() {
		return CurrencyHolding{}, fmt.Errorf("%w: unsupported currency %q", ErrInvalidAsset, currency)
	}
	if !amount.IsPositive() {
		return CurrencyHolding{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAsset, amount)
	}
	return CurrencyHolding{ID: newAssetID(), Currency: currency, Amount: amount}, nil
}

func (c CurrencyHolding) AssetID() string       { return c.ID }
func (c CurrencyHolding) Kind() AssetKind       { return AssetKindCurrency }
func (c CurrencyHolding) Accept(v AssetVisitor) { v.VisitCurrency(c) }
func (CurrencyHolding) sealed()                 {}

// newAssetID returns a time-ordered UUIDv7, falling back to v4.
func newAssetID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
