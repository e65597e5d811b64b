// Package valuation computes the zakah obligation for a set of holdings.
// Every function here is pure: the same assets, quote and table always give
// the same result, and numeric anomalies degrade to zero instead of failing.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

// NisabGrams is the nisab expressed as grams of pure gold.
const NisabGrams = 85

var (
	nisabGrams = decimal.NewFromInt(NisabGrams)
	zakahRate  = decimal.RequireFromString("0.025")
	fullKarat  = decimal.NewFromInt(24)
)

// Purity returns k/24 as an exact fraction.
func Purity(k models.Karat) decimal.Decimal {
	return decimal.NewFromInt(int64(k)).Div(fullKarat)
}

// GoldValue returns weight × purity × price in the reference currency.
// Multiplication happens before the division by 24 so 24 karat is exact.
func GoldValue(weightGrams decimal.Decimal, k models.Karat, pricePerGram decimal.Decimal) decimal.Decimal {
	return weightGrams.Mul(decimal.NewFromInt(int64(k))).Mul(pricePerGram).Div(fullKarat)
}

// CurrencyValue converts amount into the reference currency. An absent or
// non-positive rate yields zero.
func CurrencyValue(amount decimal.Decimal, c models.Currency, table *models.ExchangeRateTable) decimal.Decimal {
	if c == models.ReferenceCurrency {
		return amount
	}
	if table == nil {
		return decimal.Zero
	}
	rate, ok := table.Rate(c)
	if !ok {
		return decimal.Zero
	}
	return amount.Div(rate)
}

// NisabValue is the value of NisabGrams of pure gold at pricePerGram.
func NisabValue(pricePerGram decimal.Decimal) decimal.Decimal {
	return nisabGrams.Mul(pricePerGram)
}

// summer accumulates asset contributions by kind.
type summer struct {
	price decimal.Decimal
	table *models.ExchangeRateTable
	gold  decimal.Decimal
	cash  decimal.Decimal
}

func (s *summer) VisitGold(g models.GoldHolding) {
	s.gold = s.gold.Add(GoldValue(g.WeightGrams, g.Karat, s.price))
}

func (s *summer) VisitCurrency(c models.CurrencyHolding) {
	s.cash = s.cash.Add(CurrencyValue(c.Amount, c.Currency, s.table))
}

// Calculate values assets against quote and table. It always returns a
// result; callers decide beforehand whether there is anything to value.
func Calculate(assets []models.Asset, table *models.ExchangeRateTable, quote *models.GoldPriceQuote) models.ZakahResult {
	price := decimal.Zero
	if quote != nil {
		price = quote.PricePerGram
	}

	s := &summer{price: price, table: table, gold: decimal.Zero, cash: decimal.Zero}
	for _, a := range assets {
		a.Accept(s)
	}

	total := s.gold.Add(s.cash)
	nisab := NisabValue(price)
	above := total.GreaterThanOrEqual(nisab)

	tax := decimal.Zero
	if above {
		tax = total.Mul(zakahRate)
	}

	return models.ZakahResult{
		ReferenceCurrency:   models.ReferenceCurrency,
		TotalValue:          total,
		NisabThresholdValue: nisab,
		IsAboveThreshold:    above,
		TaxAmount:           tax,
		TaxAmountByCurrency: convertAll(tax, table),
		Breakdown: models.ZakahBreakdown{
			GoldValue:     s.gold,
			CurrencyValue: s.cash,
		},
	}
}

// Compute is Calculate guarded by its preconditions. It reports false, with
// no result, when there are no assets or either rate input is unavailable.
func Compute(assets []models.Asset, table *models.ExchangeRateTable, quote *models.GoldPriceQuote) (*models.ZakahResult, bool) {
	if len(assets) == 0 || table == nil || quote == nil || !quote.PricePerGram.IsPositive() {
		return nil, false
	}
	r := Calculate(assets, table, quote)
	return &r, true
}

// convertAll expresses amount in every supported currency. A currency
// without a usable rate gets zero.
func convertAll(amount decimal.Decimal, table *models.ExchangeRateTable) map[models.Currency]decimal.Decimal {
	out := make(map[models.Currency]decimal.Decimal, len(models.SupportedCurrencies))
	for _, c := range models.SupportedCurrencies {
		if c == models.ReferenceCurrency {
			out[c] = amount
			continue
		}
		if table == nil {
			out[c] = decimal.Zero
			continue
		}
		rate, ok := table.Rate(c)
		if !ok {
			out[c] = decimal.Zero
			continue
		}
		out[c] = amount.Mul(rate)
	}
	return out
}
