package models

import "github.com/shopspring/decimal"

// ZakahBreakdown splits the total by asset kind.
type ZakahBreakdown struct {
	GoldValue     decimal.Decimal `json:"goldValue"`
	CurrencyValue decimal.Decimal `json:"currencyValue"`
}

// ZakahResult is derived from assets and rates and never stored on its own.
// All reference-currency values are in ReferenceCurrency.
type ZakahResult struct {
	ReferenceCurrency   Currency                     `json:"referenceCurrency"`
	TotalValue          decimal.Decimal              `json:"totalValue"`
	NisabThresholdValue decimal.Decimal              `json:"nisabValue"`
	IsAboveThreshold    bool                         `json:"isAboveNisab"`
	TaxAmount           decimal.Decimal              `json:"zakahAmount"`
	TaxAmountByCurrency map[Currency]decimal.Decimal `json:"zakahAmounts"`
	Breakdown           ZakahBreakdown               `json:"breakdown"`
}
