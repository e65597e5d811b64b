package models

import "strings"

// Currency is an ISO 4217 code from the supported set.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencySYP Currency = "SYP"
	CurrencyTRY Currency = "TRY"
	CurrencyAED Currency = "AED"
	CurrencySAR Currency = "SAR"
)

// ReferenceCurrency is the currency every value is normalized to.
const ReferenceCurrency = CurrencyUSD

// SupportedCurrencies lists the currencies holdings may be declared in and
// the tax amount is reported in, reference currency first.
var SupportedCurrencies = []Currency{
	CurrencyUSD,
	CurrencyEUR,
	CurrencySYP,
	CurrencyTRY,
	CurrencyAED,
	CurrencySAR,
}

// IsSupported reports whether c belongs to the supported set.
func (c Currency) IsSupported() bool {
	for _, s := range SupportedCurrencies {
		if s == c {
			return true
		}
	}
	return false
}

// ParseCurrency normalizes s to upper case and returns it if supported.
func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsSupported() {
		return "", false
	}
	return c, true
}
