// Package money formats and sums catalog prices.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency applies when the backend omits a currency.
const DefaultCurrency = "USD"

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// NormalizeCurrency upper-cases code and falls back to DefaultCurrency.
func NormalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency
	}
	return code
}

// Format renders amount with two decimals, prefixed by a known symbol or suffixed by the code.
func Format(amount decimal.Decimal, currency string) string {
	currency = NormalizeCurrency(currency)
	fixed := amount.StringFixed(2)
	if symbol, ok := symbols[currency]; ok {
		if amount.IsNegative() {
			return "-" + symbol + strings.TrimPrefix(fixed, "-")
		}
		return symbol + fixed
	}
	return fixed + " " + currency
}

func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, amounts...)
}
