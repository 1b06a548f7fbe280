// Package money renders integer minor units for display. Arithmetic on amounts
// stays in cents everywhere else.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var symbols = map[string]string{
	"USD": "$",
	"CAD": "CA$",
	"AUD": "A$",
	"EUR": "€",
	"GBP": "£",
}

// Format renders cents as a currency string, e.g. 2200 USD -> "$22.00".
// Unknown currencies fall back to a code suffix.
func Format(cents int64, currency string) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	code := strings.ToUpper(currency)
	sym, ok := symbols[code]
	if !ok {
		return amount + " " + code
	}
	if strings.HasPrefix(amount, "-") {
		return "-" + sym + amount[1:]
	}
	return sym + amount
}

type Amount struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func NewAmount(cents int64, currency string) Amount {
	return Amount{Cents: cents, Formatted: Format(cents, currency)}
}
