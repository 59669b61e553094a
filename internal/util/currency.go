package util

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

func init() {
	money.AddCurrency("BTC", "₿", "$1", ".", ",", 8)
	money.AddCurrency("ETH", "Ξ", "$1", ".", ",", 8)
}

// FormatAmount renders amount in the display format of its currency,
// rounded to the currency's minor unit. Unknown currency codes are shown
// with two decimals followed by the code.
func FormatAmount(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	c := money.GetCurrency(code)
	if c == nil {
		return amount.StringFixed(2) + " " + code
	}
	f := c.Formatter()
	minor := amount.Shift(int32(f.Fraction)).Round(0).IntPart()
	return f.Format(minor)
}
