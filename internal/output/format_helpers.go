package output

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// FormatCurrency formats a decimal as USD currency with 2 decimals.
// Negative amounts render as -$12.34.
func FormatCurrency(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Neg().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}

// FormatPercentage formats a decimal as a percentage with 2 decimals.
func FormatPercentage(amount decimal.Decimal) string { return amount.StringFixed(2) + "%" }

// Money formats a float equity amount as currency.
func Money(v float64) string { return FormatCurrency(decimal.NewFromFloat(v)) }

// Percent formats a float percentage with 2 decimals.
func Percent(v float64) string { return FormatPercentage(decimal.NewFromFloat(v)) }

// Fixed formats v with the given number of decimals.
func Fixed(v float64, places int32) string { return decimal.NewFromFloat(v).StringFixed(places) }

// Ratio formats an optional ratio; undefined ratios render as "n/a".
func Ratio(r *float64) string {
	if r == nil {
		return "n/a"
	}
	return Fixed(*r, 2)
}

func intToString(v int) string { return strconv.Itoa(v) }
