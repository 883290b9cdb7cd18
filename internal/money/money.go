// Package money formats minor-unit amounts for display. All arithmetic in
// the storefront stays in int64 minor units; this package only renders.
package money

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const Symbol = "₦"

// Format renders 123450 as "₦1,234.50" and 8500 as "₦85".
func Format(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	fixed := decimal.New(minor, -2).StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, _ := strconv.ParseInt(whole, 10, 64)

	out := sign + Symbol + humanize.Comma(n)
	if frac != "00" {
		out += "." + frac
	}
	return out
}
