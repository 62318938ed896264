package checkout

import "github.com/shopspring/decimal"

// feeRate is the fixed 15% service fee added to every order subtotal.
var feeRate = decimal.NewFromFloat(0.15)

type Totals struct {
	SubtotalCents int64
	FeeCents      int64
	TotalCents    int64
}

// computeTotals sums the client-supplied line prices and applies the service
// fee. Rounding is half-even on whole cents, which is half-even at two
// decimal places of the currency.
func computeTotals(lines []line) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.PriceCents * int64(l.Quantity)
	}
	fee := decimal.NewFromInt(subtotal).Mul(feeRate).RoundBank(0).IntPart()
	return Totals{
		SubtotalCents: subtotal,
		FeeCents:      fee,
		TotalCents:    subtotal + fee,
	}
}

// Dollars converts a cent amount to its float representation for JSON
// responses. Amounts are always whole cents, so the conversion is exact
// within float64 range.
func Dollars(c int64) float64 {
	f, _ := decimal.NewFromInt(c).Div(cents).Float64()
	return f
}

// Cents converts a dollar amount to whole cents, rounding half-even in case
// the float carries noise beyond two decimal places.
func Cents(d float64) int64 {
	return decimal.NewFromFloat(d).Mul(cents).RoundBank(0).IntPart()
}
