package service

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// sum adds the amounts of items with decimal arithmetic.
func sum[T any](items []T, amount func(T) float64) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(amount(item)))
	}
	return total
}

// cents rounds d to two places and returns it as a float.
func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// percent returns part / whole × 100 rounded to two places, or 0 when whole is zero.
func percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return cents(part.Div(whole).Mul(hundred))
}
