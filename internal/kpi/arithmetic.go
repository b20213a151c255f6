package kpi

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencyPrinter = message.NewPrinter(language.BrazilianPortuguese)

// Percentage returns round(n/d*100), or 0 when d is not positive.
func Percentage(n, d float64) float64 {
	return PercentageN(n, d, 0)
}

// PercentageN is Percentage rounded to the given number of decimals.
func PercentageN(n, d float64, decimals int) float64 {
	if d <= 0 || !finite(n) || !finite(d) {
		return 0
	}
	return Round(n/d*100, decimals)
}

// Ratio divides n by d, yielding 0 when d is not positive.
func Ratio(n, d float64) float64 {
	if d <= 0 || !finite(n) || !finite(d) {
		return 0
	}
	return n / d
}

// RatioN is Ratio rounded to the given number of decimals.
func RatioN(n, d float64, decimals int) float64 {
	return Round(Ratio(n, d), decimals)
}

// Average returns the arithmetic mean, 0 for an empty slice. Rounding is left to callers.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Sum adds values, skipping NaN and infinities.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		if finite(v) {
			total += v
		}
	}
	return total
}

// Round rounds half away from zero to the given decimals.
func Round(v float64, decimals int) float64 {
	if !finite(v) {
		return 0
	}
	if decimals <= 0 {
		return math.Round(v)
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Round1 rounds to one decimal.
func Round1(v float64) float64 { return Round(v, 1) }

// Round2 rounds to two decimals.
func Round2(v float64) float64 { return Round(v, 2) }

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if !finite(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// ClampRate bounds a percentage to [0, 100].
func ClampRate(v float64) float64 {
	return Clamp(v, 0, 100)
}

// ChangePct is the signed percentage change from prev to cur, 0 when prev is 0.
func ChangePct(prev, cur float64) float64 {
	if prev == 0 || !finite(prev) || !finite(cur) {
		return 0
	}
	return Round2((cur - prev) / math.Abs(prev) * 100)
}

// Defined reports whether an optional numeric is present and positive. It is the only
// gate for optional fields entering averages and sums.
func Defined(p *float64) bool {
	return p != nil && finite(*p) && *p > 0
}

// Value dereferences p, treating nil as 0.
func Value(p *float64) float64 {
	if p == nil || !finite(*p) {
		return 0
	}
	return *p
}

// DefinedValues collects the defined-and-positive values of an optional field.
func DefinedValues[T any](records []T, field func(T) *float64) []float64 {
	out := make([]float64, 0, len(records))
	for _, record := range records {
		if p := field(record); Defined(p) {
			out = append(out, *p)
		}
	}
	return out
}

// Quantity returns the defined quantity or 1 when absent.
func Quantity(p *float64) float64 {
	if Defined(p) {
		return *p
	}
	return 1
}

// Currency formats amount as a Brazilian real display string.
func Currency(amount float64) string {
	if !finite(amount) {
		amount = 0
	}
	rounded := decimal.NewFromFloat(amount).Round(2).InexactFloat64()
	return currencyPrinter.Sprintf("R$ %.2f", rounded)
}

// Float returns a pointer to v, handy for building optional fields.
func Float(v float64) *float64 {
	return &v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
