// Package valueobject holds small immutable values shared across bounded contexts.
package valueobject

import (
	"errors"

	"github.com/shopspring/decimal"
)

// CurrencyBRL is the only currency the POS books in (ISO 4217 numeric 986).
const (
	CurrencyBRL        = "BRL"
	CurrencyBRLNumeric = "986"
)

// CentsPlaces is the number of decimal places stored money is rounded to
const CentsPlaces int32 = 2

var (
	hundred = decimal.NewFromInt(100)
	oneCent = decimal.New(1, -CentsPlaces)
)

// RoundCents rounds half-up to cents
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentsPlaces)
}

// NonNegative clamps d at zero
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// SplitEvenly divides total into n amounts rounded down to cents.
// The rounding remainder is added to the first part, so the parts always sum to total.
func SplitEvenly(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, errors.New("parts must be positive")
	}
	if total.IsNegative() {
		return nil, errors.New("total cannot be negative")
	}
	total = RoundCents(total)
	count := decimal.NewFromInt(int64(n))
	base := total.Div(count).RoundDown(CentsPlaces)
	remainder := total.Sub(base.Mul(count))

	parts := make([]decimal.Decimal, n)
	for i := range parts {
		parts[i] = base
	}
	parts[0] = parts[0].Add(remainder)
	return parts, nil
}

// Percentage returns part/whole*100 rounded to two places, or zero when whole is zero
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// ProRate returns amount*weight/total rounded to cents, used to spread a
// sale-level discount across its items.
func ProRate(amount, weight, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return RoundCents(amount.Mul(weight).Div(total))
}

// IsCentPrecise reports whether d has no fractional cents
func IsCentPrecise(d decimal.Decimal) bool {
	return d.Mod(oneCent).IsZero()
}
