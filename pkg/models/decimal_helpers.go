package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// ToFloat64 safely converts decimal to float64
func ToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// DecimalPtr converts a float into a decimal pointer rounded to cents.
// NaN and infinities have no decimal form and yield nil.
func DecimalPtr(f float64) *decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	d := decimal.NewFromFloat(f).Round(2)
	return &d
}

// NewDecimal converts a float, mapping NaN and infinities to zero
func NewDecimal(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
