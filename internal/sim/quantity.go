package sim

import (
	"math"

	"github.com/shopspring/decimal"
)

// minPrice is the floor applied to prices before they enter ratio math.
const minPrice = 0.01

// SafeFloat coerces NaN and infinities to zero so degenerate inputs never
// propagate through demand math.
func SafeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Float bridges a decimal amount into float math, guarding degenerate values.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return SafeFloat(f)
}

// PositivePrice floors a price to a strictly positive value to avoid
// division errors.
func PositivePrice(p float64) float64 {
	p = SafeFloat(p)
	if p <= 0 {
		return minPrice
	}
	return p
}

// ClampUnits floors a unit count at zero.
func ClampUnits(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// UnitsDecimal converts a unit count to a decimal multiplier.
func UnitsDecimal(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
