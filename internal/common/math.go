package common

import "math"

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Finite replaces NaN and infinities with zero so a bad input contributes
// nothing instead of poisoning an ordering.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Round2 rounds to two decimals for reports and wire payloads.
func Round2(v float64) float64 {
	return math.Round(Finite(v)*100) / 100
}
