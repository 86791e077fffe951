package calculator

import "math"

// CalculateATH returns the highest close in the history window, 0 for an empty series.
func CalculateATH(closes []float64) float64 {
	if len(closes) == 0 {
		return 0
	}
	high := math.Inf(-1)
	for _, c := range closes {
		if c > high {
			high = c
		}
	}
	return high
}

// IsNearHigh reports whether current is within (1-proximity) of high.
// With proximity 0.98 a price 2% under the high still counts.
func IsNearHigh(current, high, proximity float64) bool {
	if high <= 0 {
		return false
	}
	return current >= high*proximity
}

// PctChange returns the signed percent change from base to value, 0 when either is zero.
func PctChange(base, value float64) float64 {
	if base == 0 || value == 0 {
		return 0
	}
	return (value - base) / base * 100
}
