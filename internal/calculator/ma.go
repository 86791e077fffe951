package calculator

import "errors"

// CalculateSMA computes the simple moving average of the given values over the specified period.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// PctVsMA returns the percent difference between current and the trailing
// window-period average of closes. Returns 0 when fewer than window closes exist.
func PctVsMA(closes []float64, current float64, window int) float64 {
	ma, err := CalculateSMA(closes, window)
	if err != nil || ma == 0 {
		return 0
	}
	return PctChange(ma, current)
}

// VolumeSurge divides the most recent volume by the trailing window average.
// The average covers whatever is available when the history is shorter than window.
// Returns 1 when the average is zero or undefined.
func VolumeSurge(volumes []float64, window int) float64 {
	n := len(volumes)
	if n == 0 || window <= 0 {
		return 1
	}
	if window > n {
		window = n
	}
	avg, err := CalculateSMA(volumes, window)
	if err != nil || avg <= 0 {
		return 1
	}
	return volumes[n-1] / avg
}
