package calculator

import "github.com/eduardosasso/bullish/internal/model"

// DefaultRSI is the neutral oscillator value used when there is nothing to measure.
const DefaultRSI = 50.0

// CalculateRSI computes the oscillator from the simple averages of gains and
// losses over the last period day-over-day changes.
// Returns DefaultRSI when fewer than period+1 closes exist or the window is flat.
func CalculateRSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return DefaultRSI
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change // make positive
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	switch {
	case avgGain == 0 && avgLoss == 0:
		return DefaultRSI
	case avgLoss == 0:
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// SignalLabel maps an oscillator value to a coarse action label.
func SignalLabel(rsi float64) string {
	switch {
	case rsi < 30:
		return model.SignalBuy
	case rsi < 40:
		return model.SignalWatch
	case rsi > 70:
		return model.SignalSell
	default:
		return model.SignalNone
	}
}
