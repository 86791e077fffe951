package calculator

// CalculateROC returns the percent change between current and the close n
// periods before the last one. Returns 0 when fewer than n+1 closes exist.
func CalculateROC(closes []float64, current float64, n int) float64 {
	if n <= 0 || len(closes) < n+1 {
		return 0
	}
	base := closes[len(closes)-1-n]
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}

// RelativeStrength is the signed spread between a security's return and the benchmark's.
func RelativeStrength(roc, benchmarkReturn float64) float64 {
	return roc - benchmarkReturn
}

// Change1d returns the percent change between current and the previous close.
func Change1d(closes []float64, current float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	prev := closes[len(closes)-2]
	if prev == 0 {
		return 0
	}
	return (current - prev) / prev * 100
}

// CalculateStreak counts consecutive same-direction daily moves ending at the
// most recent close. Positive values are up streaks, negative values down streaks.
//
// Flat days at the very end are skipped to find the direction; any other flat
// day ends the streak.
func CalculateStreak(closes []float64) int {
	if len(closes) < 2 {
		return 0
	}

	i := len(closes) - 1
	for i > 0 && closes[i] == closes[i-1] {
		i--
	}
	if i == 0 {
		return 0
	}

	direction := 1
	if closes[i] < closes[i-1] {
		direction = -1
	}

	streak := 0
	for ; i > 0; i-- {
		change := closes[i] - closes[i-1]
		if (direction > 0 && change > 0) || (direction < 0 && change < 0) {
			streak += direction
			continue
		}
		break
	}
	return streak
}
