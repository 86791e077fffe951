package strategy

// Rules holds the bucket thresholds. Percent values are signed percentages,
// so ATHThreshold -20 means 20% below the all-time high.
type Rules struct {
	ATHThreshold float64
	BigMovePct   float64
	StreakMin    int
	StreakCap    int
	ParabolicROC float64
	ParabolicRSI float64
}

// DefaultRules returns the standard thresholds.
func DefaultRules() Rules {
	return Rules{
		ATHThreshold: -20,
		BigMovePct:   5,
		StreakMin:    2,
		StreakCap:    15,
		ParabolicROC: 15,
		ParabolicRSI: 55,
	}
}
