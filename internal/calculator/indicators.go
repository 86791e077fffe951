package calculator

// Params configures the lookback windows used by Compute.
type Params struct {
	RSIPeriod     int
	ROCPeriod     int
	VolumeWindow  int
	MAWindow      int
	HighProximity float64
}

// DefaultParams returns the standard 14/30/20/50 windows and a 2% high proximity.
func DefaultParams() Params {
	return Params{
		RSIPeriod:     14,
		ROCPeriod:     30,
		VolumeWindow:  20,
		MAWindow:      50,
		HighProximity: 0.98,
	}
}

// Indicators holds every metric derived from one security's history.
type Indicators struct {
	ATH        float64
	PctFromATH float64
	Change1d   float64
	Streak     int
	RSI        float64
	ROC        float64
	RSVsBench  float64
	VolSurge   float64
	PctVsMA    float64
	Is52wHigh  bool
	Signal     string
}

// Compute derives all indicators from closes and volumes (oldest first),
// the live price and the benchmark return over the same ROC window.
func Compute(closes, volumes []float64, current, benchmarkReturn float64, p Params) Indicators {
	ath := CalculateATH(closes)
	rsi := CalculateRSI(closes, p.RSIPeriod)
	roc := CalculateROC(closes, current, p.ROCPeriod)

	ind := Indicators{
		ATH:       ath,
		Change1d:  Change1d(closes, current),
		Streak:    CalculateStreak(closes),
		RSI:       rsi,
		ROC:       roc,
		RSVsBench: RelativeStrength(roc, benchmarkReturn),
		VolSurge:  VolumeSurge(volumes, p.VolumeWindow),
		PctVsMA:   PctVsMA(closes, current, p.MAWindow),
		Is52wHigh: IsNearHigh(current, ath, p.HighProximity),
		Signal:    SignalLabel(rsi),
	}
	if ath != 0 {
		ind.PctFromATH = (current - ath) / ath * 100
	}
	return ind
}
