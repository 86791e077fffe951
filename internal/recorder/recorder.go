package recorder

import "github.com/eduardosasso/bullish/internal/model"

// ScanRow summarizes one recorded scan.
type ScanRow struct {
	RunID           string
	Timestamp       int64
	BenchmarkReturn float64
	TotalStocks     int
	Counts          map[model.Bucket]int
	JSONPath        string
}

// Recorder persists scan history for later analysis.
type Recorder interface {
	RecordScan(runID string, o *model.ScanOutcome, a Artifacts) error
	RecentScans(limit int) ([]ScanRow, error)
	Close() error
}
