package recorder

import "github.com/eduardosasso/bullish/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ string, _ *model.ScanOutcome, _ Artifacts) error { return nil }
func (n *NoopRecorder) RecentScans(_ int) ([]ScanRow, error)                       { return nil, nil }
func (n *NoopRecorder) Close() error                                               { return nil }
