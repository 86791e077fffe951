package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ticker outcomes.
const (
	OutcomeAnalyzed   = "analyzed"
	OutcomeIneligible = "ineligible"
	OutcomeError      = "error"
)

var (
	TickersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bullish_tickers_total",
			Help: "Tickers processed by the scanner, by outcome",
		},
		[]string{"outcome"},
	)
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bullish_scan_duration_seconds",
			Help:    "Wall time of a full universe scan",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)
	BucketSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bullish_bucket_size",
			Help: "Number of securities in each bucket of the last scan",
		},
		[]string{"bucket"},
	)
	AdvisorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bullish_advisor_requests_total",
			Help: "Advisor invocations, by result",
		},
		[]string{"result"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
