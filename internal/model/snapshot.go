package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Signal labels derived from the oscillator.
const (
	SignalBuy   = "BUY"
	SignalWatch = "WATCH"
	SignalSell  = "SELL"
	SignalNone  = "-"
)

// Snapshot is the per-ticker result of one scan.
type Snapshot struct {
	Ticker     string
	Name       string
	Sector     string
	Price      float64
	ATH        float64
	MarketCap  decimal.Decimal
	PctFromATH float64
	Change1d   float64
	Streak     int
	RSI        float64
	ROC30d     float64
	RSVsBench  float64
	VolSurge   float64
	PctVs50DMA float64
	Is52wHigh  bool
	Signal     string

	// Advisory fields.
	Assessment string
	FairValue  float64
	Upside     float64
	Rating     string
	FVVsATH    float64
}

// Bucket names a categorized list within a ScanOutcome.
type Bucket string

const (
	BucketWatchlist   Bucket = "watchlist"
	BucketBigDrops    Bucket = "big_drops"
	BucketBigGains    Bucket = "big_gains"
	BucketDownStreaks Bucket = "down_streaks"
	BucketUpStreaks   Bucket = "up_streaks"
	BucketParabolic   Bucket = "parabolic"
)

// Buckets lists every bucket in precedence order.
var Buckets = []Bucket{
	BucketWatchlist,
	BucketBigDrops,
	BucketBigGains,
	BucketDownStreaks,
	BucketUpStreaks,
	BucketParabolic,
}

// AdvisoryBuckets are the buckets whose members are sent to the advisor.
var AdvisoryBuckets = []Bucket{BucketWatchlist, BucketBigDrops, BucketDownStreaks}

// ScanOutcome is the categorized result of one scan run.
type ScanOutcome struct {
	Timestamp       time.Time
	BenchmarkReturn float64
	TotalStocks     int
	Watchlist       []Snapshot
	BigDrops        []Snapshot
	BigGains        []Snapshot
	DownStreaks     []Snapshot
	UpStreaks       []Snapshot
	Parabolic       []Snapshot
}

// List returns a pointer to the slice backing the named bucket.
func (o *ScanOutcome) List(b Bucket) *[]Snapshot {
	switch b {
	case BucketWatchlist:
		return &o.Watchlist
	case BucketBigDrops:
		return &o.BigDrops
	case BucketBigGains:
		return &o.BigGains
	case BucketDownStreaks:
		return &o.DownStreaks
	case BucketUpStreaks:
		return &o.UpStreaks
	case BucketParabolic:
		return &o.Parabolic
	}
	return nil
}

// Unique returns the snapshots of the given buckets, first occurrence per ticker wins.
func (o *ScanOutcome) Unique(buckets ...Bucket) []Snapshot {
	seen := make(map[string]struct{})
	var out []Snapshot
	for _, b := range buckets {
		list := o.List(b)
		if list == nil {
			continue
		}
		for _, s := range *list {
			if _, ok := seen[s.Ticker]; ok {
				continue
			}
			seen[s.Ticker] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
