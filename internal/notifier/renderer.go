package notifier

import (
	"errors"

	"github.com/eduardosasso/bullish/internal/model"
)

// Renderer presents a scan outcome.
type Renderer interface {
	Render(o *model.ScanOutcome) error
}

// Multi renders to every renderer and joins their errors.
type Multi []Renderer

func (m Multi) Render(o *model.ScanOutcome) error {
	var errs []error
	for _, r := range m {
		if err := r.Render(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Summary holds the headline counts of an outcome.
type Summary struct {
	Total  int
	Buy    int
	Watch  int
	Counts map[model.Bucket]int
}

// Summarize counts oscillator signals over the distinct bucketed tickers.
func Summarize(o *model.ScanOutcome) Summary {
	s := Summary{Total: o.TotalStocks, Counts: make(map[model.Bucket]int, len(model.Buckets))}
	for _, b := range model.Buckets {
		s.Counts[b] = len(*o.List(b))
	}
	for _, snap := range o.Unique(model.Buckets...) {
		switch {
		case snap.RSI < 30:
			s.Buy++
		case snap.RSI < 40:
			s.Watch++
		}
	}
	return s
}

// bucketTitles are the display headings per bucket.
var bucketTitles = map[model.Bucket]string{
	model.BucketWatchlist:   "📉 WATCHLIST - 20%+ Below ATH",
	model.BucketBigDrops:    "🔻 BIG DROPS - Down 5%+ Today",
	model.BucketBigGains:    "🔺 BIG GAINS - Up 5%+ Today",
	model.BucketDownStreaks: "🔴 DOWN STREAKS - 3+ Days",
	model.BucketUpStreaks:   "🟢 UP STREAKS - 3+ Days",
	model.BucketParabolic:   "🚀 PARABOLIC - Strong Momentum",
}

// Title returns the display heading of b.
func Title(b model.Bucket) string {
	if t, ok := bucketTitles[b]; ok {
		return t
	}
	return string(b)
}
