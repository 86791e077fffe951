// Package strategy partitions analyzed snapshots into ordered buckets.
package strategy

import (
	"sort"

	"github.com/eduardosasso/bullish/internal/model"
)

// bucketRule is one row of the categorization table.
type bucketRule struct {
	Bucket model.Bucket
	Match  func(s *model.Snapshot) bool
	// Less orders matched snapshots; ties fall back to ticker.
	Less func(a, b *model.Snapshot) bool
	Cap  int
}

func (r Rules) table() []bucketRule {
	return []bucketRule{
		{
			Bucket: model.BucketWatchlist,
			Match:  func(s *model.Snapshot) bool { return s.PctFromATH <= r.ATHThreshold },
			Less:   func(a, b *model.Snapshot) bool { return a.PctFromATH < b.PctFromATH },
		},
		{
			Bucket: model.BucketBigDrops,
			Match:  func(s *model.Snapshot) bool { return s.Change1d <= -r.BigMovePct },
			Less:   func(a, b *model.Snapshot) bool { return a.Change1d < b.Change1d },
		},
		{
			Bucket: model.BucketBigGains,
			Match:  func(s *model.Snapshot) bool { return s.Change1d >= r.BigMovePct },
			Less:   func(a, b *model.Snapshot) bool { return a.Change1d > b.Change1d },
		},
		{
			Bucket: model.BucketDownStreaks,
			Match:  func(s *model.Snapshot) bool { return s.Streak < -r.StreakMin },
			Less:   func(a, b *model.Snapshot) bool { return a.Streak < b.Streak },
			Cap:    r.StreakCap,
		},
		{
			Bucket: model.BucketUpStreaks,
			Match:  func(s *model.Snapshot) bool { return s.Streak > r.StreakMin },
			Less:   func(a, b *model.Snapshot) bool { return a.Streak > b.Streak },
			Cap:    r.StreakCap,
		},
		{
			Bucket: model.BucketParabolic,
			Match: func(s *model.Snapshot) bool {
				return s.ROC30d > r.ParabolicROC && s.RSI > r.ParabolicRSI
			},
			Less: func(a, b *model.Snapshot) bool { return a.ROC30d > b.ROC30d },
		},
	}
}

// Categorize evaluates every bucket predicate independently, sorts each
// bucket and applies caps after sorting. The result does not depend on the
// order of snaps. Timestamp and benchmark return are left for the caller.
func Categorize(snaps []model.Snapshot, rules Rules) model.ScanOutcome {
	out := model.ScanOutcome{TotalStocks: len(snaps)}
	for _, rule := range rules.table() {
		*out.List(rule.Bucket) = apply(rule, snaps)
	}
	return out
}

func apply(rule bucketRule, snaps []model.Snapshot) []model.Snapshot {
	matched := make([]model.Snapshot, 0)
	for i := range snaps {
		if rule.Match(&snaps[i]) {
			matched = append(matched, snaps[i])
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := &matched[i], &matched[j]
		if rule.Less(a, b) {
			return true
		}
		if rule.Less(b, a) {
			return false
		}
		return a.Ticker < b.Ticker
	})

	if rule.Cap > 0 && len(matched) > rule.Cap {
		matched = matched[:rule.Cap]
	}
	return matched
}
