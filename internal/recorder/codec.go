package recorder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eduardosasso/bullish/internal/model"
)

// snapshotRecord is the on-disk shape of a model.Snapshot. Every field is a
// plain scalar so snapshot files stay readable by other tools.
type snapshotRecord struct {
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	ATH        float64 `json:"ath"`
	MarketCap  float64 `json:"market_cap"`
	Sector     string  `json:"sector"`
	PctFromATH float64 `json:"pct_from_ath"`
	Change1d   float64 `json:"change_1d"`
	Streak     int     `json:"streak"`
	RSI        float64 `json:"rsi"`
	ROC30d     float64 `json:"roc_30d"`
	RSVsBench  float64 `json:"rs_vs_qqq"`
	VolSurge   float64 `json:"vol_surge"`
	PctVs50DMA float64 `json:"pct_vs_50dma"`
	Is52wHigh  bool    `json:"is_52w_high"`
	Signal     string  `json:"signal"`
	Assessment string  `json:"ai_assessment"`
	FairValue  float64 `json:"fair_value"`
	Upside     float64 `json:"upside"`
	Rating     string  `json:"rating"`
	FVVsATH    float64 `json:"fv_vs_ath"`
}

// outcomeRecord is the on-disk shape of a model.ScanOutcome.
type outcomeRecord struct {
	Timestamp       string           `json:"timestamp"`
	BenchmarkReturn float64          `json:"qqq_30d_return"`
	TotalStocks     int              `json:"total_stocks"`
	Watchlist       []snapshotRecord `json:"watchlist"`
	BigDrops        []snapshotRecord `json:"big_drops"`
	BigGains        []snapshotRecord `json:"big_gains"`
	DownStreaks     []snapshotRecord `json:"down_streaks"`
	UpStreaks       []snapshotRecord `json:"up_streaks"`
	Parabolic       []snapshotRecord `json:"parabolic"`
}

// timestampLayouts are tried in order when decoding. The second accepts
// timestamps written without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func toRecord(s model.Snapshot) snapshotRecord {
	return snapshotRecord{
		Ticker:     s.Ticker,
		Name:       s.Name,
		Price:      s.Price,
		ATH:        s.ATH,
		MarketCap:  s.MarketCap.InexactFloat64(),
		Sector:     s.Sector,
		PctFromATH: s.PctFromATH,
		Change1d:   s.Change1d,
		Streak:     s.Streak,
		RSI:        s.RSI,
		ROC30d:     s.ROC30d,
		RSVsBench:  s.RSVsBench,
		VolSurge:   s.VolSurge,
		PctVs50DMA: s.PctVs50DMA,
		Is52wHigh:  s.Is52wHigh,
		Signal:     s.Signal,
		Assessment: s.Assessment,
		FairValue:  s.FairValue,
		Upside:     s.Upside,
		Rating:     s.Rating,
		FVVsATH:    s.FVVsATH,
	}
}

func fromRecord(r snapshotRecord) model.Snapshot {
	return model.Snapshot{
		Ticker:     r.Ticker,
		Name:       r.Name,
		Sector:     r.Sector,
		Price:      r.Price,
		ATH:        r.ATH,
		MarketCap:  decimal.NewFromFloat(r.MarketCap),
		PctFromATH: r.PctFromATH,
		Change1d:   r.Change1d,
		Streak:     r.Streak,
		RSI:        r.RSI,
		ROC30d:     r.ROC30d,
		RSVsBench:  r.RSVsBench,
		VolSurge:   r.VolSurge,
		PctVs50DMA: r.PctVs50DMA,
		Is52wHigh:  r.Is52wHigh,
		Signal:     r.Signal,
		Assessment: r.Assessment,
		FairValue:  r.FairValue,
		Upside:     r.Upside,
		Rating:     r.Rating,
		FVVsATH:    r.FVVsATH,
	}
}

func toRecords(list []model.Snapshot) []snapshotRecord {
	out := make([]snapshotRecord, len(list))
	for i, s := range list {
		out[i] = toRecord(s)
	}
	return out
}

func fromRecords(list []snapshotRecord) []model.Snapshot {
	out := make([]model.Snapshot, len(list))
	for i, r := range list {
		out[i] = fromRecord(r)
	}
	return out
}

// Encode serializes o as indented JSON.
func Encode(o *model.ScanOutcome) ([]byte, error) {
	rec := outcomeRecord{
		Timestamp:       o.Timestamp.Format(time.RFC3339Nano),
		BenchmarkReturn: o.BenchmarkReturn,
		TotalStocks:     o.TotalStocks,
		Watchlist:       toRecords(o.Watchlist),
		BigDrops:        toRecords(o.BigDrops),
		BigGains:        toRecords(o.BigGains),
		DownStreaks:     toRecords(o.DownStreaks),
		UpStreaks:       toRecords(o.UpStreaks),
		Parabolic:       toRecords(o.Parabolic),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal outcome: %w", err)
	}
	return data, nil
}

// Decode rebuilds a ScanOutcome from Encode output.
func Decode(data []byte) (*model.ScanOutcome, error) {
	var rec outcomeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal outcome: %w", err)
	}
	ts, err := parseTimestamp(rec.Timestamp)
	if err != nil {
		return nil, err
	}
	return &model.ScanOutcome{
		Timestamp:       ts,
		BenchmarkReturn: rec.BenchmarkReturn,
		TotalStocks:     rec.TotalStocks,
		Watchlist:       fromRecords(rec.Watchlist),
		BigDrops:        fromRecords(rec.BigDrops),
		BigGains:        fromRecords(rec.BigGains),
		DownStreaks:     fromRecords(rec.DownStreaks),
		UpStreaks:       fromRecords(rec.UpStreaks),
		Parabolic:       fromRecords(rec.Parabolic),
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
