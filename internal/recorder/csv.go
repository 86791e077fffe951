package recorder

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/eduardosasso/bullish/internal/model"
)

// csvHeader mirrors the JSON field names of a snapshot.
var csvHeader = []string{
	"ticker", "name", "price", "ath", "market_cap", "sector",
	"pct_from_ath", "change_1d", "streak", "rsi", "roc_30d", "rs_vs_qqq",
	"vol_surge", "pct_vs_50dma", "is_52w_high", "signal",
	"ai_assessment", "fair_value", "upside", "rating", "fv_vs_ath",
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func csvRow(r snapshotRecord) []string {
	return []string{
		r.Ticker, r.Name, formatFloat(r.Price), formatFloat(r.ATH), formatFloat(r.MarketCap), r.Sector,
		formatFloat(r.PctFromATH), formatFloat(r.Change1d), strconv.Itoa(r.Streak), formatFloat(r.RSI),
		formatFloat(r.ROC30d), formatFloat(r.RSVsBench), formatFloat(r.VolSurge), formatFloat(r.PctVs50DMA),
		strconv.FormatBool(r.Is52wHigh), r.Signal,
		r.Assessment, formatFloat(r.FairValue), formatFloat(r.Upside), r.Rating, formatFloat(r.FVVsATH),
	}
}

// EncodeCSV writes one row per distinct ticker across all buckets. The first
// occurrence in bucket precedence order wins.
func EncodeCSV(o *model.ScanOutcome) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range o.Unique(model.Buckets...) {
		if err := w.Write(csvRow(toRecord(s))); err != nil {
			return nil, fmt.Errorf("write csv row %s: %w", s.Ticker, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
