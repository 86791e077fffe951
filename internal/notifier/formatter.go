package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/eduardosasso/bullish/internal/model"
	"github.com/eduardosasso/bullish/internal/recorder"
)

// maxReportRows keeps a Telegram report under the message size limit.
const maxReportRows = 5

// FormatScanReport formats an outcome into a Telegram HTML message.
func FormatScanReport(o *model.ScanOutcome) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Bullish scan</b> | %s\n", o.Timestamp.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Benchmark 30d: %+.1f%%\n", o.BenchmarkReturn))

	for _, bucket := range model.Buckets {
		list := *o.List(bucket)
		if len(list) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n<b>%s</b> (%d)\n", html.EscapeString(Title(bucket)), len(list)))
		for i, s := range list {
			if i == maxReportRows {
				b.WriteString(fmt.Sprintf("  … %d more\n", len(list)-maxReportRows))
				break
			}
			b.WriteString("  " + formatLine(bucket, s) + "\n")
			if s.Assessment != "" {
				b.WriteString(fmt.Sprintf("    └ <i>%s</i>\n", html.EscapeString(s.Assessment)))
			}
		}
	}

	s := Summarize(o)
	b.WriteString(fmt.Sprintf("\n📈 Total %d | BUY %d | WATCH %d", s.Total, s.Buy, s.Watch))
	return b.String()
}

func formatLine(bucket model.Bucket, s model.Snapshot) string {
	var metric string
	switch bucket {
	case model.BucketWatchlist:
		metric = fmt.Sprintf("%+.1f%% ATH", s.PctFromATH)
	case model.BucketBigDrops, model.BucketBigGains:
		metric = fmt.Sprintf("%+.1f%% 1d", s.Change1d)
	case model.BucketDownStreaks, model.BucketUpStreaks:
		metric = fmt.Sprintf("streak %+d", s.Streak)
	default:
		metric = fmt.Sprintf("%+.1f%% 30d", s.ROC30d)
	}
	return fmt.Sprintf("<b>%s</b> $%.2f %s RSI %.0f", html.EscapeString(s.Ticker), s.Price, metric, s.RSI)
}

// FormatHistory lists recent recorded scans.
func FormatHistory(rows []recorder.ScanRow) string {
	if len(rows) == 0 {
		return "No scan history recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent scans</b>\n\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%s | total %d | watch %d | drops %d | gains %d | parabolic %d\n",
			time.Unix(r.Timestamp, 0).Format("2006-01-02 15:04"), r.TotalStocks,
			r.Counts[model.BucketWatchlist], r.Counts[model.BucketBigDrops],
			r.Counts[model.BucketBigGains], r.Counts[model.BucketParabolic]))
	}
	return b.String()
}
