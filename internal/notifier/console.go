package notifier

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/eduardosasso/bullish/internal/model"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// cell is a plain value plus the function that colors it after padding.
type cell struct {
	text  string
	paint func(a ...interface{}) string
	right bool
}

type column struct {
	name  string
	right bool
	value func(s model.Snapshot) cell
}

// ConsoleRenderer prints colored bucket tables.
type ConsoleRenderer struct {
	w io.Writer
}

// NewConsoleRenderer writes to w, or stdout when w is nil.
func NewConsoleRenderer(w io.Writer) *ConsoleRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleRenderer{w: w}
}

func (c *ConsoleRenderer) Render(o *model.ScanOutcome) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n", cyan("BULLISH SCANNER"), dim(o.Timestamp.Format("2006-01-02 15:04")))
	fmt.Fprintf(&b, "%s\n", dim(fmt.Sprintf("Benchmark 30-day return: %+.1f%%", o.BenchmarkReturn)))

	for _, bucket := range model.Buckets {
		b.WriteString("\n")
		renderTable(&b, Title(bucket), *o.List(bucket), columnsFor(bucket), isAdvisory(bucket))
	}

	b.WriteString("\n")
	renderSummary(&b, Summarize(o))

	_, err := io.WriteString(c.w, b.String())
	return err
}

func isAdvisory(b model.Bucket) bool {
	for _, a := range model.AdvisoryBuckets {
		if a == b {
			return true
		}
	}
	return false
}

func renderTable(b *strings.Builder, title string, snaps []model.Snapshot, cols []column, notes bool) {
	if len(snaps) == 0 {
		fmt.Fprintf(b, "%s\n", dim("No stocks in "+title))
		return
	}

	rows := make([][]cell, len(snaps))
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = utf8.RuneCountInString(col.name)
	}
	for r, s := range snaps {
		rows[r] = make([]cell, len(cols))
		for i, col := range cols {
			c := col.value(s)
			c.right = col.right
			rows[r][i] = c
			if n := utf8.RuneCountInString(c.text); n > widths[i] {
				widths[i] = n
			}
		}
	}

	fmt.Fprintf(b, "%s\n", bold(title))
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = cyan(pad(col.name, widths[i], col.right))
	}
	b.WriteString(strings.Join(header, "  ") + "\n")

	for _, row := range rows {
		parts := make([]string, len(row))
		for i, c := range row {
			text := pad(c.text, widths[i], c.right)
			if c.paint != nil {
				text = c.paint(text)
			}
			parts[i] = text
		}
		b.WriteString(strings.Join(parts, "  ") + "\n")
	}

	if !notes {
		return
	}
	for _, s := range snaps {
		if s.Assessment == "" {
			continue
		}
		fmt.Fprintf(b, "  %s %s%s\n", bold(s.Ticker), dim("└ "), verdict(s.Assessment))
	}
}

func renderSummary(b *strings.Builder, s Summary) {
	fmt.Fprintf(b, "%s\n", bold("📈 SUMMARY"))
	line := func(label, value string) {
		fmt.Fprintf(b, "  %-22s %s\n", label, value)
	}
	line("Total stocks analyzed", bold(fmt.Sprint(s.Total)))
	line("RSI < 30 (BUY)", green(fmt.Sprint(s.Buy)))
	line("RSI 30-40 (WATCH)", yellow(fmt.Sprint(s.Watch)))
	for _, bucket := range model.Buckets {
		line(strings.ReplaceAll(string(bucket), "_", " "), fmt.Sprint(s.Counts[bucket]))
	}
}

// verdict highlights a leading BUY/WAIT/PASS/SELL keyword.
func verdict(note string) string {
	upper := strings.ToUpper(note)
	for _, kw := range []string{"BUY", "SELL", "WAIT", "PASS"} {
		if strings.HasPrefix(upper, kw) {
			paint := red
			if kw == "BUY" {
				paint = green
			}
			return paint(note[:len(kw)]) + dim(note[len(kw):])
		}
	}
	return dim(note)
}

func pad(s string, width int, right bool) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

func signedPct(v float64, decimals int) cell {
	paint := green
	if v < 0 {
		paint = red
	}
	return cell{text: fmt.Sprintf("%+.*f%%", decimals, v), paint: paint}
}

func dash() cell { return cell{text: "—", paint: dim} }

func price(v float64) cell {
	return cell{text: "$" + thousands(v), paint: bold}
}

// thousands formats v rounded to an integer with comma separators.
func thousands(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := fmt.Sprintf("%.0f", v)
	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

func rsiCell(rsi float64) cell {
	text := fmt.Sprintf("%.0f", rsi)
	switch {
	case rsi < 30:
		return cell{text: text, paint: green}
	case rsi < 40:
		return cell{text: text, paint: yellow}
	case rsi > 70:
		return cell{text: text, paint: red}
	}
	return cell{text: text}
}

func ratingCell(rating string) cell {
	if rating == "" {
		return dash()
	}
	text := strings.ToUpper(rating)
	switch strings.ToLower(rating) {
	case "buy", "strong_buy", "strongbuy":
		return cell{text: text, paint: green}
	case "hold", "neutral":
		return cell{text: text, paint: yellow}
	case "sell", "strong_sell", "strongsell", "underperform":
		return cell{text: text, paint: red}
	}
	return cell{text: text, paint: dim}
}

func streakCell(streak int) cell {
	switch {
	case streak > 0:
		return cell{text: fmt.Sprintf("↑%d", streak), paint: green}
	case streak < 0:
		return cell{text: fmt.Sprintf("↓%d", -streak), paint: red}
	}
	return dash()
}

func optionalPct(v float64) cell {
	if v == 0 {
		return dash()
	}
	return signedPct(v, 0)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

var (
	colTicker = column{"Ticker", false, func(s model.Snapshot) cell { return cell{text: s.Ticker, paint: bold} }}
	colName   = column{"Name", false, func(s model.Snapshot) cell { return cell{text: truncateRunes(s.Name, 20), paint: dim} }}
	colPrice  = column{"Price", true, func(s model.Snapshot) cell { return price(s.Price) }}
	colATH    = column{"ATH", true, func(s model.Snapshot) cell { return cell{text: "$" + thousands(s.ATH), paint: dim} }}
	colPctATH = column{"%ATH", true, func(s model.Snapshot) cell { return signedPct(s.PctFromATH, 1) }}
	col1d     = column{"1d%", true, func(s model.Snapshot) cell { return signedPct(s.Change1d, 1) }}
	col30d    = column{"30d%", true, func(s model.Snapshot) cell { return signedPct(s.ROC30d, 1) }}
	colStreak = column{"Streak", true, func(s model.Snapshot) cell { return streakCell(s.Streak) }}
	colFV     = column{"FV", true, func(s model.Snapshot) cell {
		if s.FairValue == 0 {
			return dash()
		}
		return price(s.FairValue)
	}}
	colUpside = column{"%FV", true, func(s model.Snapshot) cell { return optionalPct(s.Upside) }}
	colFVATH  = column{"FV%ATH", true, func(s model.Snapshot) cell { return optionalPct(s.FVVsATH) }}
	colRating = column{"Rating", false, func(s model.Snapshot) cell { return ratingCell(s.Rating) }}
	colRSI    = column{"RSI", true, func(s model.Snapshot) cell { return rsiCell(s.RSI) }}
	colSignal = column{"Signal", false, func(s model.Snapshot) cell { return cell{text: s.Signal} }}
)

func columnsFor(b model.Bucket) []column {
	var middle []column
	switch b {
	case model.BucketWatchlist:
		middle = []column{colATH, colPctATH}
	case model.BucketBigDrops, model.BucketBigGains:
		middle = []column{colPctATH, col1d}
	case model.BucketDownStreaks, model.BucketUpStreaks:
		middle = []column{colPctATH, colStreak}
	default:
		middle = []column{colPctATH, col30d}
	}
	cols := []column{colTicker, colName, colPrice}
	cols = append(cols, middle...)
	return append(cols, colFV, colUpside, colFVATH, colRating, colRSI, colSignal)
}
