package collector

import (
	"context"
	"strings"
)

// Universe supplies the set of tickers to scan.
type Universe interface {
	Tickers(ctx context.Context) ([]string, error)
}

// DefaultTickers is used when no universe is configured.
var DefaultTickers = []string{
	"AAPL", "MSFT", "NVDA", "GOOGL", "GOOG", "META", "AMZN", "TSLA", "AVGO", "ORCL",
	"ADBE", "CRM", "AMD", "INTC", "QCOM", "TXN", "AMAT", "MU", "LRCX", "KLAC",
	"NFLX", "CSCO", "NOW", "INTU", "PANW", "CRWD", "SNPS", "CDNS", "ANET", "MRVL",
	"ADI", "NXPI", "FTNT", "WDAY", "DDOG", "ZS", "TEAM", "PLTR", "SHOP", "ABNB",
	"BKNG", "UBER", "DASH", "MELI", "PDD", "SBUX", "NKE", "HD", "LOW", "MCD",
	"TMUS", "CMCSA", "DIS", "CHTR", "EA", "TTWO", "WBD", "ADSK", "APP", "MSTR",
}

// StaticUniverse is a fixed ticker list.
type StaticUniverse struct {
	tickers []string
}

// NewStaticUniverse creates a universe from the given symbols, falling back to DefaultTickers.
func NewStaticUniverse(tickers []string) *StaticUniverse {
	if len(tickers) == 0 {
		tickers = DefaultTickers
	}
	return &StaticUniverse{tickers: tickers}
}

// Tickers returns the deduplicated, normalized symbols in their original order.
func (u *StaticUniverse) Tickers(_ context.Context) ([]string, error) {
	return Dedup(u.tickers), nil
}

// Dedup upper-cases symbols, maps class-share dots to dashes and drops blanks and repeats.
func Dedup(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		t = strings.ReplaceAll(t, ".", "-")
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
