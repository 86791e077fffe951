package collector

import (
	"context"

	"github.com/eduardosasso/bullish/internal/calculator"
	"github.com/eduardosasso/bullish/internal/model"
)

// benchmarkRange covers a 30-session lookback with margin.
const benchmarkRange = "3mo"

// BenchmarkReturn returns the period-day return of symbol from its last close.
// Any failure yields 0.
func BenchmarkReturn(ctx context.Context, f Fetcher, symbol string, period int) float64 {
	bars, err := f.FetchHistory(ctx, symbol, benchmarkRange)
	if err != nil || len(bars) < period+1 {
		return 0
	}
	closes := model.Closes(bars)
	return calculator.CalculateROC(closes, closes[len(closes)-1], period)
}
