// Package scanner analyzes a ticker universe with a bounded worker pool.
package scanner

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/eduardosasso/bullish/internal/calculator"
	"github.com/eduardosasso/bullish/internal/collector"
	"github.com/eduardosasso/bullish/internal/logger"
	"github.com/eduardosasso/bullish/internal/metrics"
	"github.com/eduardosasso/bullish/internal/model"
)

const (
	defaultConcurrency = 10
	defaultRange       = "1y"
	maxNameLen         = 25
)

// Filters are the eligibility minimums a ticker must clear.
type Filters struct {
	MinMarketCap float64
	MinAvgVolume float64
	MinPrice     float64
	MinHistory   int
	Sectors      []string
}

// Config controls concurrency, history length, filters and indicator windows.
type Config struct {
	Concurrency  int
	HistoryRange string
	Filters      Filters
	Params       calculator.Params
}

// Progress is called after every ticker completes, in completion order.
type Progress func(done, total int)

// Scanner runs the per-ticker analysis over a universe.
type Scanner struct {
	fetcher collector.Fetcher
	cfg     Config
	sectors map[string]struct{}
	minCap  decimal.Decimal
	log     *logger.Entry
}

// New creates a Scanner. Zero config fields fall back to defaults.
func New(fetcher collector.Fetcher, cfg Config, log *logger.Log) *Scanner {
	if fetcher == nil {
		panic("scanner: fetcher must not be nil")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.HistoryRange == "" {
		cfg.HistoryRange = defaultRange
	}
	if cfg.Params == (calculator.Params{}) {
		cfg.Params = calculator.DefaultParams()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	sectors := make(map[string]struct{}, len(cfg.Filters.Sectors))
	for _, s := range cfg.Filters.Sectors {
		sectors[s] = struct{}{}
	}
	return &Scanner{
		fetcher: fetcher,
		cfg:     cfg,
		sectors: sectors,
		minCap:  decimal.NewFromFloat(cfg.Filters.MinMarketCap),
		log:     log.WithComponent("scanner"),
	}
}

// Scan analyzes every ticker concurrently and returns the eligible snapshots
// in completion order. Failed or ineligible tickers are dropped silently.
func (s *Scanner) Scan(ctx context.Context, tickers []string, benchmarkReturn float64, progress Progress) []model.Snapshot {
	total := len(tickers)
	jobs := make(chan string, total)
	for _, t := range tickers {
		jobs <- t
	}
	close(jobs)

	workers := s.cfg.Concurrency
	if workers > total {
		workers = total
	}

	var (
		mu      sync.Mutex
		done    int
		results = make([]model.Snapshot, 0, total)
		wg      sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				snap, ok := s.Analyze(ctx, ticker, benchmarkReturn)

				mu.Lock()
				done++
				if ok {
					results = append(results, snap)
				}
				if progress != nil {
					progress(done, total)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.log.WithField("analyzed", len(results)).WithField("total", total).Info("scan finished")
	return results
}

// Analyze fetches and evaluates a single ticker. The bool is false when the
// ticker fails a filter or the provider returns an error.
func (s *Scanner) Analyze(ctx context.Context, ticker string, benchmarkReturn float64) (model.Snapshot, bool) {
	log := s.log.WithField("ticker", ticker)

	profile, err := s.fetcher.FetchProfile(ctx, ticker)
	if err != nil {
		log.WithError(err).Debug("fetch profile")
		metrics.TickersTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return model.Snapshot{}, false
	}
	if reason := s.ineligible(profile); reason != "" {
		log.WithField("reason", reason).Debug("skipped")
		metrics.TickersTotal.WithLabelValues(metrics.OutcomeIneligible).Inc()
		return model.Snapshot{}, false
	}

	bars, err := s.fetcher.FetchHistory(ctx, ticker, s.cfg.HistoryRange)
	if err != nil {
		log.WithError(err).Debug("fetch history")
		metrics.TickersTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return model.Snapshot{}, false
	}
	if len(bars) == 0 || len(bars) < s.cfg.Filters.MinHistory {
		log.WithField("bars", len(bars)).Debug("insufficient history")
		metrics.TickersTotal.WithLabelValues(metrics.OutcomeIneligible).Inc()
		return model.Snapshot{}, false
	}

	metrics.TickersTotal.WithLabelValues(metrics.OutcomeAnalyzed).Inc()
	return BuildSnapshot(profile, bars, benchmarkReturn, s.cfg.Params), true
}

func (s *Scanner) ineligible(p model.Profile) string {
	if _, ok := s.sectors[p.Sector]; !ok {
		return "sector"
	}
	if p.MarketCap.LessThan(s.minCap) {
		return "market_cap"
	}
	if p.AverageVolume < s.cfg.Filters.MinAvgVolume {
		return "avg_volume"
	}
	if p.Price() < s.cfg.Filters.MinPrice {
		return "price"
	}
	return ""
}

// BuildSnapshot derives every snapshot field from a profile and its history.
func BuildSnapshot(p model.Profile, bars []model.Bar, benchmarkReturn float64, params calculator.Params) model.Snapshot {
	price := p.Price()
	ind := calculator.Compute(model.Closes(bars), model.Volumes(bars), price, benchmarkReturn, params)
	fairValue := p.TargetMeanPrice.InexactFloat64()

	return model.Snapshot{
		Ticker:     p.Ticker,
		Name:       truncateName(p.Name),
		Sector:     p.Sector,
		Price:      price,
		ATH:        ind.ATH,
		MarketCap:  p.MarketCap,
		PctFromATH: ind.PctFromATH,
		Change1d:   ind.Change1d,
		Streak:     ind.Streak,
		RSI:        ind.RSI,
		ROC30d:     ind.ROC,
		RSVsBench:  ind.RSVsBench,
		VolSurge:   ind.VolSurge,
		PctVs50DMA: ind.PctVsMA,
		Is52wHigh:  ind.Is52wHigh,
		Signal:     ind.Signal,
		FairValue:  fairValue,
		Upside:     calculator.PctChange(price, fairValue),
		Rating:     p.RecommendationKey,
		FVVsATH:    calculator.PctChange(ind.ATH, fairValue),
	}
}

func truncateName(name string) string {
	r := []rune(name)
	if len(r) > maxNameLen {
		return string(r[:maxNameLen])
	}
	return name
}
