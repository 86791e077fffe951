package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eduardosasso/bullish/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Maps are read-only once a scan starts, so concurrent workers can share it.
type MockFetcher struct {
	Profiles  map[string]model.Profile
	Histories map[string][]model.Bar
	Errors    map[string]error
}

// NewMockFetcher creates an empty MockFetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Profiles:  make(map[string]model.Profile),
		Histories: make(map[string][]model.Bar),
		Errors:    make(map[string]error),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

// Add registers an eligible profile and a history built from closes.
func (m *MockFetcher) Add(p model.Profile, closes []float64) {
	m.Profiles[p.Ticker] = p
	m.Histories[p.Ticker] = BarsFromCloses(closes, 1_000_000)
}

func (m *MockFetcher) FetchProfile(_ context.Context, ticker string) (model.Profile, error) {
	if err := m.Errors[ticker]; err != nil {
		return model.Profile{}, err
	}
	p, ok := m.Profiles[ticker]
	if !ok {
		return model.Profile{}, fmt.Errorf("mock: unknown ticker %s", ticker)
	}
	return p, nil
}

func (m *MockFetcher) FetchHistory(_ context.Context, ticker, _ string) ([]model.Bar, error) {
	if err := m.Errors[ticker]; err != nil {
		return nil, err
	}
	bars, ok := m.Histories[ticker]
	if !ok {
		return nil, fmt.Errorf("mock: no history for %s", ticker)
	}
	return bars, nil
}

// EligibleProfile returns a profile that clears the default filters at price.
func EligibleProfile(ticker string, price float64) model.Profile {
	return model.Profile{
		Ticker:        ticker,
		Name:          ticker + " Inc.",
		Sector:        "Technology",
		MarketCap:     decimal.NewFromInt(50_000_000_000),
		AverageVolume: 5_000_000,
		CurrentPrice:  price,
	}
}

// BarsFromCloses builds one daily bar per close ending today, with constant volume.
func BarsFromCloses(closes []float64, volume float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	today := time.Now().Truncate(24 * time.Hour)
	for i, c := range closes {
		bars[i] = model.Bar{
			Time:   today.AddDate(0, 0, -(len(closes) - 1 - i)),
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}
