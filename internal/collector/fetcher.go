package collector

import (
	"context"

	"github.com/eduardosasso/bullish/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchProfile(ctx context.Context, ticker string) (model.Profile, error)
	FetchHistory(ctx context.Context, ticker, rng string) ([]model.Bar, error)
	Name() string
}
