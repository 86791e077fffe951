package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eduardosasso/bullish/internal/model"
)

// RESTFetcher implements Fetcher against a self-hosted market data API
// exposing /api/v1/bars/daily and /api/v1/profile.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type restProfile struct {
	Name              string          `json:"name"`
	Sector            string          `json:"sector"`
	MarketCap         decimal.Decimal `json:"market_cap"`
	AverageVolume     float64         `json:"average_volume"`
	Price             float64         `json:"price"`
	TargetMeanPrice   decimal.Decimal `json:"target_mean_price"`
	RecommendationKey string          `json:"recommendation"`
}

// FetchHistory requests enough daily bars to cover rng.
func (f *RESTFetcher) FetchHistory(ctx context.Context, ticker, rng string) ([]model.Bar, error) {
	days, err := RangeDays(rng)
	if err != nil {
		return nil, err
	}
	q := url.Values{"symbol": {ticker}, "limit": {strconv.Itoa(days)}}
	var raw []restBar
	if err := f.getJSON(ctx, "/api/v1/bars/daily", q, &raw); err != nil {
		return nil, fmt.Errorf("fetch bars %s: %w", ticker, err)
	}
	bars := make([]model.Bar, 0, len(raw))
	for _, rb := range raw {
		if rb.Close <= 0 {
			continue
		}
		bars = append(bars, model.Bar{Time: time.Unix(rb.Timestamp, 0), Close: rb.Close, Volume: rb.Volume})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *RESTFetcher) FetchProfile(ctx context.Context, ticker string) (model.Profile, error) {
	var rp restProfile
	if err := f.getJSON(ctx, "/api/v1/profile", url.Values{"symbol": {ticker}}, &rp); err != nil {
		return model.Profile{}, fmt.Errorf("fetch profile %s: %w", ticker, err)
	}
	if rp.Name == "" {
		rp.Name = ticker
	}
	return model.Profile{
		Ticker:            ticker,
		Name:              rp.Name,
		Sector:            rp.Sector,
		MarketCap:         rp.MarketCap,
		AverageVolume:     rp.AverageVolume,
		CurrentPrice:      rp.Price,
		TargetMeanPrice:   rp.TargetMeanPrice,
		RecommendationKey: rp.RecommendationKey,
	}, nil
}

func (f *RESTFetcher) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// RangeDays converts a history range such as "5d", "6mo" or "1y" into calendar days.
func RangeDays(rng string) (int, error) {
	units := []struct {
		suffix string
		days   int
	}{{"mo", 31}, {"wk", 7}, {"d", 1}, {"y", 366}}
	for _, u := range units {
		if !strings.HasSuffix(rng, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(rng, u.suffix))
		if err != nil || n <= 0 {
			break
		}
		return n * u.days, nil
	}
	return 0, fmt.Errorf("invalid history range %q", rng)
}
