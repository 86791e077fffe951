package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/eduardosasso/bullish/internal/model"
)

const (
	yahooBaseURL     = "https://query1.finance.yahoo.com"
	yahooCookieURL   = "https://fc.yahoo.com"
	yahooUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	yahooModules     = "assetProfile,price,summaryDetail,financialData"
	yahooRequestRate = 8 // requests per second across all workers
	yahooBurst       = 4
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
// quoteSummary requests carry a crumb bound to the session cookie, fetched
// once and refreshed when Yahoo rejects it.
type YahooFetcher struct {
	BaseURL   string
	CookieURL string
	Client    *http.Client
	Limiter   *rate.Limiter
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	mu    sync.Mutex
	crumb string
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("yahoo: status %d, body: %s", e.code, e.body)
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	jar, _ := cookiejar.New(nil)
	return &YahooFetcher{
		BaseURL:   yahooBaseURL,
		CookieURL: yahooCookieURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
			Jar:       jar,
		},
		Limiter: rate.NewLimiter(rate.Limit(yahooRequestRate), yahooBurst),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"NDX":    "^NDX",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

func (f *YahooFetcher) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := strings.TrimRight(f.BaseURL, "/") + path + "?" + query.Encode()
	body, err := f.fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("yahoo: invalid json")
	}
	return body, nil
}

func (f *YahooFetcher) fetch(ctx context.Context, u string) ([]byte, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("yahoo pacing: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: truncate(string(body), 200)}
	}
	return body, nil
}

// session returns the cached crumb. A new one is requested when none is
// cached or the cached one equals stale.
func (f *YahooFetcher) session(ctx context.Context, stale string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.crumb != "" && f.crumb != stale {
		return f.crumb, nil
	}

	// The cookie page answers with an error status but still sets the session cookie.
	if f.CookieURL != "" {
		if _, err := f.fetch(ctx, f.CookieURL); err != nil {
			var se *statusError
			if !errors.As(err, &se) {
				return "", fmt.Errorf("yahoo cookie: %w", err)
			}
		}
	}

	body, err := f.fetch(ctx, strings.TrimRight(f.BaseURL, "/")+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("yahoo crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "{<") {
		return "", fmt.Errorf("yahoo crumb: unexpected response %q", truncate(crumb, 60))
	}
	f.crumb = crumb
	return crumb, nil
}

// FetchHistory returns daily closes and volumes for rng (e.g. "1y"), oldest first.
func (f *YahooFetcher) FetchHistory(ctx context.Context, ticker, rng string) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", rng)
	body, err := f.get(ctx, "/v8/finance/chart/"+url.PathEscape(f.yahooSymbol(ticker)), q)
	if err != nil {
		return nil, err
	}
	return parseChart(body)
}

func parseChart(body []byte) ([]model.Bar, error) {
	if desc := gjson.GetBytes(body, "chart.error.description"); desc.Exists() {
		return nil, fmt.Errorf("yahoo api error: %s", desc.String())
	}
	result := gjson.GetBytes(body, "chart.result.0")
	timestamps := result.Get("timestamp").Array()
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}
	closes := result.Get("indicators.quote.0.close").Array()
	volumes := result.Get("indicators.quote.0.volume").Array()

	bars := make([]model.Bar, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(closes) || closes[i].Type == gjson.Null {
			continue // skip null bars (holidays etc.)
		}
		var vol float64
		if i < len(volumes) {
			vol = volumes[i].Float()
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts.Int(), 0),
			Close:  closes[i].Float(),
			Volume: vol,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchProfile returns sector, size, liquidity, price and analyst fields for ticker.
func (f *YahooFetcher) FetchProfile(ctx context.Context, ticker string) (model.Profile, error) {
	path := "/v10/finance/quoteSummary/" + url.PathEscape(f.yahooSymbol(ticker))
	crumb, err := f.session(ctx, "")
	if err != nil {
		return model.Profile{}, err
	}
	q := url.Values{}
	q.Set("modules", yahooModules)
	q.Set("crumb", crumb)
	body, err := f.get(ctx, path, q)

	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusUnauthorized {
		if crumb, err = f.session(ctx, crumb); err != nil {
			return model.Profile{}, err
		}
		q.Set("crumb", crumb)
		body, err = f.get(ctx, path, q)
	}
	if err != nil {
		return model.Profile{}, err
	}
	return parseProfile(ticker, body)
}

func parseProfile(ticker string, body []byte) (model.Profile, error) {
	if desc := gjson.GetBytes(body, "quoteSummary.error.description"); desc.Exists() {
		return model.Profile{}, fmt.Errorf("yahoo api error: %s", desc.String())
	}
	r := gjson.GetBytes(body, "quoteSummary.result.0")
	if !r.Exists() {
		return model.Profile{}, fmt.Errorf("yahoo: no profile for %s", ticker)
	}

	name := r.Get("price.shortName").String()
	if name == "" {
		name = ticker
	}
	return model.Profile{
		Ticker:             ticker,
		Name:               name,
		Sector:             r.Get("assetProfile.sector").String(),
		MarketCap:          rawDecimal(r.Get("price.marketCap.raw")),
		AverageVolume:      r.Get("summaryDetail.averageVolume.raw").Float(),
		CurrentPrice:       r.Get("financialData.currentPrice.raw").Float(),
		RegularMarketPrice: r.Get("price.regularMarketPrice.raw").Float(),
		TargetMeanPrice:    rawDecimal(r.Get("financialData.targetMeanPrice.raw")),
		RecommendationKey:  r.Get("financialData.recommendationKey").String(),
	}, nil
}

// rawDecimal keeps the exact JSON number text, so large caps do not lose digits.
func rawDecimal(v gjson.Result) decimal.Decimal {
	if v.Type != gjson.Number {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v.Raw)
	if err != nil {
		return decimal.NewFromFloat(v.Float())
	}
	return d
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
