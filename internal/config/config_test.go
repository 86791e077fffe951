package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eduardosasso/bullish/internal/advisor"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scan.Concurrency != 10 {
		t.Errorf("concurrency: expected 10, got %d", cfg.Scan.Concurrency)
	}
	if cfg.Filters.MinMarketCap != 2_000_000_000 {
		t.Errorf("min market cap: got %.0f", cfg.Filters.MinMarketCap)
	}
	if cfg.Rules.ATHThreshold != -20 {
		t.Errorf("ath threshold: expected -20, got %.0f", cfg.Rules.ATHThreshold)
	}
	if cfg.Rules.StreakCap != 15 {
		t.Errorf("streak cap: expected 15, got %d", cfg.Rules.StreakCap)
	}
	if cfg.Advisor.Timeout != 180*time.Second {
		t.Errorf("advisor timeout: expected 180s, got %v", cfg.Advisor.Timeout)
	}
	if !cfg.AdvisorEnabled() {
		t.Error("advisor should be enabled by default")
	}
	if len(cfg.Filters.Sectors) != 3 {
		t.Errorf("sectors: expected 3, got %d", len(cfg.Filters.Sectors))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
scan:
  concurrency: 4
  benchmark: SPY
  tickers: [AAPL, MSFT]
rules:
  streak_cap: 5
advisor:
  enabled: false
  timeout: 30s
output:
  dir: out
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BULLISH_CONCURRENCY", "7")
	t.Setenv("BULLISH_OUTPUT_DIR", "snapshots")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scan.Concurrency != 7 {
		t.Errorf("env should override concurrency, got %d", cfg.Scan.Concurrency)
	}
	if cfg.Scan.Benchmark != "SPY" {
		t.Errorf("benchmark: expected SPY, got %s", cfg.Scan.Benchmark)
	}
	if len(cfg.Scan.Tickers) != 2 {
		t.Errorf("tickers: expected 2, got %d", len(cfg.Scan.Tickers))
	}
	if cfg.Rules.StreakCap != 5 {
		t.Errorf("streak cap: expected 5, got %d", cfg.Rules.StreakCap)
	}
	if cfg.AdvisorEnabled() {
		t.Error("advisor should be disabled")
	}
	if cfg.Advisor.Timeout != 30*time.Second {
		t.Errorf("advisor timeout: expected 30s, got %v", cfg.Advisor.Timeout)
	}
	if cfg.Output.Dir != "snapshots" {
		t.Errorf("output dir: expected snapshots, got %s", cfg.Output.Dir)
	}
}

func TestLoad_ExplicitZeroKept(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
filters:
  min_price: 0
rules:
  ath_threshold: 0
  streak_min: 0
database:
  sqlite_path: ""
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Filters.MinPrice != 0 {
		t.Errorf("min price: expected 0, got %.2f", cfg.Filters.MinPrice)
	}
	if cfg.Rules.ATHThreshold != 0 || cfg.Rules.StreakMin != 0 {
		t.Errorf("rules: expected zero threshold and streak min, got %+v", cfg.Rules)
	}
	if cfg.Database.SQLitePath != "" {
		t.Errorf("sqlite path: expected empty, got %q", cfg.Database.SQLitePath)
	}
	if cfg.Filters.MinMarketCap != 2_000_000_000 || cfg.Rules.StreakCap != 15 {
		t.Errorf("unset keys should keep defaults, got %+v / %+v", cfg.Filters, cfg.Rules)
	}
	if len(cfg.Advisor.Args) == 0 || cfg.Advisor.Args[1] != advisor.PromptPlaceholder {
		t.Errorf("advisor args: got %v", cfg.Advisor.Args)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("explicit zeros should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Indicators.HighProximity = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for high_proximity > 1")
	}
	cfg.Indicators.HighProximity = 0.98
	cfg.Scan.Concurrency = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative concurrency")
	}
	cfg.Scan.Concurrency = 10
	cfg.Indicators.RSIPeriod = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero rsi period")
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores the original one when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatal(err)
		}
	})
}
