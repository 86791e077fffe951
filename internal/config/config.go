package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eduardosasso/bullish/internal/advisor"
)

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		Output     string `yaml:"output"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Scan struct {
		Concurrency  int      `yaml:"concurrency"`
		Benchmark    string   `yaml:"benchmark"`
		HistoryRange string   `yaml:"history_range"`
		Tickers      []string `yaml:"tickers"`
	} `yaml:"scan"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Filters    Filters    `yaml:"filters"`
	Rules      Rules      `yaml:"rules"`
	Indicators Indicators `yaml:"indicators"`
	Advisor    struct {
		Enabled    bool          `yaml:"enabled"`
		Command    string        `yaml:"command"`
		Args       []string      `yaml:"args"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxNoteLen int           `yaml:"max_note_len"`
		MinNoteLen int           `yaml:"min_note_len"`
	} `yaml:"advisor"`
	Output struct {
		Dir     string `yaml:"dir"`
		Parquet bool   `yaml:"parquet"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Archive struct {
		Bucket          string `yaml:"bucket"`
		Region          string `yaml:"region"`
		Endpoint        string `yaml:"endpoint"`
		PathStyle       bool   `yaml:"path_style"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
	} `yaml:"archive"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Filters are the per-ticker eligibility minimums.
type Filters struct {
	MinMarketCap float64  `yaml:"min_market_cap"`
	MinAvgVolume float64  `yaml:"min_avg_volume"`
	MinPrice     float64  `yaml:"min_price"`
	MinHistory   int      `yaml:"min_history"`
	Sectors      []string `yaml:"sectors"`
}

// Rules are the bucket thresholds used by the categorizer.
type Rules struct {
	ATHThreshold float64 `yaml:"ath_threshold"`
	BigMovePct   float64 `yaml:"big_move_pct"`
	StreakMin    int     `yaml:"streak_min"`
	StreakCap    int     `yaml:"streak_cap"`
	ParabolicROC float64 `yaml:"parabolic_roc"`
	ParabolicRSI float64 `yaml:"parabolic_rsi"`
}

// Indicators are the lookback windows of the indicator calculator.
type Indicators struct {
	RSIPeriod     int     `yaml:"rsi_period"`
	ROCPeriod     int     `yaml:"roc_period"`
	VolumeWindow  int     `yaml:"volume_window"`
	MAWindow      int     `yaml:"ma_window"`
	HighProximity float64 `yaml:"high_proximity"`
}

// DefaultSectors is the approved sector set.
var DefaultSectors = []string{"Technology", "Communication Services", "Consumer Cyclical"}

// Load reads config from a YAML file over Default, then applies environment
// variable overrides. Keys absent from the file keep their defaults; keys set
// to zero stay zero. A .env file in the working directory is loaded first
// when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BULLISH_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("BULLISH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Scan.Concurrency = n
		}
	}
	if v := os.Getenv("BULLISH_ADVISOR_CMD"); v != "" {
		cfg.Advisor.Command = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Archive.Region = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		cfg.Schedule.ScanCron = v
	}
}

// Default returns the configuration used when no file or environment
// overrides a setting.
func Default() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	cfg.Scan.Concurrency = 10
	cfg.Scan.Benchmark = "QQQ"
	cfg.Scan.HistoryRange = "1y"

	cfg.Filters = Filters{
		MinMarketCap: 2_000_000_000,
		MinAvgVolume: 500_000,
		MinPrice:     10,
		MinHistory:   30,
		Sectors:      append([]string(nil), DefaultSectors...),
	}
	cfg.Rules = Rules{
		ATHThreshold: -20,
		BigMovePct:   5,
		StreakMin:    2,
		StreakCap:    15,
		ParabolicROC: 15,
		ParabolicRSI: 55,
	}
	cfg.Indicators = Indicators{
		RSIPeriod:     14,
		ROCPeriod:     30,
		VolumeWindow:  20,
		MAWindow:      50,
		HighProximity: 0.98,
	}

	cfg.Advisor.Enabled = true
	cfg.Advisor.Command = "claude"
	cfg.Advisor.Args = append([]string(nil), advisor.DefaultArgs...)
	cfg.Advisor.Timeout = 180 * time.Second
	cfg.Advisor.MaxNoteLen = 120
	cfg.Advisor.MinNoteLen = 5

	cfg.Output.Dir = "data"
	cfg.Database.SQLitePath = "data/bullish.db"
	cfg.Archive.Region = "us-east-1"
	cfg.Schedule.ScanCron = "0 30 16 * * 1-5"
	return cfg
}

// AdvisorEnabled reports whether the advisory step runs by default.
func (c *Config) AdvisorEnabled() bool {
	return c.Advisor.Enabled
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all settings are usable.
func (c *Config) Validate() error {
	if c.Scan.Concurrency <= 0 {
		return fmt.Errorf("scan.concurrency must be positive")
	}
	if c.Scan.Benchmark == "" {
		return fmt.Errorf("scan.benchmark is required")
	}
	if c.Advisor.Timeout <= 0 {
		return fmt.Errorf("advisor.timeout must be positive")
	}
	if c.Indicators.HighProximity <= 0 || c.Indicators.HighProximity > 1 {
		return fmt.Errorf("indicators.high_proximity must be in (0, 1]")
	}
	ind := c.Indicators
	if ind.RSIPeriod <= 0 || ind.ROCPeriod <= 0 || ind.VolumeWindow <= 0 || ind.MAWindow <= 0 {
		return fmt.Errorf("indicators periods and windows must be positive")
	}
	if c.Filters.MinHistory < 0 {
		return fmt.Errorf("filters.min_history must not be negative")
	}
	if c.Rules.StreakCap < 0 {
		return fmt.Errorf("rules.streak_cap must not be negative")
	}
	if c.Advisor.MaxNoteLen <= 0 || c.Advisor.MinNoteLen < 0 {
		return fmt.Errorf("advisor note lengths must be positive")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	return nil
}

// ValidateDaemon checks the settings only the scheduled mode needs.
func (c *Config) ValidateDaemon() error {
	if c.Schedule.ScanCron == "" {
		return fmt.Errorf("schedule.scan_cron is required")
	}
	return nil
}
