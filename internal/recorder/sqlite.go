package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/eduardosasso/bullish/internal/logger"
	"github.com/eduardosasso/bullish/internal/model"
)

// SQLiteRecorder persists scan history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logger.Entry
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logger.Log) (*SQLiteRecorder, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.WithComponent("history")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			run_id             TEXT PRIMARY KEY,
			timestamp          INTEGER NOT NULL,
			benchmark_return   REAL,
			total_stocks       INTEGER,
			watchlist_count    INTEGER,
			big_drops_count    INTEGER,
			big_gains_count    INTEGER,
			down_streaks_count INTEGER,
			up_streaks_count   INTEGER,
			parabolic_count    INTEGER,
			json_path          TEXT,
			csv_path           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_ts ON scans(timestamp)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			ticker        TEXT NOT NULL,
			buckets       TEXT,
			price         REAL,
			ath           REAL,
			market_cap    REAL,
			pct_from_ath  REAL,
			change_1d     REAL,
			streak        INTEGER,
			rsi           REAL,
			roc_30d       REAL,
			rs_vs_bench   REAL,
			vol_surge     REAL,
			pct_vs_50dma  REAL,
			is_52w_high   INTEGER,
			signal        TEXT,
			ai_assessment TEXT,
			fair_value    REAL,
			upside        REAL,
			rating        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ticker ON snapshots(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan stores one scans row and a snapshots row per distinct ticker.
func (r *SQLiteRecorder) RecordScan(runID string, o *model.ScanOutcome, a Artifacts) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO scans
		(run_id, timestamp, benchmark_return, total_stocks,
		 watchlist_count, big_drops_count, big_gains_count,
		 down_streaks_count, up_streaks_count, parabolic_count,
		 json_path, csv_path)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, o.Timestamp.Unix(), o.BenchmarkReturn, o.TotalStocks,
		len(o.Watchlist), len(o.BigDrops), len(o.BigGains),
		len(o.DownStreaks), len(o.UpStreaks), len(o.Parabolic),
		a.JSON, a.CSV,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	membership := bucketMembership(o)
	for _, s := range o.Unique(model.Buckets...) {
		_, err := tx.Exec(`INSERT INTO snapshots
			(run_id, ticker, buckets, price, ath, market_cap, pct_from_ath, change_1d,
			 streak, rsi, roc_30d, rs_vs_bench, vol_surge, pct_vs_50dma, is_52w_high,
			 signal, ai_assessment, fair_value, upside, rating)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, s.Ticker, strings.Join(membership[s.Ticker], ","),
			s.Price, s.ATH, s.MarketCap.InexactFloat64(), s.PctFromATH, s.Change1d,
			s.Streak, s.RSI, s.ROC30d, s.RSVsBench, s.VolSurge, s.PctVs50DMA, s.Is52wHigh,
			s.Signal, s.Assessment, s.FairValue, s.Upside, s.Rating,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot %s: %w", s.Ticker, err)
		}
	}

	return tx.Commit()
}

// RecentScans returns the newest scans first.
func (r *SQLiteRecorder) RecentScans(limit int) ([]ScanRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, timestamp, benchmark_return, total_stocks,
		watchlist_count, big_drops_count, big_gains_count,
		down_streaks_count, up_streaks_count, parabolic_count, json_path
		FROM scans ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var out []ScanRow
	for rows.Next() {
		var (
			row    ScanRow
			counts [6]int
		)
		if err := rows.Scan(&row.RunID, &row.Timestamp, &row.BenchmarkReturn, &row.TotalStocks,
			&counts[0], &counts[1], &counts[2], &counts[3], &counts[4], &counts[5], &row.JSONPath); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.Counts = make(map[model.Bucket]int, len(model.Buckets))
		for i, b := range model.Buckets {
			row.Counts[b] = counts[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

// bucketMembership lists every bucket each ticker appears in, in precedence order.
func bucketMembership(o *model.ScanOutcome) map[string][]string {
	out := make(map[string][]string)
	for _, b := range model.Buckets {
		for _, s := range *o.List(b) {
			out[s.Ticker] = append(out[s.Ticker], string(b))
		}
	}
	return out
}
