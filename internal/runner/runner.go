// Package runner wires one end-to-end scan and the reload path.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eduardosasso/bullish/internal/advisor"
	"github.com/eduardosasso/bullish/internal/archive"
	"github.com/eduardosasso/bullish/internal/collector"
	"github.com/eduardosasso/bullish/internal/logger"
	"github.com/eduardosasso/bullish/internal/metrics"
	"github.com/eduardosasso/bullish/internal/model"
	"github.com/eduardosasso/bullish/internal/notifier"
	"github.com/eduardosasso/bullish/internal/recorder"
	"github.com/eduardosasso/bullish/internal/scanner"
	"github.com/eduardosasso/bullish/internal/strategy"
)

// Options are the collaborators of a Runner. Merger, Recorder, Archiver and
// Renderer are optional.
type Options struct {
	Universe        collector.Universe
	Fetcher         collector.Fetcher
	Scanner         *scanner.Scanner
	Benchmark       string
	BenchmarkPeriod int
	Rules           strategy.Rules
	Merger          *advisor.Merger
	Store           *recorder.Store
	Recorder        recorder.Recorder
	Archiver        archive.Archiver
	Renderer        notifier.Renderer
	Progress        scanner.Progress
	Log             *logger.Log
}

// Result describes one finished scan.
type Result struct {
	RunID     string
	Outcome   *model.ScanOutcome
	Artifacts recorder.Artifacts
}

// Runner executes scans and reloads.
type Runner struct {
	opts Options
	now  func() time.Time
	log  *logger.Log
}

// New validates opts and fills in no-op collaborators.
func New(opts Options) (*Runner, error) {
	if opts.Universe == nil || opts.Fetcher == nil || opts.Scanner == nil || opts.Store == nil {
		return nil, fmt.Errorf("runner: universe, fetcher, scanner and store are required")
	}
	if opts.BenchmarkPeriod <= 0 {
		opts.BenchmarkPeriod = 30
	}
	if opts.Rules == (strategy.Rules{}) {
		opts.Rules = strategy.DefaultRules()
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Archiver == nil {
		opts.Archiver = archive.Noop{}
	}
	if opts.Renderer == nil {
		opts.Renderer = notifier.Multi{}
	}
	if opts.Log == nil {
		opts.Log = logger.GetLogger()
	}
	return &Runner{opts: opts, now: time.Now, log: opts.Log}, nil
}

// Scan runs universe, benchmark, analysis, categorization, optional
// assessment, persistence, history, archive and rendering in that order.
// Only universe and save failures abort the run.
func (r *Runner) Scan(ctx context.Context, skipAI bool) (*Result, error) {
	runID := uuid.NewString()
	log := r.log.WithComponent("runner").WithField("run_id", runID)

	tickers, err := r.opts.Universe.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	tickers = collector.Dedup(tickers)
	log.WithField("tickers", len(tickers)).Info("scan started")

	bench := collector.BenchmarkReturn(ctx, r.opts.Fetcher, r.opts.Benchmark, r.opts.BenchmarkPeriod)
	log.WithField("benchmark", r.opts.Benchmark).WithField("return", bench).Info("benchmark fetched")

	start := time.Now()
	snaps := r.opts.Scanner.Scan(ctx, tickers, bench, r.opts.Progress)
	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	if len(snaps) == 0 {
		log.Warn("no stocks matched the criteria")
	}

	outcome := strategy.Categorize(snaps, r.opts.Rules)
	outcome.Timestamp = r.now()
	outcome.BenchmarkReturn = bench
	for _, b := range model.Buckets {
		metrics.BucketSize.WithLabelValues(string(b)).Set(float64(len(*outcome.List(b))))
	}

	if !skipAI && r.opts.Merger != nil {
		cands := advisor.Candidates(&outcome)
		if len(cands) > 0 {
			notes := r.opts.Merger.Assess(ctx, cands)
			advisor.Apply(&outcome, notes)
		}
	}

	artifacts, err := r.opts.Store.Save(&outcome)
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	if err := r.opts.Recorder.RecordScan(runID, &outcome, artifacts); err != nil {
		log.WithError(err).Error("record history")
	}
	if err := r.opts.Archiver.Archive(ctx, outcome.Timestamp, artifacts.Paths()...); err != nil {
		log.WithError(err).Warn("archive snapshot")
	}
	if err := r.opts.Renderer.Render(&outcome); err != nil {
		log.WithError(err).Warn("render outcome")
	}

	log.WithFields(logger.Fields{
		"analyzed": len(snaps),
		"json":     artifacts.JSON,
	}).Info("scan complete")
	return &Result{RunID: runID, Outcome: &outcome, Artifacts: artifacts}, nil
}

// Reload loads the snapshot named by ref (a path, "" or "latest") and
// renders it again. Nothing is written.
func (r *Runner) Reload(ref string) (*model.ScanOutcome, string, error) {
	path, err := r.opts.Store.Resolve(ref)
	if err != nil {
		return nil, "", err
	}
	outcome, err := recorder.Load(path)
	if err != nil {
		return nil, "", err
	}
	r.log.WithComponent("runner").WithField("path", path).Info("snapshot loaded")
	if err := r.opts.Renderer.Render(outcome); err != nil {
		return outcome, path, fmt.Errorf("render: %w", err)
	}
	return outcome, path, nil
}

// History returns the most recent recorded scans.
func (r *Runner) History(limit int) ([]recorder.ScanRow, error) {
	return r.opts.Recorder.RecentScans(limit)
}
