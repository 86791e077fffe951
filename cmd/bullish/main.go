package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eduardosasso/bullish/internal/advisor"
	"github.com/eduardosasso/bullish/internal/archive"
	"github.com/eduardosasso/bullish/internal/calculator"
	"github.com/eduardosasso/bullish/internal/collector"
	"github.com/eduardosasso/bullish/internal/config"
	"github.com/eduardosasso/bullish/internal/logger"
	"github.com/eduardosasso/bullish/internal/metrics"
	"github.com/eduardosasso/bullish/internal/notifier"
	"github.com/eduardosasso/bullish/internal/recorder"
	"github.com/eduardosasso/bullish/internal/runner"
	"github.com/eduardosasso/bullish/internal/scanner"
	"github.com/eduardosasso/bullish/internal/scheduler"
	"github.com/eduardosasso/bullish/internal/strategy"
)

// loadFlag accepts both "-load" and "-load <ref>".
type loadFlag struct {
	set bool
	ref string
}

func (f *loadFlag) String() string   { return f.ref }
func (f *loadFlag) IsBoolFlag() bool { return true }

func (f *loadFlag) Set(v string) error {
	f.set = true
	if v != "true" {
		f.ref = v
	}
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one invocation and returns the process exit code. Deferred
// cleanup always runs before the caller exits.
func run(args []string) int {
	fs := flag.NewFlagSet("bullish", flag.ContinueOnError)
	cfgPath := fs.String("config", defaultConfigPath(), "path to the YAML config file")
	noAI := fs.Bool("no-ai", false, "skip the advisory step")
	daemon := fs.Bool("daemon", false, "run scheduled scans and answer Telegram commands")
	var load loadFlag
	fs.Var(&load, "load", "re-render a saved snapshot: -load [latest|path]")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if load.set && load.ref == "" && fs.NArg() > 0 {
		load.ref = fs.Arg(0)
	}

	log := logger.GetLogger()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.WithError(err).Error("load config")
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("config validation")
		return 1
	}
	if *daemon {
		if err := cfg.ValidateDaemon(); err != nil {
			log.WithError(err).Error("config validation")
			return 1
		}
	}
	if err := log.Configure(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		log.WithError(err).Error("configure logger")
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts, cleanup, err := buildOptions(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("init")
		return 1
	}
	defer cleanup()

	var tn *notifier.TelegramNotifier
	if *daemon {
		if cfg.TelegramEnabled() {
			tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
			opts.Renderer = notifier.Multi{opts.Renderer, tn}
		} else {
			log.Warn("telegram credentials not set, reports go to the console only")
		}
	} else if !load.set {
		opts.Progress = printProgress
	}

	r, err := runner.New(opts)
	if err != nil {
		log.WithError(err).Error("init runner")
		return 1
	}

	switch {
	case load.set:
		if _, _, err := r.Reload(load.ref); err != nil {
			log.Error(err)
			return 1
		}
	case *daemon:
		if err := runDaemon(ctx, cfg, r, tn, *noAI, log); err != nil {
			log.WithError(err).Error("daemon")
			return 1
		}
	default:
		res, err := r.Scan(ctx, *noAI || !cfg.AdvisorEnabled())
		if err != nil {
			log.WithError(err).Error("scan")
			return 1
		}
		for _, p := range res.Artifacts.Paths() {
			fmt.Fprintf(os.Stderr, "Saved %s\n", p)
		}
	}
	return 0
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

func buildOptions(ctx context.Context, cfg *config.Config, log *logger.Log) (runner.Options, func(), error) {
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.WithField("source", fetcher.Name()).Info("data source selected")

	opts := runner.Options{
		Universe:  collector.NewStaticUniverse(cfg.Scan.Tickers),
		Fetcher:   fetcher,
		Benchmark: cfg.Scan.Benchmark,
		Scanner: scanner.New(fetcher, scanner.Config{
			Concurrency:  cfg.Scan.Concurrency,
			HistoryRange: cfg.Scan.HistoryRange,
			Filters:      scanner.Filters(cfg.Filters),
			Params:       calculator.Params(cfg.Indicators),
		}, log),
		Rules:    strategy.Rules(cfg.Rules),
		Store:    recorder.NewStore(cfg.Output.Dir, cfg.Output.Parquet, log),
		Renderer: notifier.NewConsoleRenderer(os.Stdout),
		Log:      log,
	}

	if cfg.AdvisorEnabled() {
		client := advisor.NewCLIClient(cfg.Advisor.Command, cfg.Advisor.Args, cfg.Advisor.Timeout)
		opts.Merger = advisor.NewMerger(client, advisor.Limits{
			MinLen: cfg.Advisor.MinNoteLen,
			MaxLen: cfg.Advisor.MaxNoteLen,
		}, log)
	}

	cleanup := func() {}
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.WithError(err).Warn("init sqlite recorder failed, using noop")
			opts.Recorder = recorder.NewNoopRecorder()
		} else {
			opts.Recorder = sr
			cleanup = func() { sr.Close() }
		}
	} else {
		opts.Recorder = recorder.NewNoopRecorder()
	}

	if cfg.Archive.Bucket != "" {
		a, err := archive.NewS3Archiver(ctx, archive.Options{
			Bucket:          cfg.Archive.Bucket,
			Region:          cfg.Archive.Region,
			Endpoint:        cfg.Archive.Endpoint,
			PathStyle:       cfg.Archive.PathStyle,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
		}, log)
		if err != nil {
			cleanup()
			return opts, nil, fmt.Errorf("init archive: %w", err)
		}
		opts.Archiver = a
	}

	return opts, cleanup, nil
}

func printProgress(done, total int) {
	fmt.Fprintf(os.Stderr, "\rScanning %d/%d", done, total)
	if done == total {
		fmt.Fprintln(os.Stderr)
	}
}

func runDaemon(ctx context.Context, cfg *config.Config, r *runner.Runner, tn *notifier.TelegramNotifier, noAI bool, log *logger.Log) error {
	var sender scheduler.Sender
	if tn != nil {
		sender = tn
	}
	sched := scheduler.NewScheduler(ctx, r, sender, noAI || !cfg.AdvisorEnabled(), log)
	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server")
			}
		}()
		defer srv.Close()
		log.WithField("addr", cfg.Metrics.Addr).Info("metrics endpoint listening")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, scanning now")
		go sched.RunScanNow()
	}

	log.Info("bullish daemon is running, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info("shutdown signal received, stopping")
	return nil
}
