package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/eduardosasso/bullish/internal/logger"
	"github.com/eduardosasso/bullish/internal/model"
	"github.com/eduardosasso/bullish/internal/notifier"
	"github.com/eduardosasso/bullish/internal/recorder"
	"github.com/eduardosasso/bullish/internal/runner"
)

// historyLimit is the number of rows /history returns.
const historyLimit = 5

// Runner is the part of runner.Runner the scheduler drives.
type Runner interface {
	Scan(ctx context.Context, skipAI bool) (*runner.Result, error)
	Reload(ref string) (*model.ScanOutcome, string, error)
	History(limit int) ([]recorder.ScanRow, error)
}

// Sender delivers plain status messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the recurring scan and chat commands. Scan reports are
// delivered by the runner's renderer.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Notifier Sender
	SkipAI   bool
	Ctx      context.Context

	scanning sync.Mutex
	log      *logger.Entry
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, r Runner, n Sender, skipAI bool, log *logger.Log) *Scheduler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   r,
		Notifier: n,
		SkipAI:   skipAI,
		Ctx:      ctx,
		log:      log.WithComponent("scheduler"),
	}
}

// Register adds the recurring scan.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunScanNow executes the scan task immediately.
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	if !s.scanning.TryLock() {
		s.log.Warn("scan already running, skipping")
		return
	}
	defer s.scanning.Unlock()

	s.log.Info("running scheduled scan")
	res, err := s.Runner.Scan(s.Ctx, s.SkipAI)
	if err != nil {
		s.log.WithError(err).Error("scan failed")
		s.trySend(fmt.Sprintf("❌ Scan failed: %v", err))
		return
	}
	s.log.WithField("run_id", res.RunID).Info("scheduled scan finished")
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "/scan":
		go s.scanTask()
		return "⏳ Scan started"
	case "/latest":
		if _, _, err := s.Runner.Reload(recorder.LatestRef); err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return ""
	case "/history":
		rows, err := s.Runner.History(historyLimit)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatHistory(rows)
	default:
		return "Available commands:\n• /scan - run a scan now\n• /latest - resend the latest report\n• /history - recent scans"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.WithError(err).Error("send notification")
	}
}
