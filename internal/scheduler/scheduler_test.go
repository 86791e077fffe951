package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eduardosasso/bullish/internal/logger"
	"github.com/eduardosasso/bullish/internal/model"
	"github.com/eduardosasso/bullish/internal/recorder"
	"github.com/eduardosasso/bullish/internal/runner"
)

type fakeRunner struct {
	mu        sync.Mutex
	scans     int
	skipAI    []bool
	scanErr   error
	reloadErr error
	reloads   []string
	rows      []recorder.ScanRow
	started   chan struct{}
	block     chan struct{}
}

func (f *fakeRunner) Scan(_ context.Context, skipAI bool) (*runner.Result, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	f.skipAI = append(f.skipAI, skipAI)
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return &runner.Result{RunID: "run", Outcome: &model.ScanOutcome{}}, nil
}

func (f *fakeRunner) Reload(ref string) (*model.ScanOutcome, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads = append(f.reloads, ref)
	return &model.ScanOutcome{}, "x.json", f.reloadErr
}

func (f *fakeRunner) History(limit int) ([]recorder.ScanRow, error) {
	return f.rows, nil
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return nil
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRunner{}, nil, false, logger.Discard())
	if err := s.Register("not a cron"); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	if err := s.Register("0 30 16 * * 1-5"); err != nil {
		t.Errorf("Register: %v", err)
	}
}

func TestRunScanNow(t *testing.T) {
	r := &fakeRunner{}
	s := NewScheduler(context.Background(), r, &fakeSender{}, true, logger.Discard())
	s.RunScanNow()
	if r.scans != 1 || !r.skipAI[0] {
		t.Errorf("scans = %d skipAI = %v", r.scans, r.skipAI)
	}
}

func TestScanFailureNotifies(t *testing.T) {
	r := &fakeRunner{scanErr: errors.New("universe unavailable")}
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), r, sender, false, logger.Discard())
	s.RunScanNow()
	if len(sender.msgs) != 1 || !strings.Contains(sender.msgs[0], "universe unavailable") {
		t.Errorf("messages = %v", sender.msgs)
	}
}

func TestScanSkipsWhenRunning(t *testing.T) {
	r := &fakeRunner{started: make(chan struct{}), block: make(chan struct{})}
	s := NewScheduler(context.Background(), r, &fakeSender{}, false, logger.Discard())

	done := make(chan struct{})
	go func() {
		s.RunScanNow()
		close(done)
	}()

	select {
	case <-r.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first scan never started")
	}

	s.RunScanNow()
	close(r.block)
	<-done

	if r.scans != 1 {
		t.Errorf("scans = %d, want 1", r.scans)
	}
}

func TestHandleCommand(t *testing.T) {
	r := &fakeRunner{rows: []recorder.ScanRow{{RunID: "a", TotalStocks: 17, Counts: map[model.Bucket]int{}}}}
	s := NewScheduler(context.Background(), r, &fakeSender{}, false, logger.Discard())

	if got := s.HandleCommand("/latest"); got != "" {
		t.Errorf("/latest reply = %q, want empty", got)
	}
	if len(r.reloads) != 1 || r.reloads[0] != recorder.LatestRef {
		t.Errorf("reloads = %v", r.reloads)
	}

	r.reloadErr = errors.New("no scan files found in data")
	if got := s.HandleCommand("/latest"); !strings.Contains(got, "no scan files found") {
		t.Errorf("/latest error reply = %q", got)
	}

	if got := s.HandleCommand("/history"); !strings.Contains(got, "total 17") {
		t.Errorf("/history reply = %q", got)
	}
	if got := s.HandleCommand("hello"); !strings.Contains(got, "/scan") {
		t.Errorf("help reply = %q", got)
	}

	if got := s.HandleCommand("/SCAN"); !strings.Contains(got, "Scan started") {
		t.Errorf("/scan reply = %q", got)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		r.mu.Lock()
		n := r.scans
		r.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("/scan did not trigger a scan")
		}
		time.Sleep(time.Millisecond)
	}
}
