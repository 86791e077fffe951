package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eduardosasso/bullish/internal/logger"
	"github.com/eduardosasso/bullish/internal/model"
	"github.com/eduardosasso/bullish/internal/recorder"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	yml := "log:\n  level: error\noutput:\n  dir: " + filepath.Join(dir, "out") +
		"\ndatabase:\n  sqlite_path: " + filepath.Join(dir, "history.db") + "\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunLoadMissingReturnsExitCode(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfg := writeConfig(t, dir)

	if code := run([]string{"-config", cfg, "-load"}); code != 1 {
		t.Errorf("-load with no snapshots: exit %d, want 1", code)
	}
	if code := run([]string{"-config", cfg, "-load", filepath.Join(dir, "nope.json")}); code != 1 {
		t.Errorf("-load missing path: exit %d, want 1", code)
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, "out", "scan_*")); len(matches) != 0 {
		t.Errorf("failed reload should write nothing, found %v", matches)
	}
}

func TestRunLoadLatest(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfg := writeConfig(t, dir)

	store := recorder.NewStore(filepath.Join(dir, "out"), false, logger.Discard())
	o := model.ScanOutcome{
		Timestamp:   time.Date(2026, 3, 2, 16, 30, 0, 0, time.UTC),
		TotalStocks: 1,
		Watchlist:   []model.Snapshot{{Ticker: "ABC", Name: "Abc Corp", Price: 80, ATH: 120, PctFromATH: -33.3}},
	}
	art, err := store.Save(&o)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if code := run([]string{"-config", cfg, "-load", "latest"}); code != 0 {
		t.Errorf("-load latest: exit %d, want 0", code)
	}
	if code := run([]string{"-config", cfg, "-load=" + art.JSON}); code != 0 {
		t.Errorf("-load=path: exit %d, want 0", code)
	}
}

func TestRunBadFlag(t *testing.T) {
	if code := run([]string{"-unknown"}); code != 2 {
		t.Errorf("unknown flag: exit %d, want 2", code)
	}
}

func TestLoadFlag(t *testing.T) {
	var f loadFlag
	if !f.IsBoolFlag() {
		t.Fatal("load must accept a bare -load")
	}
	f.Set("true")
	if !f.set || f.ref != "" {
		t.Errorf("bare -load = %+v", f)
	}
	f.Set("data/scan_20260302_1630.json")
	if f.ref != "data/scan_20260302_1630.json" {
		t.Errorf("ref = %q", f.ref)
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
