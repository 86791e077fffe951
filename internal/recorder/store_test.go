package recorder

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eduardosasso/bullish/internal/logger"
)

func TestStoreSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s := NewStore(dir, true, logger.Discard())

	want := sampleOutcome()
	a, err := s.Save(want)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(a.JSON) != "scan_20260314_1645.json" {
		t.Errorf("json name = %s", a.JSON)
	}
	if filepath.Base(a.CSV) != "scan_20260314_1645.csv" {
		t.Errorf("csv name = %s", a.CSV)
	}
	if filepath.Base(a.Parquet) != "scan_20260314_1645.parquet" {
		t.Errorf("parquet name = %s", a.Parquet)
	}
	if n := len(a.Paths()); n != 3 {
		t.Errorf("Paths() = %d, want 3", n)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}

	got, err := Load(a.JSON)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertOutcomeEqual(t, got, want)
}

func TestStoreLatest(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, false, logger.Discard())

	if _, err := s.Latest(); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Latest on empty dir = %v, want ErrNoSnapshot", err)
	}
	if _, err := s.Resolve(LatestRef); err == nil || err.Error() != "no scan files found in "+dir {
		t.Errorf("Resolve(latest) error = %v", err)
	}

	o := sampleOutcome()
	for _, ts := range []time.Time{
		time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		time.Date(2026, 3, 15, 9, 5, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 16, 0, 0, 0, time.UTC),
	} {
		o.Timestamp = ts
		if _, err := s.Save(o); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	for _, ref := range []string{"", "latest", "LATEST"} {
		got, err := s.Resolve(ref)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", ref, err)
		}
		if filepath.Base(got) != "scan_20260315_0905.json" {
			t.Errorf("Resolve(%q) = %s", ref, got)
		}
	}
}

func TestStoreResolveExplicit(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, false, logger.Discard())

	missing := filepath.Join(dir, "scan_20200101_0000.json")
	_, err := s.Resolve(missing)
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("Resolve(missing) = %v, want ErrSnapshotNotFound", err)
	}
	if err.Error() != "file not found: "+missing {
		t.Errorf("message = %q", err.Error())
	}

	if _, err := Load(missing); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Load(missing) = %v, want ErrSnapshotNotFound", err)
	}

	a, err := s.Save(sampleOutcome())
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Resolve(a.JSON)
	if err != nil || got != a.JSON {
		t.Errorf("Resolve(%s) = %s, %v", a.JSON, got, err)
	}
}

func TestStoreSaveFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, false, logger.Discard())
	o := sampleOutcome()

	// A directory squatting on the CSV name makes the rename fail.
	if err := os.Mkdir(filepath.Join(dir, "scan_20260314_1645.csv"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scan_20260314_1645.csv", "x"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(o); err == nil {
		t.Fatal("expected Save to fail")
	}
	if _, err := os.Stat(filepath.Join(dir, "scan_20260314_1645.json")); !os.IsNotExist(err) {
		t.Errorf("json should have been removed, stat err = %v", err)
	}
	if _, err := s.Latest(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Latest after failed save = %v, want ErrNoSnapshot", err)
	}
}
