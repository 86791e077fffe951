package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/eduardosasso/bullish/internal/logger"
	"github.com/eduardosasso/bullish/internal/model"
)

// LatestRef asks Resolve for the most recent snapshot.
const LatestRef = "latest"

const (
	filePrefix   = "scan_"
	nameLayout   = "20060102_1504"
	jsonExt      = ".json"
	csvExt       = ".csv"
	parquetExt   = ".parquet"
	snapshotGlob = filePrefix + "*" + jsonExt
)

var (
	ErrNoSnapshot       = errors.New("no scan files found")
	ErrSnapshotNotFound = errors.New("file not found")
)

// Artifacts are the paths written for one saved outcome. Parquet is empty
// unless the export is enabled.
type Artifacts struct {
	JSON    string
	CSV     string
	Parquet string
}

// Paths lists the non-empty artifact paths.
func (a Artifacts) Paths() []string {
	var out []string
	for _, p := range []string{a.JSON, a.CSV, a.Parquet} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Store saves and loads snapshot files in one directory.
type Store struct {
	dir     string
	parquet bool
	log     *logger.Entry
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, parquet bool, log *logger.Log) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{dir: dir, parquet: parquet, log: log.WithComponent("recorder")}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Save writes the JSON and CSV pair (plus parquet when enabled) named after
// the outcome timestamp. Each file is written to a temp file and renamed, and
// a failed run removes whatever it already wrote.
func (s *Store) Save(o *model.ScanOutcome) (Artifacts, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return Artifacts{}, fmt.Errorf("create output dir: %w", err)
	}

	base := filepath.Join(s.dir, filePrefix+o.Timestamp.Format(nameLayout))
	var a Artifacts

	jsonData, err := Encode(o)
	if err != nil {
		return Artifacts{}, err
	}
	csvData, err := EncodeCSV(o)
	if err != nil {
		return Artifacts{}, err
	}

	type artifact struct {
		path *string
		name string
		data []byte
	}
	files := []artifact{
		{&a.JSON, base + jsonExt, jsonData},
		{&a.CSV, base + csvExt, csvData},
	}
	if s.parquet {
		pqData, err := EncodeParquet(o)
		if err != nil {
			return Artifacts{}, fmt.Errorf("encode parquet: %w", err)
		}
		files = append(files, artifact{&a.Parquet, base + parquetExt, pqData})
	}

	for _, f := range files {
		if err := writeFileAtomic(f.name, f.data); err != nil {
			for _, p := range a.Paths() {
				os.Remove(p)
			}
			return Artifacts{}, err
		}
		*f.path = f.name
	}

	s.log.WithField("json", a.JSON).WithField("csv", a.CSV).Info("snapshot saved")
	return a, nil
}

// Latest returns the path of the newest snapshot by name ordering.
func (s *Store) Latest() (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, snapshotGlob))
	if err != nil {
		return "", fmt.Errorf("list snapshots: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoSnapshot, s.dir)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches[0], nil
}

// Resolve maps a reload argument to a snapshot path. An empty ref or
// LatestRef selects the newest snapshot.
func (s *Store) Resolve(ref string) (string, error) {
	if ref == "" || strings.EqualFold(ref, LatestRef) {
		return s.Latest()
	}
	if _, err := os.Stat(ref); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrSnapshotNotFound, ref)
		}
		return "", fmt.Errorf("stat snapshot: %w", err)
	}
	return ref, nil
}

// Load reads a snapshot file written by Save.
func Load(path string) (*model.ScanOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	o, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return o, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
