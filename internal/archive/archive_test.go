package archive

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/eduardosasso/bullish/internal/logger"
)

type fakePutter struct {
	keys   []string
	bodies map[string]string
	types  map[string]string
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	key := aws.ToString(in.Key)
	f.keys = append(f.keys, key)
	f.bodies[key] = string(body)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func writeFiles(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, body := range map[string]string{
		"scan_20260314_1645.json": `{"total_stocks":0}`,
		"scan_20260314_1645.csv":  "ticker\n",
	} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestKey(t *testing.T) {
	ts := time.Date(2026, 3, 14, 16, 45, 0, 0, time.UTC)
	if got := Key(ts, "/data/scan_20260314_1645.json"); got != "2026-03/scan_20260314_1645.json" {
		t.Errorf("Key = %s", got)
	}
}

func TestArchiveUploads(t *testing.T) {
	paths := writeFiles(t)
	fake := &fakePutter{bodies: map[string]string{}, types: map[string]string{}}
	a := &S3Archiver{client: fake, bucket: "bullish-archive", log: logger.Discard().WithComponent("archive")}

	ts := time.Date(2026, 3, 14, 16, 45, 0, 0, time.UTC)
	if err := a.Archive(context.Background(), ts, paths...); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if len(fake.keys) != 2 {
		t.Fatalf("uploads = %d, want 2", len(fake.keys))
	}
	if fake.bodies["2026-03/scan_20260314_1645.json"] != `{"total_stocks":0}` {
		t.Errorf("json body = %q", fake.bodies["2026-03/scan_20260314_1645.json"])
	}
	if fake.types["2026-03/scan_20260314_1645.csv"] != "text/csv" {
		t.Errorf("csv content type = %q", fake.types["2026-03/scan_20260314_1645.csv"])
	}
}

func TestArchiveErrors(t *testing.T) {
	fake := &fakePutter{err: errors.New("access denied")}
	a := &S3Archiver{client: fake, bucket: "b", log: logger.Discard().WithComponent("archive")}
	if err := a.Archive(context.Background(), time.Now(), writeFiles(t)...); err == nil {
		t.Error("expected upload error")
	}
	if err := a.Archive(context.Background(), time.Now(), "/nonexistent/scan.json"); err == nil {
		t.Error("expected read error")
	}
}

func TestNewS3ArchiverRequiresBucket(t *testing.T) {
	if _, err := NewS3Archiver(context.Background(), Options{Region: "us-east-1"}, logger.Discard()); err == nil {
		t.Error("expected error for empty bucket")
	}
}

func TestS3ArchiverAgainstEndpoint(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, err := NewS3Archiver(context.Background(), Options{
		Bucket:          "bullish-archive",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		PathStyle:       true,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}, logger.Discard())
	if err != nil {
		t.Fatalf("NewS3Archiver: %v", err)
	}

	paths := writeFiles(t)
	ts := time.Date(2026, 3, 14, 16, 45, 0, 0, time.UTC)
	if err := a.Archive(context.Background(), ts, paths[0]); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := "PUT /bullish-archive/2026-03/" + filepath.Base(paths[0])
	if len(seen) != 1 || seen[0] != want {
		t.Errorf("requests = %v, want [%s]", seen, want)
	}
}
