package sync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/formrec/internal/model"
)

// fakeS3 accepts PutObject requests and keeps the last upload.
type fakeS3 struct {
	mu          sync.Mutex
	path        string
	body        string
	contentType string
	recordCount string
	status      int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Method != http.MethodPut {
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(r.Body)
	f.path = r.URL.Path
	f.body = string(body)
	f.contentType = r.Header.Get("Content-Type")
	f.recordCount = r.Header.Get("X-Amz-Meta-Record-Count")
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	w.Header().Set("ETag", `"abc"`)
	w.WriteHeader(http.StatusOK)
}

func newFakeS3Destination(t *testing.T, fake *fakeS3) *S3Destination {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_SESSION_TOKEN", "")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	dest, err := NewS3Destination(context.Background(), "snapshots", "formrec/records.jsonl", "us-east-1", srv.URL)
	if err != nil {
		t.Fatalf("NewS3Destination: %v", err)
	}
	return dest
}

func TestS3Destination_UploadsSnapshot(t *testing.T) {
	fake := &fakeS3{}
	dest := newFakeS3Destination(t, fake)

	records := []*model.Record{
		{ID: "recA", Fields: map[string]string{"name": "Ahmed Benali"}, CreatedAt: time.Now().UTC()},
		{ID: "recF", Fields: map[string]string{"name": "Fatima Alaoui"}, CreatedAt: time.Now().UTC()},
	}
	src := FromRecords("appLocal/Objects", func() []*model.Record { return records })
	if err := NewScheduler(src, []Destination{dest}, time.Minute, nil).SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.path != "/snapshots/formrec/records.jsonl" {
		t.Errorf("path = %q, want path-style bucket/key", fake.path)
	}
	if fake.contentType != "application/x-ndjson" {
		t.Errorf("content type = %q", fake.contentType)
	}
	if fake.recordCount != "2" {
		t.Errorf("record-count metadata = %q, want 2", fake.recordCount)
	}
	if !strings.Contains(fake.body, `"id":"recF"`) {
		t.Errorf("body missing record:\n%s", fake.body)
	}
}

func TestS3Destination_ErrorNamesObject(t *testing.T) {
	fake := &fakeS3{status: http.StatusForbidden}
	dest := newFakeS3Destination(t, fake)

	err := dest.Write(context.Background(), []byte(`{"type":"header"}`+"\n"))
	if err == nil {
		t.Fatal("expected error from a 403 upload")
	}
	if !strings.Contains(err.Error(), "s3://snapshots/formrec/records.jsonl") {
		t.Errorf("error should name the object: %v", err)
	}
}

func TestSnapshotRecords(t *testing.T) {
	for in, want := range map[string]int{
		"":                           0,
		"{\"type\":\"header\"}\n":    0,
		"{}\n{}\n{}\n":               2,
		"{}\n\n{}\n   \n{}\n{}\n\n": 3,
	} {
		if got := snapshotRecords([]byte(in)); got != want {
			t.Errorf("snapshotRecords(%q) = %d, want %d", in, got, want)
		}
	}
}
