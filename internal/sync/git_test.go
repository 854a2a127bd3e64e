package sync

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/formrec/internal/model"
)

// newClone creates a bare remote with one commit on main and returns the
// path of a working clone and of the remote.
func newClone(t *testing.T) (repo, remote string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	remote = t.TempDir()
	gitRun(t, remote, "init", "--bare")
	gitRun(t, remote, "symbolic-ref", "HEAD", "refs/heads/main")

	work := t.TempDir()
	gitRun(t, work, "clone", remote, "repo")
	repo = filepath.Join(work, "repo")
	gitRun(t, repo, "symbolic-ref", "HEAD", "refs/heads/main")
	gitRun(t, repo, "config", "user.email", "sync@example.com")
	gitRun(t, repo, "config", "user.name", "formrec sync")

	if err := os.WriteFile(filepath.Join(repo, "README"), []byte("snapshots\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gitRun(t, repo, "add", "README")
	gitRun(t, repo, "commit", "-m", "init")
	gitRun(t, repo, "push", "origin", "main")
	return repo, remote
}

func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return strings.TrimSpace(out.String())
}

func commitCount(t *testing.T, remote string) string {
	t.Helper()
	return gitRun(t, remote, "rev-list", "--count", "main")
}

func TestGitDestination_CommitsOnlyChanges(t *testing.T) {
	repo, remote := newClone(t)
	dest := NewGitDestination(repo, "records.jsonl", "main")
	ctx := context.Background()

	first := []byte(`{"version":"1","type":"header","record_count":0}` + "\n")
	if err := dest.Write(ctx, first); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if got := commitCount(t, remote); got != "2" {
		t.Fatalf("commits after first write = %s, want 2", got)
	}

	if err := dest.Write(ctx, first); err != nil {
		t.Fatalf("unchanged write: %v", err)
	}
	if got := commitCount(t, remote); got != "2" {
		t.Fatalf("an unchanged snapshot was committed (%s commits)", got)
	}

	second := []byte(`{"version":"1","type":"header","record_count":1}` + "\n")
	if err := dest.Write(ctx, second); err != nil {
		t.Fatalf("changed write: %v", err)
	}
	if got := commitCount(t, remote); got != "3" {
		t.Fatalf("commits after change = %s, want 3", got)
	}
	if msg := gitRun(t, remote, "log", "-1", "--format=%s", "main"); msg != "sync: update records.jsonl (0 records)" {
		t.Errorf("commit message = %q", msg)
	}
}

func TestGitDestination_ExportsCacheSnapshot(t *testing.T) {
	repo, _ := newClone(t)
	dest := NewGitDestination(repo, "snapshots/objects.jsonl", "main")

	records := []*model.Record{
		{ID: "recA", Fields: map[string]string{"name": "Ahmed Benali"}, CreatedAt: time.Now().UTC()},
		{ID: "recF", Fields: map[string]string{"name": "Fatima Alaoui"}, CreatedAt: time.Now().UTC()},
	}
	src := FromRecords("appLocal/Objects", func() []*model.Record { return records })
	if err := NewScheduler(src, []Destination{dest}, time.Minute, nil).SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(repo, "snapshots", "objects.jsonl"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	lines := nonEmptyLines(string(got))
	if len(lines) != 3 {
		t.Fatalf("snapshot has %d lines, want header + 2 records:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[1], `"id":"recA"`) || !strings.Contains(lines[2], `"id":"recF"`) {
		t.Errorf("records out of order:\n%s", got)
	}
}
