package sync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitDestination commits each changed snapshot to a file in an existing
// local clone and pushes it to origin.
type GitDestination struct {
	repo   string
	file   string
	branch string
}

func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{repo: repo, file: file, branch: branch}
}

func (d *GitDestination) Name() string {
	return "git:" + filepath.Join(d.repo, d.file) + "@" + d.branch
}

func (d *GitDestination) Write(ctx context.Context, data []byte) error {
	if _, err := d.git(ctx, "checkout", d.branch); err != nil {
		return err
	}
	// The branch may not exist on origin yet.
	_, _ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	if err := d.replaceFile(data); err != nil {
		return err
	}
	if _, err := d.git(ctx, "add", "--", d.file); err != nil {
		return err
	}
	if _, err := d.git(ctx, "diff", "--cached", "--quiet", "--", d.file); err == nil {
		return nil
	}

	msg := fmt.Sprintf("sync: update %s (%d records)", filepath.Base(d.file), snapshotRecords(data))
	if _, err := d.git(ctx, "commit", "-m", msg, "--", d.file); err != nil {
		return err
	}
	_, err := d.git(ctx, "push", "origin", d.branch)
	return err
}

// replaceFile writes the snapshot through a temp file so a reader of the
// clone never sees a partial export.
func (d *GitDestination) replaceFile(data []byte) error {
	path := filepath.Join(d.repo, d.file)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".formrec-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// git runs a git subcommand in the clone. Failures carry the command's
// combined output.
func (d *GitDestination) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(out.String()))
	}
	return out.String(), nil
}
