package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alfredjeanlab/formrec/internal/events"
)

func runScript(t *testing.T, s *session, script string) string {
	t.Helper()
	var out bytes.Buffer
	if err := runShell(context.Background(), s, "Objects", strings.NewReader(script), &out); err != nil {
		t.Fatalf("runShell: %v", err)
	}
	return out.String()
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{line: "", want: nil},
		{line: "  ls \n", want: []string{"ls"}},
		{line: "add name=Ada city=Oslo", want: []string{"add", "name=Ada", "city=Oslo"}},
		{line: `add name="Ahmed Benali" note='it''s'`, want: []string{"add", "name=Ahmed Benali", "note=its"}},
		{line: `add note="say \"hi\""`, want: []string{"add", `note=say "hi"`}},
		{line: `find ""`, want: []string{"find", ""}},
		{line: `add name="Ada`, wantErr: true},
	}
	for _, tt := range tests {
		got, err := splitArgs(tt.line)
		if tt.wantErr {
			if err == nil {
				t.Errorf("splitArgs(%q): expected error", tt.line)
			}
			continue
		}
		if err != nil {
			t.Errorf("splitArgs(%q): %v", tt.line, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("splitArgs(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}

func TestSampleRecords(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	recs := sampleRecords(now)
	var names []string
	for _, r := range recs {
		names = append(names, r.Name())
		if r.CreatedAt != now {
			t.Errorf("%s: CreatedAt = %v", r.Name(), r.CreatedAt)
		}
	}
	want := []string{"Ahmed Benali", "Fatima Alaoui", "Mohammed Idriss"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestShell_ListAndFind(t *testing.T) {
	s := newLocalSession(t, sampleRecords(time.Now()))
	out := runScript(t, s, "ls\nfind fat\nquit\n")

	for _, name := range []string{"Ahmed Benali", "Fatima Alaoui", "Mohammed Idriss"} {
		if !strings.Contains(out, name) {
			t.Errorf("ls output missing %q:\n%s", name, out)
		}
	}
	if !strings.Contains(out, "1 records (3 total)") {
		t.Errorf("find should report one match of three:\n%s", out)
	}
}

func TestShell_AddKeepsDraftUntilValid(t *testing.T) {
	s := newLocalSession(t, nil)
	out := runScript(t, s, "add name=Zed\ndraft\nadd email=zed@example.com city=Oslo\ndraft\n")

	if !strings.Contains(out, "please fix the following fields:") {
		t.Errorf("expected validation message:\n%s", out)
	}
	if !strings.Contains(out, "name=Zed") {
		t.Errorf("draft should survive the failed add:\n%s", out)
	}
	if !strings.Contains(out, "Record added") {
		t.Errorf("second add should succeed:\n%s", out)
	}
	if !strings.Contains(out, "Draft is empty.") {
		t.Errorf("draft should be reset after a successful add:\n%s", out)
	}
	if s.cache.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.cache.Len())
	}
	rec := s.cache.Records()[0]
	if rec.Name() != "Zed" || rec.Field("city") != "Oslo" {
		t.Errorf("record = %+v", rec.Fields)
	}
}

func TestShell_RemoveAsksForConfirmation(t *testing.T) {
	s := newLocalSession(t, sampleRecords(time.Now()))
	id := s.cache.Records()[1].ID

	out := runScript(t, s, "rm "+id+"\nn\nrm "+id+"\nyes\nquit\n")

	if !strings.Contains(out, "Skipped "+id) {
		t.Errorf("first answer should skip:\n%s", out)
	}
	if !strings.Contains(out, "Deleted "+id) {
		t.Errorf("second answer should delete:\n%s", out)
	}
	if _, ok := s.cache.Get(id); ok {
		t.Error("record still cached after confirmed rm")
	}
	if s.cache.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.cache.Len())
	}
}

func TestShell_Edit(t *testing.T) {
	s := newLocalSession(t, sampleRecords(time.Now()))
	id := s.cache.Records()[0].ID

	runScript(t, s, "edit "+id+" city=Fes\n")

	rec, ok := s.cache.Get(id)
	if !ok {
		t.Fatal("record disappeared")
	}
	if rec.Field("city") != "Fes" || rec.Name() != "Ahmed Benali" {
		t.Errorf("edited record = %+v", rec.Fields)
	}
	if s.cache.Records()[0].ID != id {
		t.Error("edit moved the record")
	}
}

func TestShell_ErrorsDoNotStopTheLoop(t *testing.T) {
	s := newLocalSession(t, nil)
	out := runScript(t, s, "bogus\nrefresh\nedit recMissing name=X\nadd name=\"Ada\nstatus\n")

	for _, want := range []string{
		`unknown command "bogus"`,
		"no remote store configured",
		"record not found",
		"unterminated quote",
		"Mode:     local",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShell_EventsLog(t *testing.T) {
	s := newLocalSession(t, nil)
	out := runScript(t, s, "events\nadd name=Ada email=ada@example.com city=London\nevents\n")

	if !strings.Contains(out, "No events yet.") {
		t.Errorf("expected empty event log first:\n%s", out)
	}
	if !strings.Contains(out, events.TopicRecordCreated) || !strings.Contains(out, "created Objects") {
		t.Errorf("expected created event:\n%s", out)
	}
	if diff := cmp.Diff([]string{events.TopicRecordCreated}, s.log.Topics()); diff != "" {
		t.Errorf("topics (-want +got):\n%s", diff)
	}
}

func TestShell_Export(t *testing.T) {
	s := newLocalSession(t, sampleRecords(time.Now()))
	out := runScript(t, s, "export\n")

	if !strings.Contains(out, `"type":"header"`) {
		t.Errorf("missing JSONL header:\n%s", out)
	}
	if n := strings.Count(out, `"collection":"local/Objects"`); n != 3 {
		t.Errorf("record lines = %d, want 3:\n%s", n, out)
	}
}
