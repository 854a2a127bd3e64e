package model

import (
	"strings"
	"testing"
)

func sampleRecords() []*Record {
	return []*Record{
		{ID: "1", Fields: map[string]string{FieldName: "Ahmed Benali"}},
		{ID: "2", Fields: map[string]string{FieldName: "Fatima Alaoui"}},
		{ID: "3", Fields: map[string]string{FieldName: "ahmad Idrissi"}},
		{ID: "4", Fields: map[string]string{FieldCity: "Rabat"}},
	}
}

func TestFilterByNamePrefix_Empty(t *testing.T) {
	recs := sampleRecords()
	for _, q := range []string{"", "  "} {
		got := FilterByNamePrefix(recs, q)
		if len(got) != len(recs) {
			t.Fatalf("FilterByNamePrefix(%q) len = %d, want %d", q, len(got), len(recs))
		}
		for i := range recs {
			if got[i] != recs[i] {
				t.Errorf("FilterByNamePrefix(%q)[%d] = %s, want %s", q, i, got[i].ID, recs[i].ID)
			}
		}
	}
}

func TestFilterByNamePrefix_CaseInsensitive(t *testing.T) {
	got := FilterByNamePrefix(sampleRecords(), "AHM")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		ids := make([]string, len(got))
		for i, r := range got {
			ids[i] = r.ID
		}
		t.Fatalf("FilterByNamePrefix(AHM) = %v, want [1 3]", ids)
	}
	for _, r := range got {
		if !strings.HasPrefix(strings.ToLower(r.Name()), "ahm") {
			t.Errorf("record %s name %q does not match prefix", r.ID, r.Name())
		}
	}
}

func TestFilterByNamePrefix_PrefixOnly(t *testing.T) {
	if got := FilterByNamePrefix(sampleRecords(), "benali"); len(got) != 0 {
		t.Errorf("substring match should not count, got %d records", len(got))
	}
}

func TestFilterByNamePrefix_DoesNotMutate(t *testing.T) {
	recs := sampleRecords()
	_ = FilterByNamePrefix(recs, "fat")
	if len(recs) != 4 || recs[0].ID != "1" {
		t.Error("input slice was modified")
	}
}
