package main

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alfredjeanlab/formrec/internal/model"
)

func TestSplitField(t *testing.T) {
	tests := []struct {
		in       string
		key, val string
		ok       bool
	}{
		{"name=Ada", "name", "Ada", true},
		{"note=a=b", "note", "a=b", true},
		{"city=", "city", "", true},
		{"=value", "", "", false},
		{"noequals", "", "", false},
	}
	for _, tt := range tests {
		k, v, ok := splitField(tt.in)
		if k != tt.key || v != tt.val || ok != tt.ok {
			t.Errorf("splitField(%q) = (%q, %q, %v), want (%q, %q, %v)", tt.in, k, v, ok, tt.key, tt.val, tt.ok)
		}
	}
}

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    model.Draft
		wantErr bool
	}{
		{
			name:  "nil input",
			pairs: nil,
			want:  model.Draft{},
		},
		{
			name:  "keys are canonical",
			pairs: []string{"Name=Ahmed Benali", "EMAIL=ahmed@example.com"},
			want:  model.Draft{"name": "Ahmed Benali", "email": "ahmed@example.com"},
		},
		{
			name:  "later pair wins",
			pairs: []string{"city=Rabat", "City=Fes"},
			want:  model.Draft{"city": "Fes"},
		},
		{
			name:    "missing equals",
			pairs:   []string{"name"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDraft(tt.pairs)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("draft mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDescribeError(t *testing.T) {
	err := model.ValidateFields(map[string]string{"name": "Ada"}, model.ObjectSchema)
	want := "please fix the following fields:\n  email: is required\n  city: is required"
	if got := describeError(err); got != want {
		t.Errorf("describeError = %q, want %q", got, want)
	}

	plain := errors.New("boom")
	if got := describeError(plain); got != "boom" {
		t.Errorf("describeError(plain) = %q", got)
	}
}
