package model

import (
	"sort"
	"strings"
	"time"
)

// Canonical field names. The client normalizes remote field casing to these
// before records reach the cache.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldCity  = "city"
	FieldPhone = "phone"
	FieldAge   = "age"
	FieldNote  = "note"
)

// Record is one stored row of user-entered data.
type Record struct {
	ID        string            `json:"id"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at,omitzero"`
}

// Name returns the record's name field.
func (r *Record) Name() string {
	return r.Fields[FieldName]
}

// Field returns the value of the named field, or "" when unset.
func (r *Record) Field(key string) string {
	return r.Fields[key]
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{ID: r.ID, CreatedAt: r.CreatedAt}
	out.Fields = make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

// FieldNames returns the record's field names in sorted order.
func (r *Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Draft holds uncommitted form input. It is owned by the caller and passed
// into the cache; the caller resets it after a successful add.
type Draft map[string]string

// Set stores value under the canonical (lower-case) form of key.
func (d Draft) Set(key, value string) {
	d[CanonicalField(key)] = value
}

// Reset clears every field of the draft.
func (d Draft) Reset() {
	for k := range d {
		delete(d, k)
	}
}

// Fields returns the trimmed, non-empty field values keyed by canonical name.
func (d Draft) Fields() map[string]string {
	out := make(map[string]string, len(d))
	for k, v := range d {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return CanonicalFields(out)
}

// CanonicalField returns the canonical spelling of a field name.
func CanonicalField(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
