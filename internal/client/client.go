// Package client provides the record store interface used by the cache and
// an HTTP/JSON implementation that talks to an Airtable-compatible REST API.
package client

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/alfredjeanlab/formrec/internal/model"
)

// RecordStore is the remote collection the cache synchronizes with. Every
// method returns a *RemoteError on failure.
type RecordStore interface {
	List(ctx context.Context) ([]*model.Record, error)
	Create(ctx context.Context, fields map[string]string) (*model.Record, error)
	Remove(ctx context.Context, id string) error

	// Lifecycle
	Close() error
}

// wireRecord is one record as it appears on the wire.
type wireRecord struct {
	ID          string                     `json:"id"`
	Fields      map[string]json.RawMessage `json:"fields"`
	CreatedTime string                     `json:"createdTime,omitempty"`
}

// listResponse is the body of GET on the collection.
type listResponse struct {
	Records []wireRecord `json:"records"`
	Offset  string       `json:"offset,omitempty"`
}

// createRequest is the body of POST on the collection.
type createRequest struct {
	Fields map[string]string `json:"fields"`
}

// deleteResponse is the body of a successful DELETE.
type deleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// knownWireNames maps canonical field names to the column names used by the
// remote table.
var knownWireNames = map[string]string{
	model.FieldName:  "Name",
	model.FieldEmail: "Email",
	model.FieldCity:  "City",
	model.FieldPhone: "Phone",
	model.FieldAge:   "Age",
	model.FieldNote:  "Note",
}

// WireName returns the remote column name for a canonical field name.
func WireName(field string) string {
	field = model.CanonicalField(field)
	if n, ok := knownWireNames[field]; ok {
		return n
	}
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

// toWireFields renames canonical field names to remote column names.
func toWireFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[WireName(k)] = v
	}
	return out
}

// toRecord converts a wire record into the canonical Record shape: field
// names are lower-cased and non-string values rendered as text.
func toRecord(w wireRecord) *model.Record {
	fields := make(map[string]string, len(w.Fields))
	for k, raw := range w.Fields {
		if v, ok := model.FieldText(raw); ok {
			fields[k] = v
		}
	}
	r := &model.Record{ID: w.ID, Fields: model.CanonicalFields(fields)}
	if w.CreatedTime != "" {
		if t, err := time.Parse(time.RFC3339Nano, w.CreatedTime); err == nil {
			r.CreatedAt = t
		}
	}
	return r
}
