package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alfredjeanlab/formrec/internal/client"
	"github.com/alfredjeanlab/formrec/internal/events"
	"github.com/alfredjeanlab/formrec/internal/idgen"
	"github.com/alfredjeanlab/formrec/internal/model"
	"github.com/alfredjeanlab/formrec/internal/store"
)

// handleListRecords handles GET /v0/{base}/{table}.
func (s *RecordServer) handleListRecords(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "INVALID_REQUEST_UNKNOWN", err.Error())
		return
	}

	collection := store.Collection(r.PathValue("base"), r.PathValue("table"))
	records, total, err := s.store.ListRecords(r.Context(), collection, store.ListFilter{Limit: limit, Offset: offset})
	if err != nil {
		slog.Error("list records failed", "collection", collection, "error", err)
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "failed to list records")
		return
	}

	resp := struct {
		Records []recordJSON `json:"records"`
		Offset  string       `json:"offset,omitempty"`
	}{Records: make([]recordJSON, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, toRecordJSON(rec))
	}
	if next := offset + len(records); len(records) > 0 && next < total {
		resp.Offset = strconv.Itoa(next)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCreateRecord handles POST /v0/{base}/{table}.
func (s *RecordServer) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "INVALID_REQUEST_BODY", err.Error())
		return
	}

	canonical := model.CanonicalFields(fields)

	table := r.PathValue("table")
	if schema, ok := s.schemaFor(table); ok {
		if err := model.ValidateFields(canonical, schema); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "INVALID_VALUE_FOR_COLUMN", err.Error())
			return
		}
	}

	id, err := idgen.Generate()
	if err != nil {
		slog.Error("generate record id failed", "error", err)
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "failed to create record")
		return
	}
	rec := &model.Record{
		ID:        id,
		Fields:    canonical,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	collection := store.Collection(r.PathValue("base"), table)
	if err := s.store.CreateRecord(r.Context(), collection, rec); err != nil {
		slog.Error("create record failed", "collection", collection, "error", err)
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "failed to create record")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicRecordCreated, rec.ID, events.RecordCreated{
		Table:  table,
		Record: rec.Clone(),
	})
	writeJSON(w, http.StatusOK, toRecordJSON(rec))
}

// handleGetRecord handles GET /v0/{base}/{table}/{id}.
func (s *RecordServer) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	collection := store.Collection(r.PathValue("base"), r.PathValue("table"))
	rec, err := s.store.GetRecord(r.Context(), collection, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeNotFound(w)
		return
	}
	if err != nil {
		slog.Error("get record failed", "collection", collection, "error", err)
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "failed to get record")
		return
	}
	writeJSON(w, http.StatusOK, toRecordJSON(rec))
}

// handleDeleteRecord handles DELETE /v0/{base}/{table}/{id}.
func (s *RecordServer) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	id := r.PathValue("id")
	collection := store.Collection(r.PathValue("base"), table)

	err := s.store.DeleteRecord(r.Context(), collection, id)
	if errors.Is(err, store.ErrNotFound) {
		writeNotFound(w)
		return
	}
	if err != nil {
		slog.Error("delete record failed", "collection", collection, "record_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "failed to delete record")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicRecordDeleted, id, events.RecordDeleted{
		Table:    table,
		RecordID: id,
	})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

// toRecordJSON renders rec with remote column names.
func toRecordJSON(rec *model.Record) recordJSON {
	out := recordJSON{
		ID:          rec.ID,
		Fields:      make(map[string]string, len(rec.Fields)),
		CreatedTime: formatCreatedTime(rec.CreatedAt),
	}
	for k, v := range rec.Fields {
		out.Fields[client.WireName(k)] = v
	}
	return out
}
