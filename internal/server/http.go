package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/alfredjeanlab/formrec/internal/model"
)

const (
	// defaultPageSize and maxPageSize bound one page of GET on a collection.
	defaultPageSize = 100
	maxPageSize     = 100

	// createdTimeLayout is how createdTime is rendered on the wire.
	createdTimeLayout = "2006-01-02T15:04:05.000Z"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v0/health) must include
// a valid Authorization: Bearer <token> header.
func (s *RecordServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v0/health", s.handleHealth)
	mux.HandleFunc("GET /v0/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v0/{base}/{table}", s.handleListRecords)
	mux.HandleFunc("POST /v0/{base}/{table}", s.handleCreateRecord)
	mux.HandleFunc("GET /v0/{base}/{table}/{id}", s.handleGetRecord)
	mux.HandleFunc("DELETE /v0/{base}/{table}/{id}", s.handleDeleteRecord)
	return RecoveryMiddleware(LoggingMiddleware(AuthMiddleware(authToken, mux)))
}

// handleHealth handles GET /v0/health.
func (s *RecordServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	subscribers, dropped := s.stream.stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"sse_clients": subscribers,
		"sse_dropped": dropped,
	})
}

// recordJSON is one record as it appears on the wire.
type recordJSON struct {
	ID          string            `json:"id"`
	Fields      map[string]string `json:"fields"`
	CreatedTime string            `json:"createdTime,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error body of the form
// {"error": {"type": ..., "message": ...}}.
func writeError(w http.ResponseWriter, status int, typ, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"type": typ, "message": message},
	})
}

// writeNotFound writes the bare {"error": "NOT_FOUND"} body used for
// unknown records.
func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
}

// parsePage reads pageSize and offset from the query string. The offset
// token is the position of the next record in creation order.
func parsePage(r *http.Request) (limit, offset int, err error) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("pageSize"); v != "" {
		n, perr := strconv.Atoi(v)
		if perr != nil || n < 1 {
			return 0, 0, inputError(fmt.Sprintf("invalid pageSize %q", v))
		}
		limit = min(n, maxPageSize)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, perr := strconv.Atoi(v)
		if perr != nil || n < 0 {
			return 0, 0, inputError(fmt.Sprintf("invalid offset %q", v))
		}
		offset = n
	}
	return limit, offset, nil
}

// decodeFields reads a {"fields": {...}} body. Values that are not strings
// are rendered as text: string lists are joined with ", ", null is dropped,
// and numbers and booleans keep their JSON spelling.
func decodeFields(r *http.Request) (map[string]string, error) {
	var req struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, inputError("invalid JSON body")
	}
	out := make(map[string]string, len(req.Fields))
	for k, raw := range req.Fields {
		v, ok := model.FieldText(raw)
		if !ok {
			continue
		}
		out[k] = v
	}
	return out, nil
}

func formatCreatedTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(createdTimeLayout)
}
