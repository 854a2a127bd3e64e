package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/formrec/internal/events"
	"github.com/alfredjeanlab/formrec/internal/model"
	"github.com/alfredjeanlab/formrec/internal/store"
)

// RecordServer serves an Airtable-compatible REST API over a store.Store so
// the remote-backed cache can run against a local process.
type RecordServer struct {
	store     store.Store
	publisher events.Publisher
	stream    *streamHub
	now       func() time.Time

	schemaMu sync.RWMutex
	schemas  map[string]model.Schema // table name → schema enforced on create
}

// NewRecordServer returns a new RecordServer backed by the given store and publisher.
func NewRecordServer(s store.Store, p events.Publisher) *RecordServer {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	return &RecordServer{
		store:     s,
		publisher: p,
		stream:    newStreamHub(streamHistory),
		now:       time.Now,
		schemas:   make(map[string]model.Schema),
	}
}

// SetSchema makes creates in every collection named table validate against
// schema. Tables without a schema accept any fields.
func (s *RecordServer) SetSchema(table string, schema model.Schema) {
	s.schemaMu.Lock()
	s.schemas[table] = schema
	s.schemaMu.Unlock()
}

func (s *RecordServer) schemaFor(table string) (model.Schema, bool) {
	s.schemaMu.RLock()
	defer s.schemaMu.RUnlock()
	schema, ok := s.schemas[table]
	return schema, ok
}

// recordAndPublish publishes an event and fans it out to stream subscribers.
// Both are best-effort; failures are logged but do not fail the request.
func (s *RecordServer) recordAndPublish(ctx context.Context, topic, recordID string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "record_id", recordID, "error", err)
	}
	s.broadcastEvent(topic, event)
}

// inputError indicates an unusable request body.
// The HTTP layer maps this to 422 / INVALID_REQUEST_BODY.
type inputError string

func (e inputError) Error() string { return string(e) }
