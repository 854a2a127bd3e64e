// Package cache holds the authoritative in-process list of records and
// reconciles it with an optional remote record store. Mutations are applied
// to the list only after the store confirms them, so a failed operation
// leaves the cache exactly as it was.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alfredjeanlab/formrec/internal/client"
	"github.com/alfredjeanlab/formrec/internal/events"
	"github.com/alfredjeanlab/formrec/internal/idgen"
	"github.com/alfredjeanlab/formrec/internal/model"
)

var (
	// ErrNotConfirmed is returned by Remove when the confirmation does not
	// belong to the record being removed.
	ErrNotConfirmed = errors.New("removal not confirmed")
	// ErrLocalOnly is returned by operations that need a remote store.
	ErrLocalOnly = errors.New("no remote store configured")
	// ErrUnsupported is returned by operations the remote-backed cache
	// does not offer.
	ErrUnsupported = errors.New("not supported with a remote store")
	// ErrNotFound is returned when an id is not in the cache.
	ErrNotFound = errors.New("record not found")
)

// Options configures a Cache.
type Options struct {
	// Store is the remote record store. Nil makes the cache local-only.
	Store client.RecordStore
	// Schema validates drafts. Defaults to model.ObjectSchema.
	Schema model.Schema
	// Table names the collection in published events.
	Table     string
	Publisher events.Publisher
	Logger    *slog.Logger
	// Now stamps locally created records. Defaults to time.Now.
	Now func() time.Time
	// Seed is the initial content. Records without an id get one; later
	// duplicates of an id are dropped.
	Seed []*model.Record
}

// Status is the read-side state a UI renders next to the list.
type Status struct {
	Loading     bool   `json:"loading"`
	LastError   string `json:"last_error,omitempty"`
	LastSuccess string `json:"last_success,omitempty"`
}

// Confirmation is proof that the user agreed to remove one record. The zero
// value confirms nothing.
type Confirmation struct {
	id string
	ok bool
}

// ID returns the record id the confirmation was issued for.
func (c Confirmation) ID() string { return c.id }

// Cache is safe for concurrent use. Mutating operations run one at a time in
// arrival order; readers never wait for them.
type Cache struct {
	store  client.RecordStore
	schema model.Schema
	table  string
	pub    events.Publisher
	logger *slog.Logger
	now    func() time.Time

	queue   chan struct{}
	pending atomic.Int32

	mu          sync.RWMutex
	records     []*model.Record
	lastError   string
	lastSuccess string
}

// New creates a cache from opts.
func New(opts Options) *Cache {
	c := &Cache{
		store:  opts.Store,
		schema: opts.Schema,
		table:  opts.Table,
		pub:    opts.Publisher,
		logger: opts.Logger,
		now:    opts.Now,
		queue:  make(chan struct{}, 1),
	}
	if c.schema.Name == "" && len(c.schema.Fields) == 0 {
		c.schema = model.ObjectSchema
	}
	if c.pub == nil {
		c.pub = &events.NoopPublisher{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	for _, r := range opts.Seed {
		if r == nil {
			continue
		}
		r = r.Clone()
		if r.ID == "" {
			r.ID = idgen.MustGenerate()
		}
		if r.Fields == nil {
			r.Fields = map[string]string{}
		}
		if c.indexOf(r.ID) < 0 {
			c.records = append(c.records, r)
		}
	}
	return c
}

// Remote reports whether the cache is backed by a remote store.
func (c *Cache) Remote() bool { return c.store != nil }

// Schema returns the schema drafts are validated against.
func (c *Cache) Schema() model.Schema { return c.schema }

// Add validates draft and appends the new record once it has been created.
// With a remote store the record carries the store's id and creation time;
// otherwise a local id is generated. The caller should reset draft after a
// nil error.
func (c *Cache) Add(ctx context.Context, draft model.Draft) (*model.Record, error) {
	fields := draft.Fields()
	if err := model.ValidateFields(fields, c.schema); err != nil {
		c.fail(err)
		return nil, err
	}

	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var rec *model.Record
	if c.store != nil {
		rec, err = c.store.Create(ctx, fields)
		if err != nil {
			c.logger.Warn("create failed", "table", c.table, "error", err)
			c.fail(err)
			return nil, fmt.Errorf("adding record: %w", err)
		}
	} else {
		id, err := idgen.Generate()
		if err != nil {
			c.fail(err)
			return nil, fmt.Errorf("adding record: %w", err)
		}
		rec = &model.Record{ID: id, Fields: fields, CreatedAt: c.now()}
	}
	if rec.Fields == nil {
		rec.Fields = map[string]string{}
	}

	c.mu.Lock()
	if c.indexOf(rec.ID) < 0 {
		c.records = append(c.records, rec)
	}
	c.lastError = ""
	c.lastSuccess = "Record added"
	c.mu.Unlock()

	c.publish(ctx, events.TopicRecordCreated, events.RecordCreated{Table: c.table, Record: rec.Clone()})
	return rec.Clone(), nil
}

// Confirm issues the confirmation Remove requires for id.
func (c *Cache) Confirm(id string) Confirmation {
	return Confirmation{id: id, ok: true}
}

// Remove deletes the record with the given id. With a remote store the store
// is always asked, even for ids the cache does not hold, and the cache only
// changes after it succeeds. Removing an id the cache does not hold is
// otherwise a no-op.
func (c *Cache) Remove(ctx context.Context, id string, confirm Confirmation) error {
	if !confirm.ok || confirm.id != id {
		return ErrNotConfirmed
	}

	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if c.store != nil {
		if err := c.store.Remove(ctx, id); err != nil {
			c.logger.Warn("remove failed", "table", c.table, "record_id", id, "error", err)
			c.fail(err)
			return fmt.Errorf("removing record %s: %w", id, err)
		}
	}

	c.mu.Lock()
	removed := false
	if i := c.indexOf(id); i >= 0 {
		c.records = append(c.records[:i:i], c.records[i+1:]...)
		removed = true
	}
	c.lastError = ""
	c.lastSuccess = "Record deleted"
	c.mu.Unlock()

	if removed || c.store != nil {
		c.publish(ctx, events.TopicRecordDeleted, events.RecordDeleted{Table: c.table, RecordID: id})
	}
	return nil
}

// Refresh replaces the whole cache with the store's listing. On failure the
// cache is left as it was. When the listing repeats an id, the first
// occurrence wins.
func (c *Cache) Refresh(ctx context.Context) error {
	if c.store == nil {
		return ErrLocalOnly
	}

	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	list, err := c.store.List(ctx)
	if err != nil {
		c.logger.Warn("refresh failed", "table", c.table, "error", err)
		c.fail(err)
		return fmt.Errorf("refreshing records: %w", err)
	}

	seen := make(map[string]bool, len(list))
	records := make([]*model.Record, 0, len(list))
	for _, r := range list {
		if r == nil || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		if r.Fields == nil {
			r.Fields = map[string]string{}
		}
		records = append(records, r)
	}

	c.mu.Lock()
	c.records = records
	c.lastError = ""
	c.lastSuccess = fmt.Sprintf("Loaded %d records", len(records))
	c.mu.Unlock()

	c.publish(ctx, events.TopicRecordRefreshed, events.RecordRefreshed{Table: c.table, Count: len(records)})
	return nil
}

// Update replaces the fields of a cached record, keeping its id, position
// and creation time. Only the local-only cache supports it.
func (c *Cache) Update(ctx context.Context, id string, draft model.Draft) (*model.Record, error) {
	if c.store != nil {
		return nil, ErrUnsupported
	}
	fields := draft.Fields()
	if err := model.ValidateFields(fields, c.schema); err != nil {
		c.fail(err)
		return nil, err
	}

	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("updating %s: %w", id, ErrNotFound)
	}
	rec := &model.Record{ID: id, Fields: fields, CreatedAt: c.records[i].CreatedAt}
	c.records[i] = rec
	c.lastError = ""
	c.lastSuccess = "Record updated"
	c.mu.Unlock()

	c.publish(ctx, events.TopicRecordUpdated, events.RecordUpdated{Table: c.table, Record: rec.Clone()})
	return rec.Clone(), nil
}

// FilterByNamePrefix returns copies of the records whose name starts with
// query, ignoring case. A blank query returns every record.
func (c *Cache) FilterByNamePrefix(query string) []*model.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(model.FilterByNamePrefix(c.records, query))
}

// Records returns copies of every cached record in order.
func (c *Cache) Records() []*model.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(c.records)
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Get returns a copy of the record with the given id.
func (c *Cache) Get(id string) (*model.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.records[i].Clone(), true
	}
	return nil, false
}

// Status returns the loading flag and the last outcome messages.
func (c *Cache) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		Loading:     c.pending.Load() > 0,
		LastError:   c.lastError,
		LastSuccess: c.lastSuccess,
	}
}

// acquire waits for the operation queue. The returned func releases it.
func (c *Cache) acquire(ctx context.Context) (func(), error) {
	c.pending.Add(1)
	select {
	case c.queue <- struct{}{}:
		return func() {
			<-c.queue
			c.pending.Add(-1)
		}, nil
	case <-ctx.Done():
		c.pending.Add(-1)
		return nil, ctx.Err()
	}
}

// indexOf must be called with mu held (or before the cache is shared).
func (c *Cache) indexOf(id string) int {
	for i, r := range c.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cache) fail(err error) {
	c.mu.Lock()
	c.lastError = Message(err)
	c.lastSuccess = ""
	c.mu.Unlock()
}

func (c *Cache) publish(ctx context.Context, topic string, event any) {
	if err := c.pub.Publish(context.WithoutCancel(ctx), topic, event); err != nil {
		c.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

// Message returns the text a UI shows for err: the store's own message for
// remote failures, the field list for validation failures.
func Message(err error) string {
	var re *client.RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return err.Error()
}

func cloneAll(in []*model.Record) []*model.Record {
	out := make([]*model.Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
