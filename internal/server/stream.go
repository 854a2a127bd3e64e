package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alfredjeanlab/formrec/internal/events"
)

const (
	// streamHistory is how many events a reconnecting client can replay.
	streamHistory = 1000

	streamKeepalive   = 15 * time.Second
	streamRetryMillis = 3000
	streamClientQueue = 64

	// topicStreamGap replaces the replay when Last-Event-ID has already been
	// evicted. A client that sees it should reload the collection.
	topicStreamGap = "formrec.stream.gap"
)

type streamEvent struct {
	ID    uint64
	Topic string
	Table string
	Data  []byte
}

// eventRing holds the most recent events and assigns their sequence numbers.
type eventRing struct {
	mu    sync.RWMutex
	buf   []streamEvent
	next  int
	count int
	seq   uint64
}

func newEventRing(size int) *eventRing {
	return &eventRing{buf: make([]streamEvent, size)}
}

func (r *eventRing) append(topic, table string, data []byte) streamEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ev := streamEvent{ID: r.seq, Topic: topic, Table: table, Data: data}
	r.buf[r.next] = ev
	r.next = (r.next + 1) % len(r.buf)
	r.count = min(r.count+1, len(r.buf))
	return ev
}

// since returns the retained events after id, oldest first. ok is false when
// some of those events were already overwritten.
func (r *eventRing) since(id uint64) (evs []streamEvent, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.count == 0 {
		return nil, true
	}
	first := (r.next - r.count + len(r.buf)) % len(r.buf)
	if r.buf[first].ID > id+1 {
		return nil, false
	}
	for i := range r.count {
		if ev := r.buf[(first+i)%len(r.buf)]; ev.ID > id {
			evs = append(evs, ev)
		}
	}
	return evs, true
}

// streamFilter selects events by topic pattern and table. The zero value
// passes everything; events without a table pass any table filter.
type streamFilter struct {
	topics []string
	table  string
}

func filterFromQuery(q url.Values) streamFilter {
	f := streamFilter{table: q.Get("table")}
	for _, t := range strings.Split(q.Get("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			f.topics = append(f.topics, t)
		}
	}
	return f
}

func (f streamFilter) allows(ev streamEvent) bool {
	if f.table != "" && ev.Table != "" && ev.Table != f.table {
		return false
	}
	if len(f.topics) == 0 {
		return true
	}
	for _, p := range f.topics {
		if events.MatchTopic(p, ev.Topic) {
			return true
		}
	}
	return false
}

type streamSub struct {
	filter streamFilter
	ch     chan streamEvent
}

// streamHub fans record events out to SSE subscribers. A subscriber whose
// queue is full misses the event; the count of such misses is kept.
type streamHub struct {
	history *eventRing
	dropped atomic.Uint64

	mu   sync.RWMutex
	subs map[*streamSub]struct{}
}

func newStreamHub(history int) *streamHub {
	return &streamHub{
		history: newEventRing(history),
		subs:    make(map[*streamSub]struct{}),
	}
}

func (h *streamHub) broadcast(topic, table string, data []byte) {
	ev := h.history.append(topic, table, data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.filter.allows(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *streamHub) subscribe(f streamFilter) *streamSub {
	sub := &streamSub{filter: f, ch: make(chan streamEvent, streamClientQueue)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *streamHub) unsubscribe(sub *streamSub) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

func (h *streamHub) stats() (subscribers int, dropped uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs), h.dropped.Load()
}

// handleEventStream handles GET /v0/events/stream?topics=a,b&table=T.
func (s *RecordServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "streaming not supported")
		return
	}

	sub := s.stream.subscribe(filterFromQuery(r.URL.Query()))
	defer s.stream.unsubscribe(sub)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "retry:%d\n\n", streamRetryMillis)

	// Events broadcast after subscribe but before replay land in both the
	// history and sub.ch; anything at or below replayed was already sent.
	var replayed uint64
	if last, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		replayed = s.replay(w, sub.filter, last)
	}
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-sub.ch:
			if ev.ID <= replayed {
				continue
			}
			writeStreamEvent(w, ev)
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
		}
		flusher.Flush()
	}
}

// replay writes the retained events after last and returns the highest id
// it read from history, or 0 when it read none.
func (s *RecordServer) replay(w http.ResponseWriter, f streamFilter, last uint64) uint64 {
	evs, complete := s.stream.history.since(last)
	if !complete {
		writeStreamEvent(w, streamEvent{Topic: topicStreamGap, Data: []byte(`{}`)})
	}
	var covered uint64
	for _, ev := range evs {
		if f.allows(ev) {
			writeStreamEvent(w, ev)
		}
		covered = ev.ID
	}
	return covered
}

// writeStreamEvent writes one SSE frame. The gap marker has no id so it
// leaves the client's Last-Event-ID alone.
func writeStreamEvent(w http.ResponseWriter, ev streamEvent) {
	if ev.ID != 0 {
		fmt.Fprintf(w, "id:%d\n", ev.ID)
	}
	fmt.Fprintf(w, "event:%s\ndata:%s\n\n", ev.Topic, ev.Data)
}

func (s *RecordServer) broadcastEvent(topic string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to encode event for stream", "topic", topic, "error", err)
		return
	}
	s.stream.broadcast(topic, events.TableOf(event), data)
}
