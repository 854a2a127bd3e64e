package events

import (
	"context"
	"sync"
)

// Published is one event captured by a MemoryPublisher.
type Published struct {
	Topic string
	Event any
}

// MemoryPublisher records published events in memory. It backs the
// in-process event log shown by the shell and is used by tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Published
}

func (m *MemoryPublisher) Publish(ctx context.Context, topic string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Published{Topic: topic, Event: event})
	return nil
}

// Events returns a copy of every event published so far.
func (m *MemoryPublisher) Events() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.events...)
}

// Topics returns the topics of every event published so far, in order.
func (m *MemoryPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Topic
	}
	return out
}

func (m *MemoryPublisher) Close() error {
	return nil
}

// Multi fans every event out to each of its publishers. The first error is
// returned after all publishers have been tried.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, topic string, event any) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, topic, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() error {
	var first error
	for _, p := range m {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
