package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// TableHeader carries the record table on every published message.
const TableHeader = "Formrec-Table"

// NATSPublisher publishes record events as JSON on their topic subject.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	nc, err := connect(url, "formrec-publisher", opts)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	msg := nats.NewMsg(topic)
	msg.Data = data
	if table := TableOf(event); table != "" {
		msg.Header.Set(TableHeader, table)
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

// Flush blocks until the server has received everything published so far.
func (p *NATSPublisher) Flush() error {
	return p.conn.Flush()
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber delivers record events from NATS. The connection retries
// forever, so a watcher survives server restarts.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects to url. Options such as disconnect and
// reconnect handlers are applied after the defaults and override them.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	opts = append([]nats.Option{nats.MaxReconnects(-1), nats.ReconnectWait(time.Second)}, opts...)
	nc, err := connect(url, "formrec-subscriber", opts)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

func connect(url, name string, opts []nats.Option) (*nats.Conn, error) {
	nc, err := nats.Connect(url, append([]nats.Option{nats.Name(name)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// natsDelivery bridges one NATS subscription onto a buffered channel. The
// channel is closed exactly once, after the last delivery.
type natsDelivery struct {
	mu     sync.Mutex
	ch     chan Message
	closed bool
	sub    *nats.Subscription
	once   sync.Once
}

func (d *natsDelivery) handle(msg *nats.Msg) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	m := Message{Topic: msg.Subject, Table: msg.Header.Get(TableHeader), Data: msg.Data}
	select {
	case d.ch <- m:
	default:
		// A slow reader loses events instead of stalling the connection.
	}
}

func (d *natsDelivery) cancel() {
	d.once.Do(func() {
		if d.sub != nil {
			_ = d.sub.Unsubscribe()
		}
		d.mu.Lock()
		d.closed = true
		close(d.ch)
		d.mu.Unlock()
	})
}

// Subscribe accepts NATS wildcards such as TopicAll.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	d := &natsDelivery{ch: make(chan Message, 64)}
	sub, err := s.conn.Subscribe(topic, d.handle)
	if err != nil {
		d.cancel()
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	d.sub = sub
	// Without a round trip, events published elsewhere right after Subscribe
	// returns could miss the interest registration.
	if err := s.conn.Flush(); err != nil {
		d.cancel()
		return nil, nil, fmt.Errorf("registering subscription to %s: %w", topic, err)
	}
	return d.ch, d.cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
