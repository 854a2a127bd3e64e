package events

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/alfredjeanlab/formrec/internal/model"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

// pubSub connects a publisher and a subscriber to one embedded server.
func pubSub(t *testing.T, opts ...nats.Option) (*NATSPublisher, *NATSSubscriber) {
	t.Helper()
	url := startTestNATS(t)
	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("NewNATSPublisher: %v", err)
	}
	t.Cleanup(func() { _ = pub.Close() })
	sub, err := NewNATSSubscriber(url, opts...)
	if err != nil {
		t.Fatalf("NewNATSSubscriber: %v", err)
	}
	t.Cleanup(func() { _ = sub.Close() })
	return pub, sub
}

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestNATSSubscriber_DeliversDecodableRecordEvents(t *testing.T) {
	pub, sub := pubSub(t)
	ch, cancel, err := sub.Subscribe(TopicAll)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	ctx := context.Background()
	rec := &model.Record{ID: "recAhmed", Fields: map[string]string{"name": "Ahmed Benali"}}
	sent := []struct {
		topic string
		event any
	}{
		{TopicRecordCreated, RecordCreated{Table: "Objects", Record: rec}},
		{TopicRecordUpdated, RecordUpdated{Table: "Objects", Record: rec}},
		{TopicRecordDeleted, RecordDeleted{Table: "Objects", RecordID: rec.ID}},
		{TopicRecordRefreshed, RecordRefreshed{Table: "Objects", Count: 2}},
	}
	for _, s := range sent {
		if err := pub.Publish(ctx, s.topic, s.event); err != nil {
			t.Fatalf("Publish %s: %v", s.topic, err)
		}
	}
	if err := pub.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	for _, s := range sent {
		msg := receive(t, ch)
		if msg.Topic != s.topic {
			t.Fatalf("topic = %q, want %q", msg.Topic, s.topic)
		}
		if msg.Table != "Objects" {
			t.Errorf("%s: table header = %q, want Objects", msg.Topic, msg.Table)
		}
		ev, err := msg.Decode()
		if err != nil {
			t.Fatalf("Decode %s: %v", msg.Topic, err)
		}
		switch e := ev.(type) {
		case *RecordCreated:
			if e.Record.Name() != "Ahmed Benali" {
				t.Errorf("created record = %+v", e.Record)
			}
		case *RecordUpdated:
			if e.Record.ID != rec.ID {
				t.Errorf("updated record = %+v", e.Record)
			}
		case *RecordDeleted:
			if e.RecordID != rec.ID {
				t.Errorf("deleted id = %q", e.RecordID)
			}
		case *RecordRefreshed:
			if e.Count != 2 {
				t.Errorf("refreshed count = %d", e.Count)
			}
		default:
			t.Errorf("unexpected event %T", ev)
		}
	}
}

func TestNATSSubscriber_SubjectFilter(t *testing.T) {
	pub, sub := pubSub(t)
	ch, cancel, err := sub.Subscribe(TopicRecordDeleted)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	ctx := context.Background()
	_ = pub.Publish(ctx, TopicRecordCreated, RecordCreated{Table: "Objects", Record: &model.Record{ID: "rec1"}})
	_ = pub.Publish(ctx, TopicRecordDeleted, RecordDeleted{Table: "Objects", RecordID: "rec1"})
	_ = pub.Flush()

	if msg := receive(t, ch); msg.Topic != TopicRecordDeleted {
		t.Fatalf("got %q, only %q was subscribed", msg.Topic, TopicRecordDeleted)
	}
	select {
	case msg := <-ch:
		t.Fatalf("unexpected extra message on %q", msg.Topic)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNATSSubscriber_FullChannelDrops(t *testing.T) {
	pub, sub := pubSub(t)
	ch, cancel, err := sub.Subscribe(TopicAll)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	ctx := context.Background()
	for range 200 {
		_ = pub.Publish(ctx, TopicRecordRefreshed, RecordRefreshed{Table: "Objects"})
	}
	_ = pub.Flush()
	time.Sleep(200 * time.Millisecond)

	if n := len(ch); n == 0 || n > cap(ch) {
		t.Fatalf("buffered = %d, want between 1 and %d", n, cap(ch))
	}
}

func TestNATSSubscriber_CancelClosesChannel(t *testing.T) {
	pub, sub := pubSub(t)
	ch, cancel, err := sub.Subscribe(TopicAll)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			_ = pub.Publish(context.Background(), TopicRecordDeleted, RecordDeleted{RecordID: "x"})
		}
		_ = pub.Flush()
	}()

	cancel()
	cancel()
	<-done

	for range ch {
	}
}

func TestNATSSubscriber_AcceptsExtraOptions(t *testing.T) {
	_, sub := pubSub(t,
		nats.Name("formrec-watch"),
		nats.ReconnectHandler(func(*nats.Conn) {}),
	)
	if !sub.conn.IsConnected() {
		t.Fatal("expected subscriber to be connected")
	}
	if got := sub.conn.Opts.Name; got != "formrec-watch" {
		t.Errorf("connection name = %q, want the caller's option to win", got)
	}
}

func TestNATSSubscriber_ImplementsSubscriber(t *testing.T) {
	var _ Subscriber = (*NATSSubscriber)(nil)
}
