package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/formrec/internal/events"
	"github.com/alfredjeanlab/formrec/internal/model"
)

// chanSubscriber delivers pre-loaded messages and then closes the channel.
type chanSubscriber struct {
	msgs  []events.Message
	topic string
}

func (s *chanSubscriber) Subscribe(topic string) (<-chan events.Message, func(), error) {
	s.topic = topic
	ch := make(chan events.Message, len(s.msgs))
	for _, m := range s.msgs {
		ch <- m
	}
	close(ch)
	return ch, func() {}, nil
}

func (s *chanSubscriber) Close() error { return nil }

func message(t *testing.T, topic string, ev any) events.Message {
	t.Helper()
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return events.Message{Topic: topic, Table: events.TableOf(ev), Data: data}
}

func TestWatchEvents_FiltersByTable(t *testing.T) {
	jsonOutput = false
	rec := &model.Record{ID: "recA", Fields: map[string]string{"name": "Ahmed Benali", "city": "Rabat"}}
	sub := &chanSubscriber{msgs: []events.Message{
		message(t, events.TopicRecordCreated, events.RecordCreated{Table: "Objects", Record: rec}),
		message(t, events.TopicRecordCreated, events.RecordCreated{Table: "People", Record: rec}),
		{Topic: "formrec.unknown", Data: []byte(`{}`)},
		message(t, events.TopicRecordDeleted, events.RecordDeleted{Table: "Objects", RecordID: "recA"}),
	}}

	var out bytes.Buffer
	if err := watchEvents(context.Background(), sub, "Objects", &out); err != nil {
		t.Fatalf("watchEvents: %v", err)
	}
	if sub.topic != events.TopicAll {
		t.Errorf("subscribed to %q, want %q", sub.topic, events.TopicAll)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], `created Objects recA city=Rabat name="Ahmed Benali"`) {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "deleted Objects recA") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestWatchEvents_AllTablesJSON(t *testing.T) {
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })

	sub := &chanSubscriber{msgs: []events.Message{
		message(t, events.TopicRecordRefreshed, events.RecordRefreshed{Table: "People", Count: 4}),
	}}
	var out bytes.Buffer
	if err := watchEvents(context.Background(), sub, "", &out); err != nil {
		t.Fatalf("watchEvents: %v", err)
	}
	var got struct {
		Topic string `json:"topic"`
		Event struct {
			Table string `json:"table"`
			Count int    `json:"count"`
		} `json:"event"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if got.Topic != events.TopicRecordRefreshed || got.Event.Table != "People" || got.Event.Count != 4 {
		t.Errorf("got %+v", got)
	}
}

func TestFormatEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
	rec := &model.Record{ID: "recB", Fields: map[string]string{"name": "Ada"}}
	tests := []struct {
		ev   any
		want string
	}{
		{events.RecordCreated{Table: "Objects", Record: rec}, "09:05:07 created Objects recB name=Ada"},
		{&events.RecordUpdated{Table: "Objects", Record: rec}, "09:05:07 updated Objects recB name=Ada"},
		{events.RecordDeleted{Table: "People", RecordID: "recB"}, "09:05:07 deleted People recB"},
		{&events.RecordRefreshed{Table: "People", Count: 2}, "09:05:07 refreshed People (2 records)"},
	}
	for _, tt := range tests {
		if got := formatEvent(at, tt.ev); got != tt.want {
			t.Errorf("formatEvent(%T) = %q, want %q", tt.ev, got, tt.want)
		}
	}
}
