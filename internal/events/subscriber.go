package events

import (
	"encoding/json"
	"fmt"
)

// Message is one event delivered by a Subscriber.
type Message struct {
	Topic string
	Table string // from TableHeader; empty when the publisher did not set it
	Data  []byte
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}

// Decode unmarshals the message payload into the event type for its topic.
func (m Message) Decode() (any, error) {
	var ev any
	switch m.Topic {
	case TopicRecordCreated:
		ev = &RecordCreated{}
	case TopicRecordUpdated:
		ev = &RecordUpdated{}
	case TopicRecordDeleted:
		ev = &RecordDeleted{}
	case TopicRecordRefreshed:
		ev = &RecordRefreshed{}
	default:
		return nil, fmt.Errorf("unknown event topic %q", m.Topic)
	}
	if err := json.Unmarshal(m.Data, ev); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", m.Topic, err)
	}
	return ev, nil
}
