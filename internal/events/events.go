package events

import (
	"context"

	"github.com/alfredjeanlab/formrec/internal/model"
)

// Event topic constants
const (
	TopicRecordCreated   = "formrec.record.created"
	TopicRecordUpdated   = "formrec.record.updated"
	TopicRecordDeleted   = "formrec.record.deleted"
	TopicRecordRefreshed = "formrec.record.refreshed"

	// TopicAll matches every record event.
	TopicAll = "formrec.>"
)

// Event types

type RecordCreated struct {
	Table  string        `json:"table"`
	Record *model.Record `json:"record"`
}

type RecordUpdated struct {
	Table  string        `json:"table"`
	Record *model.Record `json:"record"`
}

type RecordDeleted struct {
	Table    string `json:"table"`
	RecordID string `json:"record_id"`
}

type RecordRefreshed struct {
	Table string `json:"table"`
	Count int    `json:"count"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
