// Package store defines persistence for the development record store
// server. Records are grouped into collections named "{baseID}/{table}".
package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/formrec/internal/model"
)

// ErrNotFound is returned when a record does not exist in its collection.
var ErrNotFound = errors.New("record not found")

// ListFilter selects one page of a collection in creation order.
type ListFilter struct {
	Limit  int // 0 = no limit
	Offset int
}

// Store defines the persistence interface for records.
type Store interface {
	CreateRecord(ctx context.Context, collection string, rec *model.Record) error
	GetRecord(ctx context.Context, collection, id string) (*model.Record, error)
	ListRecords(ctx context.Context, collection string, filter ListFilter) ([]*model.Record, int, error) // returns records, total count, error
	DeleteRecord(ctx context.Context, collection, id string) error

	// Collections returns the names of every non-empty collection.
	Collections(ctx context.Context) ([]string, error)

	// Lifecycle
	Close() error
}

// Collection joins a base id and table name into a collection name.
func Collection(baseID, table string) string {
	return baseID + "/" + table
}
