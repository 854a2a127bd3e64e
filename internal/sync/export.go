package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/formrec/internal/model"
	"github.com/alfredjeanlab/formrec/internal/store"
)

// Snapshot is the content of one collection at export time.
type Snapshot struct {
	Collection string
	Records    []*model.Record
}

// Source supplies the collections to export.
type Source interface {
	Snapshots(ctx context.Context) ([]Snapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Snapshot, error)

func (f SourceFunc) Snapshots(ctx context.Context) ([]Snapshot, error) { return f(ctx) }

// FromStore exports every collection of a record store.
func FromStore(s store.Store) Source {
	return SourceFunc(func(ctx context.Context) ([]Snapshot, error) {
		names, err := s.Collections(ctx)
		if err != nil {
			return nil, fmt.Errorf("list collections: %w", err)
		}
		out := make([]Snapshot, 0, len(names))
		for _, name := range names {
			records, _, err := s.ListRecords(ctx, name, store.ListFilter{})
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", name, err)
			}
			out = append(out, Snapshot{Collection: name, Records: records})
		}
		return out, nil
	})
}

// FromRecords exports a single collection whose records are read from fn
// at export time, e.g. a cache's Records method.
func FromRecords(collection string, fn func() []*model.Record) Source {
	return SourceFunc(func(ctx context.Context) ([]Snapshot, error) {
		return []Snapshot{{Collection: collection, Records: fn()}}, nil
	})
}

// header is the first JSONL line written by ExportJSONL.
type header struct {
	Version         string    `json:"version"`
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	CollectionCount int       `json:"collection_count"`
	RecordCount     int       `json:"record_count"`
}

// line wraps a single JSONL record with its collection.
type line struct {
	Type       string        `json:"type"`
	Collection string        `json:"collection"`
	Data       *model.Record `json:"data"`
}

// ExportJSONL writes every record from src as JSONL to w: a header line,
// then one line per record. Collections are sorted by name; records keep
// their listing order.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) error {
	snaps, err := src.Snapshots(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].Collection < snaps[j].Collection
	})

	total := 0
	for _, s := range snaps {
		total += len(s.Records)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:         "1",
		Type:            "header",
		Timestamp:       time.Now().UTC(),
		CollectionCount: len(snaps),
		RecordCount:     total,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, s := range snaps {
		for _, r := range s.Records {
			if err := enc.Encode(line{Type: "record", Collection: s.Collection, Data: r}); err != nil {
				return fmt.Errorf("encode record %s: %w", r.ID, err)
			}
		}
	}

	return nil
}
