package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/formrec/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a model.Record.
// The row must contain columns in the order defined by recordColumns.
func scanRecord(row scannable) (*model.Record, error) {
	var (
		r      model.Record
		fields []byte
	)
	if err := row.Scan(&r.ID, &fields, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeFields(fields, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// scanRecordWithTotal scans a row that has a leading total_count column
// followed by the standard record columns.
func scanRecordWithTotal(row scannable) (*model.Record, int, error) {
	var (
		total  int
		r      model.Record
		fields []byte
	)
	if err := row.Scan(&total, &r.ID, &fields, &r.CreatedAt); err != nil {
		return nil, 0, err
	}
	if err := decodeFields(fields, &r); err != nil {
		return nil, 0, err
	}
	return &r, total, nil
}

func decodeFields(data []byte, r *model.Record) error {
	r.Fields = map[string]string{}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &r.Fields); err != nil {
		return fmt.Errorf("decode fields of %s: %w", r.ID, err)
	}
	return nil
}

// fieldsJSON converts record fields to bytes suitable for a JSONB column.
func fieldsJSON(fields map[string]string) ([]byte, error) {
	if fields == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return data, nil
}
