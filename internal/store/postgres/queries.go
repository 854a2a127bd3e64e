package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/formrec/internal/model"
	"github.com/alfredjeanlab/formrec/internal/store"
)

// recordColumns is the column list used for SELECT statements on the records table.
const recordColumns = `id, fields, created_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateRecord(ctx context.Context, db executor, collection string, r *model.Record) error {
	fields, err := fieldsJSON(r.Fields)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO records (collection, id, fields, created_at)
		VALUES ($1, $2, $3, $4)`,
		collection,
		r.ID,
		fields,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func queryGetRecord(ctx context.Context, db executor, collection, id string) (*model.Record, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE collection = $1 AND id = $2`, collection, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func queryListRecords(ctx context.Context, db executor, collection string, filter store.ListFilter) ([]*model.Record, int, error) {
	args := []any{collection}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + recordColumns +
		" FROM records WHERE collection = $1 ORDER BY seq"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		dataQuery += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		dataQuery += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []*model.Record{}
	var total int
	for rows.Next() {
		r, t, err := scanRecordWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan records: %w", err)
		}
		total = t
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan records: %w", err)
	}

	// A page past the end carries no total; count separately.
	if len(records) == 0 && filter.Offset > 0 {
		if err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM records WHERE collection = $1`, collection).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count records: %w", err)
		}
	}

	return records, total, nil
}

func queryDeleteRecord(ctx context.Context, db executor, collection, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryCollections(ctx context.Context, db executor) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT collection FROM records ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
