// Package postgres stores record collections in PostgreSQL. The schema is
// embedded and migrated on Open.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/formrec/internal/model"
	"github.com/alfredjeanlab/formrec/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// migrationsTable keeps formrec's version row apart from other tools
// sharing the database.
const migrationsTable = "formrec_schema_migrations"

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL and applies pending migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps a database that is already open and migrated.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) CreateRecord(ctx context.Context, collection string, rec *model.Record) error {
	return queryCreateRecord(ctx, s.db, collection, rec)
}

func (s *Store) GetRecord(ctx context.Context, collection, id string) (*model.Record, error) {
	return queryGetRecord(ctx, s.db, collection, id)
}

func (s *Store) ListRecords(ctx context.Context, collection string, filter store.ListFilter) ([]*model.Record, int, error) {
	return queryListRecords(ctx, s.db, collection, filter)
}

func (s *Store) DeleteRecord(ctx context.Context, collection, id string) error {
	return queryDeleteRecord(ctx, s.db, collection, id)
}

func (s *Store) Collections(ctx context.Context) ([]string, error) {
	return queryCollections(ctx, s.db)
}
