// Package sqlstore persists path graph documents in a SQL database.
// Postgres is reached through lib/pq and SQLite through modernc.org/sqlite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/roguepath/pkg/domain"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect captures the differences between supported databases.
type Dialect struct {
	Driver string
	// bind renders the n-th (1-based) placeholder.
	bind func(n int) string
}

var (
	Postgres = Dialect{Driver: "postgres", bind: func(n int) string { return fmt.Sprintf("$%d", n) }}
	SQLite   = Dialect{Driver: "sqlite", bind: func(int) string { return "?" }}
)

// DialectFor returns the dialect registered under a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case Postgres.Driver, "postgresql":
		return Postgres, nil
	case SQLite.Driver, "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
}

// Store implements ports.GraphStore over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
	owned   bool
}

type Option func(*Store)

// WithTable overrides the table name (default "path_graphs").
func WithTable(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

// Open opens a database with the dialect's driver and prepares the schema.
func Open(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("storage dsn is required")
	}
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect.Driver, err)
	}
	if dialect.Driver == SQLite.Driver {
		// Every pooled connection to ":memory:" would see its own database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect.Driver, err)
	}

	s, err := New(ctx, db, dialect, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New wraps an existing handle and prepares the schema. Close leaves db open.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	s := &Store{
		db:      db,
		dialect: dialect,
		table:   "path_graphs",
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			owner      TEXT PRIMARY KEY,
			document   TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`, s.table)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Save upserts the owner's document.
func (s *Store) Save(ctx context.Context, owner string, doc []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner, document, updated_at)
		VALUES (%s, %s, %s)
		ON CONFLICT (owner) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at`,
		s.table, s.dialect.bind(1), s.dialect.bind(2), s.dialect.bind(3))

	if _, err := s.db.ExecContext(ctx, query, owner, string(doc), time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	return nil
}

// Load returns the owner's document.
func (s *Store) Load(ctx context.Context, owner string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT document FROM %s WHERE owner = %s`, s.table, s.dialect.bind(1))

	var doc string
	err := s.db.QueryRowContext(ctx, query, owner).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrGraphNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	return []byte(doc), nil
}

// Delete removes the owner's row. A missing row is not an error.
func (s *Store) Delete(ctx context.Context, owner string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE owner = %s`, s.table, s.dialect.bind(1))
	if _, err := s.db.ExecContext(ctx, query, owner); err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	return nil
}

// List returns all owners, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT owner FROM %s ORDER BY owner`, s.table))
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	defer rows.Close()

	owners := []string{}
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

// Close closes the database when the store opened it.
func (s *Store) Close() error {
	if s == nil || s.db == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}
