// Package store handles the SQLite metadata repository the admin commands
// operate on.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/docportal/repocli/internal/sqlutil"
)

// Store is the repository database handle.
type Store struct {
	db   *sql.DB
	path string
}

var (
	// ErrObjectNotFound indicates the requested object ID is not stored.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectExists indicates an object with the same ID is already stored.
	ErrObjectExists = errors.New("object already exists")
	// ErrClassificationNotFound indicates the requested classification is not stored.
	ErrClassificationNotFound = errors.New("classification not found")
)

// BlockingReferencesError reports a link-integrity violation: objects that
// still reference the ones being removed. Blocking maps each referencing
// source to the destinations it points at.
type BlockingReferencesError struct {
	Op       string
	Blocking map[string][]string
}

func (e *BlockingReferencesError) Error() string {
	n := 0
	for _, dests := range e.Blocking {
		n += len(dests)
	}
	return fmt.Sprintf("%s blocked by %d incoming reference(s)", e.Op, n)
}

// BlockingReferences returns the source to destination pairs in source order.
func (e *BlockingReferencesError) BlockingReferences() [][2]string {
	sources := make([]string, 0, len(e.Blocking))
	for src := range e.Blocking {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	var pairs [][2]string
	for _, src := range sources {
		for _, dst := range e.Blocking[src] {
			pairs = append(pairs, [2]string{src, dst})
		}
	}
	return pairs
}

const schema = `
CREATE TABLE IF NOT EXISTS objects (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	type TEXT NOT NULL,
	number INTEGER NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	fields TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL,
	modified_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_objects_type ON objects(type, number);

CREATE TABLE IF NOT EXISTS links (
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	PRIMARY KEY (source, target)
);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);

CREATE TABLE IF NOT EXISTS access_rules (
	object_id TEXT NOT NULL,
	permission TEXT NOT NULL,
	principal TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (object_id, permission, principal)
);

CREATE TABLE IF NOT EXISTS classifications (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	classification_id TEXT NOT NULL,
	id TEXT NOT NULL,
	label TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (classification_id, id)
);
`

// Open opens or creates the repository database at path. The special path
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// One connection: SQLite has a single writer and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to configure store: %w", err)
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create store schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

type txKey struct{}

// Begin opens a transaction and returns a context that carries it. Store
// calls made with that context run inside the transaction.
func (s *Store) Begin(ctx context.Context) (context.Context, *sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}
	return context.WithValue(ctx, txKey{}, tx), tx, nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok && tx != nil {
		return tx
	}
	return s.db
}

func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlutil.ScanRows(rows, sqlutil.ScanString)
}

// Stats holds row counts of the repository tables.
type Stats struct {
	Objects         int
	Links           int
	AccessRules     int
	Classifications int
	Categories      int
	Types           map[string]int
}

// Stats returns repository statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	q := s.q(ctx)
	st := &Stats{Types: make(map[string]int)}
	counts := []struct {
		table string
		dest  *int
	}{
		{"objects", &st.Objects},
		{"links", &st.Links},
		{"access_rules", &st.AccessRules},
		{"classifications", &st.Classifications},
		{"categories", &st.Categories},
	}
	for _, c := range counts {
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	rows, err := q.QueryContext(ctx, "SELECT type, COUNT(*) FROM objects GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("count object types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		st.Types[typ] = n
	}
	return st, rows.Err()
}
