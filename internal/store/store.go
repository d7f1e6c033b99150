// Package store is the SQLite mirror of bracket-handler entries. Entries are
// imported from a JSON dump produced by the game and queried for hover text
// and bracket completion.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the bracket mirror.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS entries (
  id              INTEGER PRIMARY KEY,
  expr            TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS properties (
  id              INTEGER PRIMARY KEY,
  entry_id        INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
  key             TEXT NOT NULL,
  value           TEXT NOT NULL,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_properties_entry ON properties(entry_id);
`

// InsertEntry inserts e and its properties and sets e.ID.
func (s *Store) InsertEntry(e *Entry) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("insert entry: begin: %w", err)
	}
	defer tx.Rollback()
	id, err := insertEntryTx(tx, e)
	if err != nil {
		return 0, fmt.Errorf("insert entry %q: %w", e.Expr, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert entry: commit: %w", err)
	}
	return id, nil
}

func insertEntryTx(tx *sql.Tx, e *Entry) (int64, error) {
	res, err := tx.Exec("INSERT INTO entries (expr) VALUES (?)", e.Expr)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, key := range e.Keys() {
		for i, v := range e.Properties[key] {
			if _, err := tx.Exec(
				"INSERT INTO properties (entry_id, key, value, ordinal) VALUES (?, ?, ?, ?)",
				id, key, v, i,
			); err != nil {
				return 0, err
			}
		}
	}
	e.ID = id
	return id, nil
}

// EntryByExpr returns the entry for expr, or nil when there is none.
func (s *Store) EntryByExpr(expr string) (*Entry, error) {
	e := &Entry{Expr: expr}
	err := s.db.QueryRow("SELECT id FROM entries WHERE expr = ?", expr).Scan(&e.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entry by expr: %w", err)
	}

	rows, err := s.db.Query(
		"SELECT key, value FROM properties WHERE entry_id = ? ORDER BY key, ordinal", e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("entry by expr: properties: %w", err)
	}
	defer rows.Close()
	e.Properties = make(map[string][]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("entry by expr: scan property: %w", err)
		}
		e.Properties[key] = append(e.Properties[key], value)
	}
	return e, rows.Err()
}

// ExprsWithPrefix returns up to limit entry expressions starting with
// prefix, sorted. A non-positive limit means no limit.
func (s *Store) ExprsWithPrefix(prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		"SELECT expr FROM entries WHERE substr(expr, 1, ?) = ? ORDER BY expr LIMIT ?",
		utf8.RuneCountInString(prefix), prefix, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("exprs with prefix: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var expr string
		if err := rows.Scan(&expr); err != nil {
			return nil, fmt.Errorf("exprs with prefix: scan: %w", err)
		}
		out = append(out, expr)
	}
	return out, rows.Err()
}

// CountEntries returns the number of mirrored entries.
func (s *Store) CountEntries() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Metadata returns the value stored under key, or "" when unset.
func (s *Store) Metadata(key string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("metadata %q: %w", key, err)
	}
	return v, nil
}

// SetMetadata stores value under key.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}

func setMetadataTx(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
