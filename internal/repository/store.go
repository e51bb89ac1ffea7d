// Package repository provides sqlite data access for the tracker's entity
// graph. Store works on the bare connection; Tx exposes the same operations
// inside an explicit transaction for the ingest/re-sync write path.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"trackarr/internal/apperr"
)

// ErrDuplicate indicates a unique constraint violation.
var ErrDuplicate = errors.New("duplicate entry")

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin starts a transaction. Callers must Commit or Rollback on every
// exit path; Rollback after Commit is a no-op.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// mapSQLiteError converts driver errors to the shared taxonomy.
// modernc.org/sqlite wraps errors, so constraint violations are matched
// on the message text.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	return err
}
