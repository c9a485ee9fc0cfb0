package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Select runs a read query and scans all rows into dest.
// Queries use ? placeholders and are rebound for the active driver.
func (s *Store) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
}

// Get runs a read query and scans a single row into dest
func (s *Store) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.db.GetContext(ctx, dest, s.db.Rebind(query), args...)
}

// Exec runs a write statement under the store's write lock
func (s *Store) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.db.ExecContext(ctx, s.db.Rebind(query), args...)
}

// withTx runs fn in a transaction under the write lock
func (s *Store) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// rebind adapts ? placeholders to the active driver
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}
