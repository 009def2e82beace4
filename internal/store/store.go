// Package store persists quotes, master data and settings in SQLite.
package store

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("registro no encontrado")

// Store wraps the application database.
type Store struct {
	db *sql.DB
}

// New returns a Store backed by db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and seeding.
func (s *Store) DB() *sql.DB {
	return s.db
}
