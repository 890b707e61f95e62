// Package store persists tenants and their enforcement policies in
// PostgreSQL.
package store

import "database/sql"

// Store wraps a *sql.DB (pgx stdlib driver) with tenant queries.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}
