package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendalink/vendalink/internal/port/database"
)

// Store implements the database.Store port against the directory database.
type Store struct {
	pool *pgxpool.Pool
}

// compile-time check
var _ database.Store = (*Store)(nil)

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
