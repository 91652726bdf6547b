package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Scope wraps a pooled connection dedicated to one request.
// The connection is switched to read-only transactions for the lifetime of the scope.
type Scope struct {
	Conn *pgxpool.Conn
}

// Close restores the connection defaults and releases it to the pool.
// This MUST be called to prevent session settings from leaking to the next request.
func (s *Scope) Close() {
	if s.Conn == nil {
		return
	}
	_, _ = s.Conn.Exec(context.Background(), "RESET default_transaction_read_only")
	s.Conn.Release()
}

// ReadOnlyScope acquires a connection and makes every transaction on it read-only.
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) ReadOnlyScope(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SET default_transaction_read_only = on"); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to make connection read-only: %w", err)
	}

	return &Scope{Conn: conn}, nil
}

// WriteScope acquires a connection without restrictions.
// Used by tests and tooling that seed data. The returned Scope MUST be closed.
func (db *DB) WriteScope(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Scope{Conn: conn}, nil
}
