package ygggo_conn

import (
	"context"
	"database/sql"
)

// executor is what statements run against: the connection itself, or the
// transaction open on it.
type executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Ensure our concrete types implement the interfaces at compile time
var (
	_ executor = (*sql.Conn)(nil)
	_ executor = (*sql.Tx)(nil)
	_ Registry = (*DBRegistry)(nil)
	_ Registry = RegistryFunc(nil)
)
