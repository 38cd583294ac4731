package ygggo_conn

import (
	"context"
	"database/sql"
)

type queryKind int

const (
	kindDirect queryKind = iota
	kindPrepared
	kindCallable
)

// Query selects the execution path for ExecuteQuery and ExecuteUpdate.
type Query struct {
	kind queryKind
	sql  string
}

// Direct runs sql text through the direct statement.
func Direct(sql string) Query { return Query{kind: kindDirect, sql: sql} }

// Prepared runs the handle's prepared statement with its bound parameters.
func Prepared() Query { return Query{kind: kindPrepared} }

// Callable runs the handle's callable statement with its bound parameters.
func Callable() Query { return Query{kind: kindCallable} }

// SQL is the text carried by a Direct query; empty otherwise.
func (q Query) SQL() string { return q.sql }

func (q Query) String() string {
	switch q.kind {
	case kindPrepared:
		return "prepared"
	case kindCallable:
		return "callable"
	}
	return "direct(" + q.sql + ")"
}

// ExecuteQuery closes the active cursor, runs q and makes the result the new
// active cursor.
func (h *ConnectionHandle) ExecuteQuery(ctx context.Context, q Query) (*Cursor, error) {
	if !h.IsConnected() {
		return nil, connectErr("execute query", ErrNotConnected)
	}
	h.closeCursor(ctx, "execute query")

	var (
		rows   *sql.Rows
		source any
		err    error
	)
	switch q.kind {
	case kindPrepared:
		if h.pstmt == nil {
			return nil, connectErr("execute query", ErrNoPreparedStatement)
		}
		source = &h.pstmt.boundStatement
		rows, err = h.pstmt.queryRows(ctx)
	case kindCallable:
		if h.cstmt == nil {
			return nil, connectErr("execute query", ErrNoCallableStatement)
		}
		source = &h.cstmt.boundStatement
		rows, err = h.cstmt.queryRows(ctx)
	default:
		if h.stmt == nil {
			return nil, connectErr("execute query", ErrNoStatement)
		}
		source = h.stmt
		rows, err = h.stmt.rows(ctx, q.sql)
	}
	if err != nil {
		return nil, connectErr("execute query", err)
	}
	h.cursor = newCursor(rows, source)
	return h.cursor, nil
}

// ExecuteUpdate closes the active cursor, runs a data-modifying statement
// and returns the affected row count. The prepared path is taken only for Prepared() with a prepared
// statement present, and likewise for Callable(); anything else falls back
// to the direct statement with q's SQL text, which fails with ErrEmptySQL
// for Prepared() and Callable(). ExecuteQuery has no such fallback.
func (h *ConnectionHandle) ExecuteUpdate(ctx context.Context, q Query) (int64, error) {
	if !h.IsConnected() {
		return 0, connectErr("execute update", ErrNotConnected)
	}
	h.closeCursor(ctx, "execute update")
	var (
		n   int64
		err error
	)
	switch {
	case q.kind == kindPrepared && h.pstmt != nil:
		n, err = h.pstmt.exec(ctx)
	case q.kind == kindCallable && h.cstmt != nil:
		n, err = h.cstmt.exec(ctx)
	default:
		if h.stmt == nil {
			return 0, connectErr("execute update", ErrNoStatement)
		}
		n, err = h.stmt.exec(ctx, q.sql)
	}
	if err != nil {
		return 0, connectErr("execute update", err)
	}
	return n, nil
}

// closeCursor closes the active cursor; failures are logged only.
func (h *ConnectionHandle) closeCursor(ctx context.Context, op string) {
	if h.cursor == nil {
		return
	}
	err := h.cursor.Close()
	h.cursor = nil
	h.logStep(ctx, op, "previous cursor", err)
}
