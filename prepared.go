package ygggo_conn

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// boundStatement is a statement compiled once on the handle's connection
// with positional parameters that persist across executions.
type boundStatement struct {
	h      *ConnectionHandle
	kind   string
	query  string
	stmt   *sql.Stmt
	args   []any
	closed bool
}

// PreparedStatement is a precompiled SQL template.
type PreparedStatement struct{ boundStatement }

// CallableStatement invokes a stored procedure, e.g. "CALL proc(?, ?)".
type CallableStatement struct{ boundStatement }

// PrepareStatement compiles query on the live connection and makes it the
// handle's prepared statement. The previous one is closed, along with the
// active cursor if that cursor came from it.
func (h *ConnectionHandle) PrepareStatement(ctx context.Context, query string) (*PreparedStatement, error) {
	b, err := h.prepare(ctx, "prepare", query)
	if err != nil {
		return nil, connectErr("prepare statement", err)
	}
	if h.pstmt != nil {
		h.retire(ctx, &h.pstmt.boundStatement)
	}
	h.pstmt = &PreparedStatement{b}
	return h.pstmt, nil
}

// PrepareCallable is PrepareStatement for stored procedure calls.
func (h *ConnectionHandle) PrepareCallable(ctx context.Context, query string) (*CallableStatement, error) {
	b, err := h.prepare(ctx, "prepare_call", query)
	if err != nil {
		return nil, connectErr("prepare callable", err)
	}
	if h.cstmt != nil {
		h.retire(ctx, &h.cstmt.boundStatement)
	}
	h.cstmt = &CallableStatement{b}
	return h.cstmt, nil
}

func (h *ConnectionHandle) prepare(ctx context.Context, kind, query string) (boundStatement, error) {
	if !h.IsConnected() {
		return boundStatement{}, ErrNotConnected
	}
	if query == "" {
		return boundStatement{}, ErrEmptySQL
	}
	var st *sql.Stmt
	err := h.instrument(ctx, kind, query, 0, func(ctx context.Context) error {
		var err error
		st, err = h.conn.PrepareContext(ctx, query)
		return err
	})
	if err != nil {
		return boundStatement{}, err
	}
	return boundStatement{h: h, kind: kind, query: query, stmt: st}, nil
}

// retire closes a replaced statement, and the active cursor first when it
// reads from that statement.
func (h *ConnectionHandle) retire(ctx context.Context, b *boundStatement) {
	if h.cursor != nil && h.cursor.source == b {
		h.closeCursor(ctx, "replace "+b.kind)
	}
	h.logStep(ctx, "replace "+b.kind, "statement", b.Close())
}

// SQL returns the statement's template.
func (b *boundStatement) SQL() string { return b.query }

func (b *boundStatement) IsClosed() bool { return b == nil || b.closed }

// Close releases the compiled statement.
func (b *boundStatement) Close() error {
	if b == nil || b.closed {
		return nil
	}
	b.closed = true
	return b.stmt.Close()
}

// Set binds v to the 1-based parameter position pos. Types and counts are
// checked by the driver at execution, not here.
func (b *boundStatement) Set(pos int, v any) error {
	if b.closed {
		return connectErr("bind", ErrStatementClosed)
	}
	if pos < 1 {
		return connectErr("bind", fmt.Errorf("parameter position %d out of range", pos))
	}
	for len(b.args) < pos {
		b.args = append(b.args, nil)
	}
	b.args[pos-1] = v
	return nil
}

func (b *boundStatement) SetInt64(pos int, v int64) error     { return b.Set(pos, v) }
func (b *boundStatement) SetString(pos int, v string) error   { return b.Set(pos, v) }
func (b *boundStatement) SetFloat64(pos int, v float64) error { return b.Set(pos, v) }
func (b *boundStatement) SetBool(pos int, v bool) error       { return b.Set(pos, v) }
func (b *boundStatement) SetTime(pos int, v time.Time) error  { return b.Set(pos, v) }
func (b *boundStatement) SetBytes(pos int, v []byte) error    { return b.Set(pos, v) }
func (b *boundStatement) SetNull(pos int) error               { return b.Set(pos, nil) }

// ClearParameters drops every bound value.
func (b *boundStatement) ClearParameters() {
	b.args = b.args[:0]
}

// Params returns a copy of the bound values.
func (b *boundStatement) Params() []any {
	return append([]any(nil), b.args...)
}

// RegisterOut binds an OUT parameter; dest receives the value after
// execution on drivers that support sql.Out.
func (c *CallableStatement) RegisterOut(pos int, dest any) error {
	return c.Set(pos, sql.Out{Dest: dest})
}

// RegisterInOut binds an INOUT parameter whose input is the current value of
// dest.
func (c *CallableStatement) RegisterInOut(pos int, dest any) error {
	return c.Set(pos, sql.Out{Dest: dest, In: true})
}

func (b *boundStatement) queryRows(ctx context.Context) (*sql.Rows, error) {
	if b.closed {
		return nil, ErrStatementClosed
	}
	var rows *sql.Rows
	err := b.h.instrument(ctx, "query", b.query, len(b.args), func(ctx context.Context) error {
		st, _, err := b.h.bindStmt(ctx, b.stmt)
		if err != nil {
			return err
		}
		rows, err = st.QueryContext(ctx, b.args...)
		return err
	})
	return rows, err
}

func (b *boundStatement) exec(ctx context.Context) (int64, error) {
	if b.closed {
		return 0, ErrStatementClosed
	}
	var n int64
	err := b.h.instrument(ctx, "exec", b.query, len(b.args), func(ctx context.Context) error {
		st, release, err := b.h.bindStmt(ctx, b.stmt)
		if err != nil {
			return err
		}
		defer release()
		res, err := st.ExecContext(ctx, b.args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}
