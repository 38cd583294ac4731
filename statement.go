package ygggo_conn

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Statement runs literal SQL text on its handle's connection, inside the
// handle's transaction when autocommit is off.
type Statement struct {
	h      *ConnectionHandle
	closed bool
}

// GetStatement creates a fresh direct statement and makes it the handle's
// current one. The previous statement is not closed.
func (h *ConnectionHandle) GetStatement() (*Statement, error) {
	if !h.IsConnected() {
		return nil, connectErr("create statement", ErrNotConnected)
	}
	h.stmt = &Statement{h: h}
	h.logStep(context.Background(), "create statement", "statement", nil)
	return h.stmt, nil
}

// Query runs sql and makes the result the handle's active cursor, closing
// the previous one whichever statement produced it.
func (s *Statement) Query(ctx context.Context, query string) (*Cursor, error) {
	if s == nil || s.closed {
		return nil, connectErr("query", ErrStatementClosed)
	}
	s.h.closeCursor(ctx, "query")
	rows, err := s.rows(ctx, query)
	if err != nil {
		return nil, connectErr("query", err)
	}
	s.h.cursor = newCursor(rows, s)
	return s.h.cursor, nil
}

// Exec runs sql and returns the affected row count. The active cursor is
// closed first.
func (s *Statement) Exec(ctx context.Context, query string) (int64, error) {
	if s != nil && !s.closed {
		s.h.closeCursor(ctx, "exec")
	}
	n, err := s.exec(ctx, query)
	return n, connectErr("exec", err)
}

// Close closes the active cursor if this statement produced it. Further use
// fails with ErrStatementClosed.
func (s *Statement) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	h := s.h
	if h.cursor == nil || h.cursor.source != s {
		return nil
	}
	err := h.cursor.Close()
	h.cursor = nil
	return err
}

func (s *Statement) IsClosed() bool { return s == nil || s.closed }

func (s *Statement) rows(ctx context.Context, query string) (*sql.Rows, error) {
	if s.closed {
		return nil, ErrStatementClosed
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptySQL
	}
	var rows *sql.Rows
	err := s.h.instrument(ctx, "query", query, 0, func(ctx context.Context) error {
		sess, err := s.h.session(ctx)
		if err != nil {
			return err
		}
		rows, err = sess.QueryContext(ctx, query)
		return err
	})
	return rows, err
}

func (s *Statement) exec(ctx context.Context, query string) (int64, error) {
	if s == nil || s.closed {
		return 0, ErrStatementClosed
	}
	if strings.TrimSpace(query) == "" {
		return 0, ErrEmptySQL
	}
	var n int64
	err := s.h.instrument(ctx, "exec", query, 0, func(ctx context.Context) error {
		sess, err := s.h.session(ctx)
		if err != nil {
			return err
		}
		res, err := sess.ExecContext(ctx, query)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// instrument runs fn inside a span and records its duration, log record and
// query metrics.
func (h *ConnectionHandle) instrument(ctx context.Context, operation, query string, args int, fn func(context.Context) error) error {
	start := time.Now()
	spanCtx, span := h.startSpan(ctx, operation, query)
	err := fn(spanCtx)
	d := time.Since(start)
	h.finishSpan(span, err)
	h.recordQuery(ctx, operation, d, err)
	h.logQuery(ctx, operation, query, args, d, err)
	return err
}
