package ygggo_conn

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// current returns the open transaction, or the connection when none is open.
func (h *ConnectionHandle) current() executor {
	if h.tx != nil {
		return h.tx
	}
	return h.conn
}

// session returns where the next statement runs. With autocommit off it
// opens a transaction on first use; the transaction stays open until Commit,
// Rollback, SetAutoCommit(true) or Close.
func (h *ConnectionHandle) session(ctx context.Context) (executor, error) {
	if !h.IsConnected() {
		return nil, ErrNotConnected
	}
	if h.autoCommit || h.tx != nil {
		return h.current(), nil
	}
	if err := h.begin(ctx); err != nil {
		return nil, err
	}
	return h.tx, nil
}

func (h *ConnectionHandle) begin(ctx context.Context) error {
	start := time.Now()
	spanCtx, span := h.startSpan(ctx, "begin", "")
	// The transaction outlives this call, so it must not be tied to the
	// caller's cancellation.
	tx, err := h.conn.BeginTx(context.WithoutCancel(spanCtx), nil)
	h.finishSpan(span, err)
	h.logTransaction(ctx, "begin", time.Since(start), err)
	if err != nil {
		return err
	}
	h.tx = tx
	h.txStart = start
	return nil
}

// bindStmt returns st bound to the open transaction, if any. The returned
// release closes the transaction-bound copy; call it after Exec, or leave it
// to the transaction end when rows are still reading from it.
func (h *ConnectionHandle) bindStmt(ctx context.Context, st *sql.Stmt) (*sql.Stmt, func(), error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, nil, err
	}
	tx, ok := sess.(*sql.Tx)
	if !ok {
		return st, func() {}, nil
	}
	bound := tx.StmtContext(ctx, st)
	return bound, func() { _ = bound.Close() }, nil
}

// endTx commits or rolls back the open transaction. The active cursor is
// closed first.
func (h *ConnectionHandle) endTx(ctx context.Context, commit bool) error {
	if h.tx == nil {
		return nil
	}
	op := "rollback"
	if commit {
		op = "commit"
	}
	h.closeCursor(ctx, op)

	_, span := h.startSpan(ctx, op, "")
	var err error
	if commit {
		err = h.tx.Commit()
	} else {
		err = h.tx.Rollback()
	}
	h.finishSpan(span, err)
	d := time.Since(h.txStart)
	h.logTransaction(ctx, op, d, err)
	h.recordTransaction(ctx, op, d, err)
	// A failed commit still ends the transaction in database/sql.
	h.tx = nil
	return err
}

// AutoCommit reports the current autocommit mode. A nil or closed handle
// reports true.
func (h *ConnectionHandle) AutoCommit() bool {
	if !h.IsConnected() {
		return true
	}
	return h.autoCommit
}

// SetAutoCommit switches autocommit. Enabling it commits pending work.
func (h *ConnectionHandle) SetAutoCommit(ctx context.Context, enabled bool) error {
	if !h.IsConnected() {
		return connectErr("set autocommit", ErrNotConnected)
	}
	if enabled && h.tx != nil {
		if err := h.endTx(ctx, true); err != nil {
			return connectErr("set autocommit", err)
		}
	}
	h.autoCommit = enabled
	return nil
}

// Commit makes pending work durable. It fails when autocommit is on and is
// a no-op when manual mode has nothing pending.
func (h *ConnectionHandle) Commit(ctx context.Context) error {
	if !h.IsConnected() {
		return connectErr("commit", ErrNotConnected)
	}
	if h.autoCommit {
		return connectErr("commit", ErrAutoCommit)
	}
	return connectErr("commit", h.endTx(ctx, true))
}

// Rollback discards pending work. It never fails; problems are logged and
// reported in the Outcome.
func (h *ConnectionHandle) Rollback(ctx context.Context) Outcome {
	out := Outcome{op: "rollback"}
	if !h.IsConnected() {
		out.add(ErrNotConnected)
		if h != nil {
			h.logStep(ctx, "rollback", "connection", ErrNotConnected)
		}
		return out
	}
	if h.autoCommit {
		out.add(ErrAutoCommit)
		h.logStep(ctx, "rollback", "autocommit", ErrAutoCommit)
		return out
	}
	if err := h.endTx(ctx, false); err != nil && !errors.Is(err, sql.ErrTxDone) {
		out.add(err)
	}
	return out
}
