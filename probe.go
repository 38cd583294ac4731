package ygggo_conn

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TestConnectivity closes the active cursor, runs the dialect's probe query
// and reports whether it returned a row. It never fails; problems are logged at Debug.
func (h *ConnectionHandle) TestConnectivity(ctx context.Context) bool {
	if !h.IsConnected() {
		if h != nil {
			h.logProbe(ctx, "probe", "connectivity probe skipped", ErrNotConnected)
		}
		return false
	}
	h.closeCursor(ctx, "probe")
	ok := false
	err := h.instrument(ctx, "probe", h.dialect.ProbeSQL, 0, func(ctx context.Context) error {
		rows, err := h.current().QueryContext(ctx, h.dialect.ProbeSQL)
		if err != nil {
			return err
		}
		defer rows.Close()
		ok = rows.Next()
		return rows.Err()
	})
	if err != nil {
		h.logProbe(ctx, "probe", "connectivity probe failed", err)
		return false
	}
	return ok
}

// GetLastInsertId closes the active cursor and returns the identifier
// generated by the last insert on this connection. The second result is
// false when there is none (no row, zero, NULL) or the query failed.
func (h *ConnectionHandle) GetLastInsertId(ctx context.Context) (int64, bool) {
	if !h.IsConnected() {
		if h != nil {
			h.logProbe(ctx, "last insert id", "last insert id unavailable", ErrNotConnected)
		}
		return 0, false
	}
	h.closeCursor(ctx, "last insert id")
	var id sql.NullInt64
	start := time.Now()
	spanCtx, span := h.startSpan(ctx, "last_insert_id", h.dialect.LastInsertIDSQL)
	err := h.current().QueryRowContext(spanCtx, h.dialect.LastInsertIDSQL).Scan(&id)
	h.finishSpan(span, err)
	h.recordQuery(ctx, "last_insert_id", time.Since(start), err)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		h.logProbe(ctx, "last insert id", "last insert id is null", nil)
		return 0, false
	case err != nil:
		h.logQuery(ctx, "last_insert_id", h.dialect.LastInsertIDSQL, 0, time.Since(start), err)
		return 0, false
	case !id.Valid || id.Int64 == 0:
		h.logProbe(ctx, "last insert id", "last insert id is null", nil)
		return 0, false
	}
	return id.Int64, true
}
