package ygggo_conn

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Cursor is a forward-only result set. A handle keeps at most one active
// cursor; producing a new one closes the previous.
type Cursor struct {
	rows   *sql.Rows
	source any // the statement that produced it
	closed bool
}

func newCursor(rows *sql.Rows, source any) *Cursor {
	return &Cursor{rows: rows, source: source}
}

// Next advances to the next row.
func (c *Cursor) Next() bool {
	if c == nil || c.closed {
		return false
	}
	return c.rows.Next()
}

// Scan copies the current row into dest.
func (c *Cursor) Scan(dest ...any) error {
	if c == nil || c.closed {
		return connectErr("scan", ErrCursorClosed)
	}
	return connectErr("scan", c.rows.Scan(dest...))
}

func (c *Cursor) Columns() ([]string, error) {
	if c == nil || c.closed {
		return nil, connectErr("columns", ErrCursorClosed)
	}
	cols, err := c.rows.Columns()
	return cols, connectErr("columns", err)
}

// Err returns the error, if any, that ended iteration.
func (c *Cursor) Err() error {
	if c == nil {
		return nil
	}
	return connectErr("iterate", c.rows.Err())
}

// Close releases the result set. Closing twice is a no-op.
func (c *Cursor) Close() error {
	if c == nil || c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

func (c *Cursor) IsClosed() bool {
	return c == nil || c.closed
}

// ScanStructs reads all remaining rows into dest, a pointer to a slice of
// structs mapped by `db` tags. The cursor stays open.
func (c *Cursor) ScanStructs(dest any) error {
	if c == nil || c.closed {
		return connectErr("scan structs", ErrCursorClosed)
	}
	return connectErr("scan structs", sqlx.StructScan(c.rows, dest))
}

// ScanMaps reads all remaining rows as column-name maps.
func (c *Cursor) ScanMaps() ([]map[string]any, error) {
	if c == nil || c.closed {
		return nil, connectErr("scan maps", ErrCursorClosed)
	}
	var out []map[string]any
	for c.rows.Next() {
		m := make(map[string]any)
		if err := sqlx.MapScan(c.rows, m); err != nil {
			return out, connectErr("scan maps", err)
		}
		out = append(out, m)
	}
	return out, connectErr("scan maps", c.rows.Err())
}
