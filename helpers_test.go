package ygggo_conn

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

const testRegistryName = "jdbc/test"

// newMockDB returns a sqlmock pool with exact query matching.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func mockRegistry(db *sql.DB) Registry {
	return RegistryFunc(func(ctx context.Context, name string) (*sql.Conn, error) {
		if name != testRegistryName {
			return nil, fmt.Errorf("unexpected name %q", name)
		}
		return db.Conn(ctx)
	})
}

// newMockHandle opens a pooled handle over a sqlmock connection.
func newMockHandle(t *testing.T, mutate ...func(*Config)) (*ConnectionHandle, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	cfg := Config{Registry: mockRegistry(db), RegistryName: testRegistryName}
	for _, m := range mutate {
		m(&cfg)
	}
	h, err := New(context.Background(), Pooled, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h, db, mock
}

// newSQLiteRegistry binds a single-connection sqlite file database.
func newSQLiteRegistry(t *testing.T) *DBRegistry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	reg, err := NewSQLiteRegistry(context.Background(), testRegistryName, DefaultSQLiteConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reg.Close()) })
	return reg
}

func sqliteConfig(reg Registry, mutate ...func(*Config)) Config {
	cfg := Config{Dialect: SQLite, Registry: reg, RegistryName: testRegistryName}
	for _, m := range mutate {
		m(&cfg)
	}
	return cfg
}

func openSQLiteHandle(t *testing.T, reg Registry, mutate ...func(*Config)) *ConnectionHandle {
	t.Helper()
	h, err := New(context.Background(), Pooled, sqliteConfig(reg, mutate...))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func newSQLiteHandle(t *testing.T, mutate ...func(*Config)) *ConnectionHandle {
	t.Helper()
	return openSQLiteHandle(t, newSQLiteRegistry(t), mutate...)
}

func mustExec(t *testing.T, h *ConnectionHandle, query string) int64 {
	t.Helper()
	n, err := h.ExecuteUpdate(context.Background(), Direct(query))
	require.NoError(t, err, query)
	return n
}

func countRows(t *testing.T, h *ConnectionHandle, table string) int64 {
	t.Helper()
	cur, err := h.ExecuteQuery(context.Background(), Direct("SELECT COUNT(*) FROM "+table))
	require.NoError(t, err)
	defer cur.Close()
	require.True(t, cur.Next())
	var n int64
	require.NoError(t, cur.Scan(&n))
	return n
}

// logBuffer captures JSON log records at Debug and above.
type logBuffer struct {
	bytes.Buffer
}

func newLogBuffer() (*logBuffer, *slog.Logger) {
	buf := &logBuffer{}
	return buf, slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (b *logBuffer) records(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.String()), "\n") {
		if line == "" {
			continue
		}
		rec := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}
