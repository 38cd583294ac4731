package ygggo_conn

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBRegistry_ResolveAndClose(t *testing.T) {
	ctx := context.Background()
	reg := NewDBRegistry()

	a, err := OpenSQLite(ctx, DefaultSQLiteConfig(filepath.Join(t.TempDir(), "a.db")))
	require.NoError(t, err)
	b, err := OpenSQLite(ctx, DefaultSQLiteConfig(filepath.Join(t.TempDir(), "b.db")))
	require.NoError(t, err)
	reg.Register("jdbc/b", b)
	reg.Register("jdbc/a", a)

	assert.Equal(t, []string{"jdbc/a", "jdbc/b"}, reg.Names())
	got, ok := reg.Lookup("jdbc/a")
	assert.True(t, ok)
	assert.Same(t, a, got)

	conn, err := reg.Resolve(ctx, "jdbc/a")
	require.NoError(t, err)
	require.NoError(t, conn.PingContext(ctx))
	require.NoError(t, conn.Close())

	_, err = reg.Resolve(ctx, "jdbc/missing")
	assert.ErrorContains(t, err, `"jdbc/missing" is not bound`)

	require.NoError(t, reg.Close())
	assert.Empty(t, reg.Names())
	_, err = reg.Resolve(ctx, "jdbc/a")
	assert.Error(t, err)
}

func TestDBRegistry_UnboundNameFailsAcquisition(t *testing.T) {
	reg := newSQLiteRegistry(t)
	h, err := New(context.Background(), Pooled, sqliteConfig(reg, func(c *Config) {
		c.RegistryName = "jdbc/elsewhere"
	}))
	require.Error(t, err)
	assert.Nil(t, h)
	assert.ErrorContains(t, err, "jdbc/elsewhere")
}

func TestOpenSQLite_InMemory(t *testing.T) {
	db, err := OpenSQLite(context.Background(), DefaultSQLiteConfig(":memory:"))
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}
