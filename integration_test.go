//go:build integration

package ygggo_conn

import (
	"context"
	"os"
	"testing"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docker *DockerTestHelper

func TestMain(m *testing.M) {
	ctx := context.Background()
	var err error
	docker, err = NewDockerTestHelper(ctx)
	if err != nil {
		println("skipping integration tests:", err.Error())
		os.Exit(0)
	}
	code := m.Run()
	_ = docker.Close()
	os.Exit(code)
}

func resetDocker(t *testing.T) {
	t.Helper()
	require.NoError(t, docker.Reset(context.Background()))
	t.Cleanup(func() { _ = docker.Reset(context.Background()) })
}

func TestMySQL_DirectURLLastInsertID(t *testing.T) {
	resetDocker(t)
	ctx := context.Background()

	h, err := New(ctx, DirectURL, docker.Config())
	require.NoError(t, err)
	defer h.Close()
	assert.True(t, h.TestConnectivity(ctx))

	_, err = h.ExecuteUpdate(ctx, Direct("CREATE TABLE docs (id BIGINT AUTO_INCREMENT PRIMARY KEY, title VARCHAR(64) NOT NULL UNIQUE)"))
	require.NoError(t, err)

	_, ok := h.GetLastInsertId(ctx)
	assert.False(t, ok)

	ps, err := h.PrepareStatement(ctx, "INSERT INTO docs (title) VALUES (?)")
	require.NoError(t, err)
	require.NoError(t, ps.SetString(1, "first"))
	n, err := h.ExecuteUpdate(ctx, Prepared())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	id, ok := h.GetLastInsertId(ctx)
	require.True(t, ok)
	assert.EqualValues(t, 1, id)

	_, err = h.ExecuteUpdate(ctx, Prepared())
	var me *mysqldrv.MySQLError
	require.ErrorAs(t, err, &me)
	assert.EqualValues(t, 1062, me.Number)
	assert.Equal(t, ErrClassConflict, Classify(err))
}

func TestMySQL_PooledTransaction(t *testing.T) {
	resetDocker(t)
	ctx := context.Background()

	h, err := New(ctx, Pooled, docker.Config())
	require.NoError(t, err)
	defer h.Close()
	_, err = h.ExecuteUpdate(ctx, Direct("CREATE TABLE ledger (id BIGINT AUTO_INCREMENT PRIMARY KEY, amount INT)"))
	require.NoError(t, err)

	require.NoError(t, h.SetAutoCommit(ctx, false))
	_, err = h.ExecuteUpdate(ctx, Direct("INSERT INTO ledger (amount) VALUES (10)"))
	require.NoError(t, err)
	assert.True(t, h.Rollback(ctx).OK())

	_, err = h.ExecuteUpdate(ctx, Direct("INSERT INTO ledger (amount) VALUES (20)"))
	require.NoError(t, err)
	require.NoError(t, h.Commit(ctx))

	cur, err := h.ExecuteQuery(ctx, Direct("SELECT amount FROM ledger"))
	require.NoError(t, err)
	var amounts []int
	for cur.Next() {
		var a int
		require.NoError(t, cur.Scan(&a))
		amounts = append(amounts, a)
	}
	assert.Equal(t, []int{20}, amounts)
}
