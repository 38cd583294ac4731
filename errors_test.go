package ygggo_conn

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestConnectError_Format(t *testing.T) {
	err := &ConnectError{Op: "connect", Err: errors.New("dial tcp: refused")}
	assert.Equal(t, "ygggo_conn: connect: dial tcp: refused", err.Error())
	assert.Equal(t, "ygggo_conn: commit failed", (&ConnectError{Op: "commit"}).Error())
}

func TestConnectErr_WrapsOnce(t *testing.T) {
	assert.NoError(t, connectErr("x", nil))

	inner := connectErr("execute update", ErrEmptySQL)
	outer := connectErr("outer", fmt.Errorf("context: %w", inner))

	var ce *ConnectError
	assert.True(t, errors.As(outer, &ce))
	assert.Equal(t, "execute update", ce.Op)
	assert.ErrorIs(t, outer, ErrEmptySQL)
	assert.True(t, IsConnectError(outer))
	assert.False(t, IsConnectError(ErrEmptySQL))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorClass
	}{
		{nil, ErrClassUnknown},
		{errors.New("plain"), ErrClassUnknown},
		{&mysql.MySQLError{Number: 1213}, ErrClassRetryable},
		{&mysql.MySQLError{Number: 1205}, ErrClassRetryable},
		{&mysql.MySQLError{Number: 1062}, ErrClassConflict},
		{&mysql.MySQLError{Number: 1290}, ErrClassReadonly},
		{&mysql.MySQLError{Number: 1452}, ErrClassConstraint},
		{&mysql.MySQLError{Number: 1146}, ErrClassUnknown},
		{driver.ErrBadConn, ErrClassConnection},
		{fmt.Errorf("exec: %w", mysql.ErrInvalidConn), ErrClassConnection},
		{connectErr("execute update", &mysql.MySQLError{Number: 1062}), ErrClassConflict},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.err), "%v", tc.err)
	}
	assert.Equal(t, "retryable", ErrClassRetryable.String())
	assert.Equal(t, 1062, errorCode(connectErr("x", &mysql.MySQLError{Number: 1062})))
	assert.Equal(t, 0, errorCode(errors.New("plain")))
}
