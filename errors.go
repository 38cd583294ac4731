package ygggo_conn

import (
	"database/sql/driver"
	"errors"
	"fmt"

	mysql "github.com/go-sql-driver/mysql"
)

var (
	ErrNotConnected        = errors.New("connection is not open")
	ErrRegistryMissing     = errors.New("no registry configured for pooled acquisition")
	ErrNoStatement         = errors.New("no direct statement bound")
	ErrNoPreparedStatement = errors.New("no prepared statement bound")
	ErrNoCallableStatement = errors.New("no callable statement bound")
	ErrEmptySQL            = errors.New("empty sql text")
	ErrAutoCommit          = errors.New("autocommit is enabled")
	ErrStatementClosed     = errors.New("statement is closed")
	ErrCursorClosed        = errors.New("cursor is closed")
	ErrUnknownDialect      = errors.New("unknown dialect")
	ErrUnknownStrategy     = errors.New("unknown acquisition strategy")
)

// ConnectError is returned by every fallible ConnectionHandle operation.
type ConnectError struct {
	Op  string
	Err error
}

func (e *ConnectError) Error() string {
	if e.Err == nil {
		return "ygggo_conn: " + e.Op + " failed"
	}
	return fmt.Sprintf("ygggo_conn: %s: %v", e.Op, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// IsConnectError reports whether err carries a *ConnectError.
func IsConnectError(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}

// connectErr wraps err for op unless it already is a ConnectError.
func connectErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConnectError
	if errors.As(err, &ce) {
		return err
	}
	return &ConnectError{Op: op, Err: err}
}

// ErrorClass buckets driver failures for log records.
type ErrorClass int

const (
	ErrClassUnknown ErrorClass = iota
	ErrClassRetryable
	ErrClassConflict
	ErrClassReadonly
	ErrClassConstraint
	ErrClassConnection
)

func (c ErrorClass) String() string {
	switch c {
	case ErrClassRetryable:
		return "retryable"
	case ErrClassConflict:
		return "conflict"
	case ErrClassReadonly:
		return "readonly"
	case ErrClassConstraint:
		return "constraint"
	case ErrClassConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Classify maps an error to an ErrorClass using MySQL server error numbers
// and the driver's connection sentinels.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrClassUnknown
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return ErrClassConnection
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return ErrClassUnknown
	}
	switch me.Number {
	case 1205, 1213: // lock wait timeout, deadlock
		return ErrClassRetryable
	case 1062:
		return ErrClassConflict
	case 1290, 1792:
		return ErrClassReadonly
	case 1048, 1451, 1452:
		return ErrClassConstraint
	}
	return ErrClassUnknown
}

// errorCode returns the MySQL error number carried by err, or 0.
func errorCode(err error) int {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return int(me.Number)
	}
	return 0
}
