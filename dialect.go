package ygggo_conn

import (
	"context"
	"database/sql/driver"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
)

// Dialect holds the per-database pieces a handle needs: how to build a
// connection string, how to turn it into a connector, and the two queries
// the handle issues on its own.
type Dialect struct {
	Name            string
	System          string // db.system attribute value
	DefaultPort     int
	ProbeSQL        string
	LastInsertIDSQL string

	dsn       func(Config) string
	connector func(dsn string) (driver.Connector, error)
}

const (
	defaultMySQLPort    = 3306
	defaultPostgresPort = 5432
)

var (
	MySQL = Dialect{
		Name:            "mysql",
		System:          "mysql",
		DefaultPort:     defaultMySQLPort,
		ProbeSQL:        "select 1",
		LastInsertIDSQL: "select last_insert_id() as `id`",
		dsn:             mysqlDSN,
		connector:       mysqlConnector,
	}

	Postgres = Dialect{
		Name:            "postgres",
		System:          "postgresql",
		DefaultPort:     defaultPostgresPort,
		ProbeSQL:        "select 1",
		LastInsertIDSQL: "select lastval()",
		dsn:             postgresDSN,
		connector: func(dsn string) (driver.Connector, error) {
			return pq.NewConnector(dsn)
		},
	}

	SQLite = Dialect{
		Name:            "sqlite",
		System:          "sqlite",
		ProbeSQL:        "select 1",
		LastInsertIDSQL: "select last_insert_rowid()",
		dsn:             func(c Config) string { return c.Database },
		connector: func(dsn string) (driver.Connector, error) {
			return newDriverConnector(&sqlite.Driver{}, dsn), nil
		},
	}
)

// DialectByName resolves "mysql", "postgres" ("postgresql", "pg") or
// "sqlite" ("sqlite3").
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

func (d Dialect) String() string { return d.Name }

// DSN renders cfg as this dialect's connection string.
func (d Dialect) DSN(cfg Config) string {
	if d.dsn == nil {
		return ""
	}
	return d.dsn(cfg)
}

// Connector turns a connection string into a driver.Connector without going
// through the global sql driver registry.
func (d Dialect) Connector(dsn string) (driver.Connector, error) {
	if d.connector == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, d.Name)
	}
	return d.connector(dsn)
}

func mysqlDSN(c Config) string { return FromConfig(c).Build() }

func mysqlConnector(dsn string) (driver.Connector, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	return mysql.NewConnector(mc)
}

// postgresDSN renders libpq keyword/value form.
func postgresDSN(c Config) string {
	kv := map[string]string{
		"host":   c.Host,
		"port":   strconv.Itoa(c.Port),
		"dbname": c.Database,
		"user":   c.Username,
	}
	if c.Password != "" {
		kv["password"] = c.Password
	}
	kv["sslmode"] = pqSSLMode(c.tlsMode())
	if c.ConnectTimeout > 0 {
		secs := int(math.Ceil(c.ConnectTimeout.Seconds()))
		kv["connect_timeout"] = strconv.Itoa(secs)
	}
	kv["client_encoding"] = "UTF8"
	for k, v := range c.Params {
		kv[k] = v
	}
	keys := make([]string, 0, len(kv))
	for k, v := range kv {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+pqQuote(kv[k]))
	}
	return strings.Join(parts, " ")
}

// pqSSLMode maps the mysql-style TLS modes onto libpq sslmode values.
func pqSSLMode(mode string) string {
	switch mode {
	case TLSModeDisabled:
		return "disable"
	case TLSModePreferred:
		return "prefer"
	case TLSModeRequired, TLSModeSkipVerify:
		return "require"
	}
	return mode
}

func pqQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// driverConnector adapts a driver.Driver that has no connector of its own.
type driverConnector struct {
	drv driver.Driver
	dsn string
}

func newDriverConnector(drv driver.Driver, dsn string) driver.Connector {
	return driverConnector{drv: drv, dsn: dsn}
}

func (c driverConnector) Connect(context.Context) (driver.Conn, error) {
	return c.drv.Open(c.dsn)
}

func (c driverConnector) Driver() driver.Driver { return c.drv }
