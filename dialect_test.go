package ygggo_conn

import (
	"testing"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectByName(t *testing.T) {
	for name, want := range map[string]string{
		"":           "mysql",
		"MySQL":      "mysql",
		"postgres":   "postgres",
		"postgresql": "postgres",
		" pg ":       "postgres",
		"sqlite3":    "sqlite",
	} {
		d, err := DialectByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, d.Name, name)
	}

	_, err := DialectByName("oracle")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestMySQLDialect_DefaultConnectionString(t *testing.T) {
	dsn := DefaultConfig().ConnectionString()

	mc, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3306", mc.Addr)
	assert.Equal(t, "editor", mc.DBName)
	assert.Equal(t, "root", mc.User)
	assert.Equal(t, "false", mc.TLSConfig)
	assert.Contains(t, dsn, "charset=utf8mb4")

	c, err := MySQL.Connector(dsn)
	require.NoError(t, err)
	assert.NotNil(t, c.Driver())
}

func TestMySQLDialect_BadDSN(t *testing.T) {
	_, err := MySQL.Connector("not a dsn")
	assert.Error(t, err)
}

func TestConnectionString_VerbatimDSN(t *testing.T) {
	cfg := Config{DSN: "u@tcp(db:3307)/x"}
	assert.Equal(t, "u@tcp(db:3307)/x", cfg.ConnectionString())
}

func TestPostgresDialect_DSN(t *testing.T) {
	cfg := Config{
		Dialect:  Postgres,
		Host:     "pg.local",
		Database: "editor",
		Username: "app",
		Password: "it's secret",
		Params:   map[string]string{"connect_timeout": "5"},
	}
	dsn := cfg.ConnectionString()
	assert.Equal(t,
		`client_encoding=UTF8 connect_timeout=5 dbname=editor host=pg.local password='it\'s secret' port=5432 sslmode=disable user=app`,
		dsn)

	cfg.EnableTLS = true
	cfg.Password = ""
	assert.Contains(t, cfg.ConnectionString(), "sslmode=require")
	assert.NotContains(t, cfg.ConnectionString(), "password")

	c, err := Postgres.Connector(dsn)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestPostgresDialect_DriverOptions(t *testing.T) {
	cfg := Config{
		Dialect:        Postgres,
		Host:           "pg.local",
		Database:       "editor",
		ConnectTimeout: 1500 * time.Millisecond,
	}
	assert.Contains(t, cfg.ConnectionString(), "connect_timeout=2", "rounded up to whole seconds")

	for mode, want := range map[string]string{
		TLSModeDisabled:   "sslmode=disable",
		TLSModePreferred:  "sslmode=prefer",
		TLSModeRequired:   "sslmode=require",
		TLSModeSkipVerify: "sslmode=require",
		"verify-full":     "sslmode=verify-full",
	} {
		cfg.TLSMode = mode
		assert.Contains(t, cfg.ConnectionString(), want, mode)
	}

	cfg.Params = map[string]string{"connect_timeout": "9"}
	assert.Contains(t, cfg.ConnectionString(), "connect_timeout=9", "explicit params win")
}

func TestSQLiteDialect_DSN(t *testing.T) {
	dsn := buildSQLiteDSN(DefaultSQLiteConfig("/tmp/app.db"))
	assert.Equal(t,
		"/tmp/app.db?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29&_pragma=journal_mode%28WAL%29&_pragma=synchronous%28NORMAL%29",
		dsn)

	mem := DefaultSQLiteConfig(":memory:")
	assert.NotContains(t, buildSQLiteDSN(mem), "journal_mode")

	assert.Equal(t, "plain.db", buildSQLiteDSN(SQLiteConfig{Path: "plain.db", BusyTimeout: -time.Second}))

	cfg := SQLiteDirectConfig(mem)
	assert.Equal(t, SQLite.Name, cfg.Dialect.Name)
	assert.Equal(t, buildSQLiteDSN(mem), cfg.ConnectionString())
}
