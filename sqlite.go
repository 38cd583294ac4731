package ygggo_conn

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"modernc.org/sqlite"
)

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	// Database file path, use ":memory:" for in-memory database
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	BusyTimeout time.Duration
	JournalMode string // WAL, DELETE, TRUNCATE, PERSIST, MEMORY, OFF
	Synchronous string // FULL, NORMAL, OFF
	ForeignKeys bool
}

// DefaultSQLiteConfig returns a single-connection configuration for path.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		Path:            path,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
		ForeignKeys:     true,
	}
}

// OpenSQLite opens and pings a modernc sqlite pool.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*sql.DB, error) {
	db := sql.OpenDB(newDriverConnector(&sqlite.Driver{}, buildSQLiteDSN(cfg)))
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}

// NewSQLiteRegistry returns a registry with one sqlite pool bound to name.
func NewSQLiteRegistry(ctx context.Context, name string, cfg SQLiteConfig) (*DBRegistry, error) {
	db, err := OpenSQLite(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r := NewDBRegistry()
	r.Register(name, db)
	return r, nil
}

// SQLiteDirectConfig returns a DirectURL Config that dials the sqlite file
// at path.
func SQLiteDirectConfig(cfg SQLiteConfig) Config {
	c := DefaultConfig()
	c.Dialect = SQLite
	c.DSN = buildSQLiteDSN(cfg)
	c.Port = 0
	c.Charset = ""
	return c
}

// buildSQLiteDSN renders cfg as a modernc DSN using _pragma parameters.
func buildSQLiteDSN(cfg SQLiteConfig) string {
	var pragmas []string
	if cfg.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	}
	// WAL needs a file; in-memory databases keep their default.
	if cfg.JournalMode != "" && cfg.Path != ":memory:" {
		pragmas = append(pragmas, "journal_mode("+strings.ToUpper(cfg.JournalMode)+")")
	}
	if cfg.Synchronous != "" {
		pragmas = append(pragmas, "synchronous("+strings.ToUpper(cfg.Synchronous)+")")
	}
	if cfg.ForeignKeys {
		pragmas = append(pragmas, "foreign_keys(1)")
	}
	if len(pragmas) == 0 {
		return cfg.Path
	}
	sort.Strings(pragmas)
	q := url.Values{"_pragma": pragmas}
	return cfg.Path + "?" + q.Encode()
}
