package ygggo_conn

import (
	"database/sql/driver"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Strategy selects how a ConnectionHandle obtains its connection.
type Strategy int

const (
	// Pooled borrows a connection from a named Registry.
	Pooled Strategy = iota + 1
	// DirectURL dials the database from a connection string.
	DirectURL
)

func (s Strategy) String() string {
	switch s {
	case Pooled:
		return "pooled"
	case DirectURL:
		return "direct"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "pooled" / "jndi" and "direct" / "url".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pooled", "pool", "jndi":
		return Pooled, nil
	case "direct", "url", "":
		return DirectURL, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

const (
	DefaultHost         = "127.0.0.1"
	DefaultDatabase     = "editor"
	DefaultUsername     = "root"
	DefaultCharset      = "utf8mb4"
	DefaultRegistryName = "jdbc/editor"
)

// TelemetryConfig enables spans and metrics for a handle.
type TelemetryConfig struct {
	Enabled        bool
	TracerProvider trace.TracerProvider // nil uses the global provider
	MeterProvider  metric.MeterProvider // nil uses the global provider
}

// Config holds everything New needs for either strategy.
type Config struct {
	// Pooled
	Registry     Registry
	RegistryName string

	// DirectURL. Connector, when set, is dialed instead of one built from
	// Dialect and the address fields below.
	Dialect   Dialect
	Connector driver.Connector
	DSN       string // used verbatim when set
	Host      string
	Port      int
	Database  string
	Username  string
	Password  string
	Charset   string
	EnableTLS bool
	// TLSMode, when set, overrides EnableTLS: one of the TLSMode* constants
	// or the name of a registered mysql TLS config.
	TLSMode string
	Params  map[string]string

	// Driver timeouts; zero leaves the driver default. Postgres only honours
	// ConnectTimeout, in whole seconds.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// ParseTime and Location control DATE/DATETIME scanning on MySQL.
	ParseTime bool
	Location  string

	// DeferStatement skips creating the default direct statement at
	// acquisition; GetStatement creates one on demand.
	DeferStatement bool

	Logger    *slog.Logger
	Telemetry TelemetryConfig
}

// DefaultConfig returns the local MySQL defaults.
func DefaultConfig() Config {
	return Config{
		RegistryName: DefaultRegistryName,
		Dialect:      MySQL,
		Host:         DefaultHost,
		Port:         MySQL.DefaultPort,
		Database:     DefaultDatabase,
		Username:     DefaultUsername,
		Charset:      DefaultCharset,
	}
}

// withDefaults fills zero fields; explicit values are kept.
func (c Config) withDefaults() Config {
	if c.Dialect.Name == "" {
		c.Dialect = MySQL
	}
	if c.RegistryName == "" {
		c.RegistryName = DefaultRegistryName
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = c.Dialect.DefaultPort
	}
	if c.Charset == "" && c.Dialect.Name == MySQL.Name {
		c.Charset = DefaultCharset
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// ConnectionString returns DSN when set, otherwise the string the dialect
// builds from the address fields.
func (c Config) ConnectionString() string {
	c = c.withDefaults()
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN
	}
	return c.Dialect.DSN(c)
}

func (c Config) tlsMode() string {
	if c.TLSMode != "" {
		return strings.ToLower(c.TLSMode)
	}
	if c.EnableTLS {
		return TLSModeRequired
	}
	return TLSModeDisabled
}

// Validate checks the address fields a DirectURL dial of a MySQL target
// needs. A verbatim DSN or another dialect is left to the driver.
func (c Config) Validate() error {
	c = c.withDefaults()
	if strings.TrimSpace(c.DSN) != "" || c.Dialect.Name != MySQL.Name {
		return nil
	}
	if err := FromConfig(c).Validate(); err != nil {
		return fmt.Errorf("invalid mysql config: %w", err)
	}
	return nil
}

// MaskedConnectionString is ConnectionString with the password replaced by
// "***". A verbatim DSN is masked only when it parses as a MySQL DSN.
func (c Config) MaskedConnectionString() string {
	c = c.withDefaults()
	if strings.TrimSpace(c.DSN) != "" {
		if c.Dialect.Name != MySQL.Name {
			return c.DSN
		}
		mc, err := mysql.ParseDSN(c.DSN)
		if err != nil || mc.Passwd == "" {
			return c.DSN
		}
		mc.Passwd = "***"
		return mc.FormatDSN()
	}
	if c.Dialect.Name == MySQL.Name {
		return FromConfig(c).Masked()
	}
	if c.Password != "" {
		c.Password = "***"
	}
	return c.Dialect.DSN(c)
}
