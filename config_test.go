package ygggo_conn

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, "editor", cfg.Database)
	assert.Equal(t, "root", cfg.Username)
	assert.Equal(t, "utf8mb4", cfg.Charset)
	assert.Equal(t, "jdbc/editor", cfg.RegistryName)
	assert.False(t, cfg.EnableTLS)
}

func TestConfig_WithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{Dialect: Postgres, Host: "pg", RegistryName: "jdbc/other"}.withDefaults()
	assert.Equal(t, "pg", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Empty(t, cfg.Charset, "charset is a mysql parameter")
	assert.Equal(t, "jdbc/other", cfg.RegistryName)
	assert.NotNil(t, cfg.Logger)
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, MySQL.Name, cfg.Dialect.Name)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, DefaultCharset, cfg.Charset)
	assert.Nil(t, cfg.Params)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvHost, "db.internal")
	t.Setenv(EnvPort, "3307")
	t.Setenv(EnvDatabase, "docs")
	t.Setenv(EnvUsername, "app")
	t.Setenv(EnvPassword, "pw")
	t.Setenv(EnvTLS, "true")
	t.Setenv(EnvParams, "parseTime=true&loc=UTC")
	t.Setenv(EnvRegistryName, "jdbc/docs")
	t.Setenv(EnvDeferStatement, "1")
	t.Setenv(EnvTelemetry, "true")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, "docs", cfg.Database)
	assert.Equal(t, "app", cfg.Username)
	assert.Equal(t, "pw", cfg.Password)
	assert.True(t, cfg.EnableTLS)
	assert.Equal(t, map[string]string{"parseTime": "true", "loc": "UTC"}, cfg.Params)
	assert.Equal(t, "jdbc/docs", cfg.RegistryName)
	assert.True(t, cfg.DeferStatement)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Contains(t, cfg.ConnectionString(), "app:pw@tcp(db.internal:3307)/docs?")
}

func TestConfigFromEnv_DriverOptions(t *testing.T) {
	t.Setenv(EnvTLSMode, "skip-verify")
	t.Setenv(EnvConnectTimeout, "5s")
	t.Setenv(EnvReadTimeout, "30s")
	t.Setenv(EnvWriteTimeout, "1m")
	t.Setenv(EnvParseTime, "true")
	t.Setenv(EnvLocation, "UTC")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "skip-verify", cfg.TLSMode)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, time.Minute, cfg.WriteTimeout)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "UTC", cfg.Location)

	dsn := cfg.ConnectionString()
	for _, want := range []string{"tls=skip-verify", "timeout=5s", "readTimeout=30s", "writeTimeout=1m0s", "parseTime=true", "loc=UTC"} {
		assert.Contains(t, dsn, want)
	}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.Port = 70000
	bad.ReadTimeout = -time.Second
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be between 1 and 65535")
	assert.Contains(t, err.Error(), "readTimeout must be positive")

	verbatim := bad
	verbatim.DSN = "app@tcp(db:3306)/docs"
	assert.NoError(t, verbatim.Validate(), "a verbatim DSN is used as given")

	assert.NoError(t, Config{Dialect: SQLite, Database: "x.db"}.Validate())
}

func TestConfigFromEnv_PostgresDefaults(t *testing.T) {
	t.Setenv(EnvDialect, "postgres")
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Postgres.Name, cfg.Dialect.Name)
	assert.Equal(t, 5432, cfg.Port)
	assert.Empty(t, cfg.Charset)
}

func TestConfigFromEnv_Errors(t *testing.T) {
	t.Setenv(EnvDialect, "oracle")
	_, err := ConfigFromEnv()
	assert.ErrorIs(t, err, ErrUnknownDialect)

	t.Setenv(EnvDialect, "mysql")
	t.Setenv(EnvParams, "bad=%zz")
	_, err = ConfigFromEnv()
	assert.Error(t, err)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conn.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dialect: mysql
host: files.local
port: 3310
database: from_file
username: filer
params:
  parseTime: true
  collation: utf8mb4_bin
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	t.Setenv(EnvDatabase, "from_env")

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "files.local", cfg.Host)
	assert.Equal(t, 3310, cfg.Port)
	assert.Equal(t, "from_env", cfg.Database, "environment wins over the file")
	assert.Equal(t, "filer", cfg.Username)
	assert.Equal(t, map[string]string{"parsetime": "true", "collation": "utf8mb4_bin"}, cfg.Params)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := LoadConfig(v)
	assert.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{
		"pooled": Pooled,
		"JNDI":   Pooled,
		"pool":   Pooled,
		"direct": DirectURL,
		"url":    DirectURL,
		"":       DirectURL,
	} {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStrategy("carrier-pigeon")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Equal(t, "strategy(9)", Strategy(9).String())
}

func TestMaskedConnectionString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Password = "hunter2"
	masked := cfg.MaskedConnectionString()
	assert.NotContains(t, masked, "hunter2")
	assert.Contains(t, masked, "root:***@tcp(127.0.0.1:3306)/editor")

	cfg.DSN = "app:hunter2@tcp(db:3306)/docs"
	assert.NotContains(t, cfg.MaskedConnectionString(), "hunter2")
	assert.Contains(t, cfg.MaskedConnectionString(), "app:***@tcp(db:3306)/docs")

	pg := Config{Dialect: Postgres, Password: "hunter2"}
	assert.Contains(t, pg.MaskedConnectionString(), "password=***")
}
