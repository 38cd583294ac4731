package ygggo_conn

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvPrefix         = "YGGGO_CONN"
	EnvDialect        = "YGGGO_CONN_DIALECT"
	EnvDSN            = "YGGGO_CONN_DSN"
	EnvHost           = "YGGGO_CONN_HOST"
	EnvPort           = "YGGGO_CONN_PORT"
	EnvDatabase       = "YGGGO_CONN_DATABASE"
	EnvUsername       = "YGGGO_CONN_USERNAME"
	EnvPassword       = "YGGGO_CONN_PASSWORD"
	EnvCharset        = "YGGGO_CONN_CHARSET"
	EnvTLS            = "YGGGO_CONN_TLS"
	EnvTLSMode        = "YGGGO_CONN_TLS_MODE"
	EnvConnectTimeout = "YGGGO_CONN_CONNECT_TIMEOUT"
	EnvReadTimeout    = "YGGGO_CONN_READ_TIMEOUT"
	EnvWriteTimeout   = "YGGGO_CONN_WRITE_TIMEOUT"
	EnvParseTime      = "YGGGO_CONN_PARSE_TIME"
	EnvLocation       = "YGGGO_CONN_LOCATION"
	EnvParams         = "YGGGO_CONN_PARAMS"
	EnvRegistryName   = "YGGGO_CONN_REGISTRY_NAME"
	EnvDeferStatement = "YGGGO_CONN_DEFER_STATEMENT"
	EnvTelemetry      = "YGGGO_CONN_TELEMETRY"
)

// Config keys, as used in config files and by BindEnv.
const (
	keyDialect        = "dialect"
	keyDSN            = "dsn"
	keyHost           = "host"
	keyPort           = "port"
	keyDatabase       = "database"
	keyUsername       = "username"
	keyPassword       = "password"
	keyCharset        = "charset"
	keyTLS            = "tls"
	keyTLSMode        = "tls_mode"
	keyConnectTimeout = "connect_timeout"
	keyReadTimeout    = "read_timeout"
	keyWriteTimeout   = "write_timeout"
	keyParseTime      = "parse_time"
	keyLocation       = "location"
	keyParams         = "params"
	keyRegistryName   = "registry_name"
	keyDeferStatement = "defer_statement"
	keyTelemetry      = "telemetry"
)

// ConfigFromEnv builds a Config from DefaultConfig overridden by YGGGO_CONN_*
// environment variables.
func ConfigFromEnv() (Config, error) {
	return LoadConfig(viper.New())
}

// LoadConfig reads a Config from v. Environment variables with the
// YGGGO_CONN_ prefix override values from any config file already set on v,
// and both override DefaultConfig.
func LoadConfig(v *viper.Viper) (Config, error) {
	def := DefaultConfig()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyDialect, def.Dialect.Name)
	v.SetDefault(keyHost, def.Host)
	v.SetDefault(keyDatabase, def.Database)
	v.SetDefault(keyUsername, def.Username)
	v.SetDefault(keyRegistryName, def.RegistryName)

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	dialect, err := DialectByName(v.GetString(keyDialect))
	if err != nil {
		return Config{}, err
	}

	cfg := def
	cfg.Dialect = dialect
	cfg.DSN = v.GetString(keyDSN)
	cfg.Host = v.GetString(keyHost)
	cfg.Port = v.GetInt(keyPort)
	if cfg.Port == 0 {
		cfg.Port = dialect.DefaultPort
	}
	cfg.Database = v.GetString(keyDatabase)
	cfg.Username = v.GetString(keyUsername)
	cfg.Password = v.GetString(keyPassword)
	cfg.Charset = v.GetString(keyCharset)
	if cfg.Charset == "" && dialect.Name == MySQL.Name {
		cfg.Charset = def.Charset
	}
	cfg.EnableTLS = v.GetBool(keyTLS)
	cfg.TLSMode = v.GetString(keyTLSMode)
	cfg.ConnectTimeout = v.GetDuration(keyConnectTimeout)
	cfg.ReadTimeout = v.GetDuration(keyReadTimeout)
	cfg.WriteTimeout = v.GetDuration(keyWriteTimeout)
	cfg.ParseTime = v.GetBool(keyParseTime)
	cfg.Location = v.GetString(keyLocation)
	cfg.RegistryName = v.GetString(keyRegistryName)
	cfg.DeferStatement = v.GetBool(keyDeferStatement)
	cfg.Telemetry.Enabled = v.GetBool(keyTelemetry)

	params, err := parseParams(v.Get(keyParams))
	if err != nil {
		return Config{}, err
	}
	cfg.Params = params
	return cfg, nil
}

// parseParams accepts either a query string ("parseTime=true&loc=Local"),
// as env vars carry it, or a map from a config file.
func parseParams(raw any) (map[string]string, error) {
	switch p := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(p) == "" {
			return nil, nil
		}
		q, err := url.ParseQuery(p)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvParams, err)
		}
		out := make(map[string]string, len(q))
		for k, vs := range q {
			if len(vs) > 0 {
				out[k] = vs[len(vs)-1]
			}
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(p))
		for k, v := range p {
			out[k] = fmt.Sprint(v)
		}
		return out, nil
	case map[string]string:
		return p, nil
	}
	return nil, fmt.Errorf("params: unsupported type %T", raw)
}
