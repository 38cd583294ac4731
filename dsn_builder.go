package ygggo_conn

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// TLS modes understood by the mysql driver's tls parameter. Any other value
// names a config registered with mysql.RegisterTLSConfig.
const (
	TLSModeDisabled   = "false"
	TLSModeRequired   = "true"
	TLSModeSkipVerify = "skip-verify"
	TLSModePreferred  = "preferred"
)

// DSNBuilder assembles a go-sql-driver/mysql DSN. Options are kept as driver
// parameters and rendered in key order, so equal inputs give equal strings.
type DSNBuilder struct {
	addr     [2]string // host, port
	user     string
	password string
	database string
	params   map[string]string
	timeouts map[string]time.Duration
}

func NewDSNBuilder() *DSNBuilder {
	return &DSNBuilder{
		addr:     [2]string{"", strconv.Itoa(defaultMySQLPort)},
		params:   map[string]string{},
		timeouts: map[string]time.Duration{},
	}
}

// FromConfig seeds a builder from cfg: address, credentials, TLS, charset,
// timeouts, time parsing and extra Params.
func FromConfig(cfg Config) *DSNBuilder {
	b := NewDSNBuilder().
		Host(cfg.Host).
		Username(cfg.Username).
		Password(cfg.Password).
		Database(cfg.Database).
		SetCharset(cfg.Charset)
	if cfg.Port != 0 {
		b.Port(cfg.Port)
	}

	switch cfg.tlsMode() {
	case TLSModeRequired:
		b.RequireTLS()
	case TLSModeDisabled:
		b.DisableTLS()
	case TLSModeSkipVerify:
		b.TLSSkipVerify()
	case TLSModePreferred:
		b.TLSPreferred()
	default:
		b.SetParam("tls", cfg.TLSMode)
	}

	if cfg.ConnectTimeout != 0 {
		b.SetTimeout(cfg.ConnectTimeout)
	}
	if cfg.ReadTimeout != 0 {
		b.SetReadTimeout(cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 0 {
		b.SetWriteTimeout(cfg.WriteTimeout)
	}
	if cfg.ParseTime {
		b.EnableParseTime()
	}
	if cfg.Location != "" {
		b.SetLocation(cfg.Location)
	}
	for k, v := range cfg.Params {
		b.SetParam(k, v)
	}
	return b
}

func (b *DSNBuilder) Host(host string) *DSNBuilder { b.addr[0] = host; return b }

func (b *DSNBuilder) Port(port int) *DSNBuilder { b.addr[1] = strconv.Itoa(port); return b }

func (b *DSNBuilder) Username(user string) *DSNBuilder { b.user = user; return b }

func (b *DSNBuilder) Password(password string) *DSNBuilder { b.password = password; return b }

func (b *DSNBuilder) Database(name string) *DSNBuilder { b.database = name; return b }

func (b *DSNBuilder) DisableTLS() *DSNBuilder { return b.SetParam("tls", TLSModeDisabled) }

func (b *DSNBuilder) RequireTLS() *DSNBuilder { return b.SetParam("tls", TLSModeRequired) }

// TLSSkipVerify encrypts without checking the server certificate.
func (b *DSNBuilder) TLSSkipVerify() *DSNBuilder { return b.SetParam("tls", TLSModeSkipVerify) }

// TLSPreferred encrypts only when the server offers TLS.
func (b *DSNBuilder) TLSPreferred() *DSNBuilder { return b.SetParam("tls", TLSModePreferred) }

func (b *DSNBuilder) SetCharset(charset string) *DSNBuilder { return b.SetParam("charset", charset) }

// SetTimeout bounds the dial.
func (b *DSNBuilder) SetTimeout(d time.Duration) *DSNBuilder { return b.timeout("timeout", d) }

func (b *DSNBuilder) SetReadTimeout(d time.Duration) *DSNBuilder { return b.timeout("readTimeout", d) }

func (b *DSNBuilder) SetWriteTimeout(d time.Duration) *DSNBuilder {
	return b.timeout("writeTimeout", d)
}

// EnableParseTime scans DATE and DATETIME columns into time.Time.
func (b *DSNBuilder) EnableParseTime() *DSNBuilder { return b.SetParam("parseTime", "true") }

// SetLocation sets the zone used for parsed times, e.g. "UTC" or "Local".
func (b *DSNBuilder) SetLocation(loc string) *DSNBuilder { return b.SetParam("loc", loc) }

// SetParam sets a raw driver parameter; an empty value removes it.
func (b *DSNBuilder) SetParam(key, value string) *DSNBuilder {
	if value == "" {
		delete(b.params, key)
		return b
	}
	b.params[key] = value
	return b
}

func (b *DSNBuilder) timeout(key string, d time.Duration) *DSNBuilder {
	b.timeouts[key] = d
	return b.SetParam(key, d.String())
}

// Build renders the DSN. Credentials go in raw: the driver splits them at
// the last '@' before the address and the first ':' of the user part.
func (b *DSNBuilder) Build() string { return b.render(b.password) }

// Masked renders the DSN with the password replaced by "***".
func (b *DSNBuilder) Masked() string {
	if b.password == "" {
		return b.Build()
	}
	return b.render("***")
}

func (b *DSNBuilder) render(password string) string {
	var sb strings.Builder
	if b.user != "" {
		sb.WriteString(b.user)
		if password != "" {
			sb.WriteString(":" + password)
		}
		sb.WriteString("@")
	}
	fmt.Fprintf(&sb, "tcp(%s:%s)/%s", b.addr[0], b.addr[1], url.PathEscape(b.database))

	keys := make([]string, 0, len(b.params))
	for k := range b.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		sep := "&"
		if i == 0 {
			sep = "?"
		}
		sb.WriteString(sep + k + "=" + url.QueryEscape(b.params[k]))
	}
	return sb.String()
}

// Validate reports every field that would keep the DSN from dialing.
func (b *DSNBuilder) Validate() error {
	var errs *multierror.Error
	if b.addr[0] == "" {
		errs = multierror.Append(errs, errors.New("host is required"))
	}
	if port, err := strconv.Atoi(b.addr[1]); err != nil || port < 1 || port > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("port must be between 1 and 65535, got %s", b.addr[1]))
	}
	if b.database == "" {
		errs = multierror.Append(errs, errors.New("database name is required"))
	}
	if strings.Contains(b.user, ":") {
		errs = multierror.Append(errs, errors.New("username must not contain ':'"))
	}
	for key, d := range b.timeouts {
		if d <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s must be positive, got %v", key, d))
		}
	}
	return errs.ErrorOrNil()
}

// BuildWithValidation is Build after a successful Validate.
func (b *DSNBuilder) BuildWithValidation() (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	return b.Build(), nil
}
