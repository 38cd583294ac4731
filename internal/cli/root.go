package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	ygggo "github.com/yggai/ygggo_conn"
)

type (
	Cmd struct {
		rootCmd   *cobra.Command
		v         *viper.Viper
		out       io.Writer
		rootFlags rootFlags
		execFlags execFlags
	}

	rootFlags struct {
		cfgFile   string
		debugMode bool
	}
)

func New() *Cmd {
	return &Cmd{
		v:   viper.New(),
		out: os.Stdout,
	}
}

func (c *Cmd) Execute() {
	if err := c.command().Execute(); err != nil {
		log.Fatalln(err)
	}
}

func (c *Cmd) command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ygggo_conn",
		Short: "Run statements through a single database connection handle",
		Long: `Open one connection handle from flags, a config file or YGGGO_CONN_*
environment variables and run a probe, an update or a query on it.`,
		Version:           ygggo.Version(),
		PersistentPreRunE: c.initConfig,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.rootFlags.cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.BoolVar(&c.rootFlags.debugMode, "debug", false, "log every statement to stderr")
	flags.String("dialect", "", "database dialect: mysql, postgres or sqlite")
	flags.String("dsn", "", "connection string, used verbatim")
	flags.String("host", "", "database host")
	flags.Int("port", 0, "database port (default: the dialect's port)")
	flags.String("database", "", "database name, or file path for sqlite")
	flags.String("user", "", "database user")
	flags.String("password", "", "database password")
	flags.Bool("tls", false, "require TLS")
	flags.String("tls-mode", "", "TLS mode: false, true, skip-verify or preferred (overrides --tls)")
	flags.Duration("connect-timeout", 0, "dial timeout, e.g. 5s")
	c.bindFlags(flags)

	rootCmd.SetOut(c.out)
	rootCmd.AddCommand(c.getProbeCmd())
	rootCmd.AddCommand(c.getExecCmd())
	rootCmd.AddCommand(c.getQueryCmd())
	rootCmd.AddCommand(c.getDSNCmd())
	c.rootCmd = rootCmd
	return rootCmd
}

// bindFlags maps flag names onto config keys.
func (c *Cmd) bindFlags(flags *pflag.FlagSet) {
	for key, flag := range map[string]string{
		"dialect":         "dialect",
		"dsn":             "dsn",
		"host":            "host",
		"port":            "port",
		"database":        "database",
		"username":        "user",
		"password":        "password",
		"tls":             "tls",
		"tls_mode":        "tls-mode",
		"connect_timeout": "connect-timeout",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}
}

func (c *Cmd) initConfig(cmd *cobra.Command, args []string) error {
	if c.rootFlags.cfgFile != "" {
		c.v.SetConfigFile(c.rootFlags.cfgFile)
	}
	return nil
}

func (c *Cmd) logger() *slog.Logger {
	if !c.rootFlags.debugMode {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (c *Cmd) config() (ygggo.Config, error) {
	cfg, err := ygggo.LoadConfig(c.v)
	if err != nil {
		return ygggo.Config{}, err
	}
	cfg.Logger = c.logger()
	return cfg, nil
}

// open dials a DirectURL handle from the resolved configuration.
func (c *Cmd) open(ctx context.Context) (*ygggo.ConnectionHandle, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return ygggo.New(ctx, ygggo.DirectURL, cfg)
}

func (c *Cmd) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
