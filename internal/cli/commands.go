package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	ygggo "github.com/yggai/ygggo_conn"
)

type (
	execFlags struct {
		autoCommit bool
	}
)

var errUnreachable = errors.New("database is unreachable")

func (c *Cmd) getProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that the database answers a trivial query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()
			if !h.TestConnectivity(cmd.Context()) {
				return errUnreachable
			}
			c.printf("ok\n")
			return nil
		},
	}
}

func (c *Cmd) getExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <sql> [args...]",
		Short: "Run an update and print the affected rows",
		Long: `Run a data-changing statement. Extra arguments are bound to ? placeholders
through a prepared statement. The last insert id is printed when the driver
reports one.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			if !c.execFlags.autoCommit {
				if err := h.SetAutoCommit(ctx, false); err != nil {
					return err
				}
			}
			q, err := bind(ctx, h, args[0], args[1:])
			if err != nil {
				return err
			}
			n, err := h.ExecuteUpdate(ctx, q)
			if err != nil {
				return err
			}
			id, hasID := h.GetLastInsertId(ctx)
			if !c.execFlags.autoCommit {
				if err := h.Commit(ctx); err != nil {
					return err
				}
			}
			c.printf("rows affected: %d\n", n)
			if hasID {
				c.printf("last insert id: %d\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&c.execFlags.autoCommit, "autocommit", true, "commit each statement on its own; false wraps the run in a transaction")
	return cmd
}

func (c *Cmd) getQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql> [args...]",
		Short: "Run a query and print rows as tab separated columns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			q, err := bind(ctx, h, args[0], args[1:])
			if err != nil {
				return err
			}
			cur, err := h.ExecuteQuery(ctx, q)
			if err != nil {
				return err
			}
			return c.printRows(cur)
		},
	}
}

func (c *Cmd) getDSNCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dsn",
		Short: "Print the resolved connection string with the password masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			c.printf("%s\n", cfg.MaskedConnectionString())
			return nil
		},
	}
}

// bind returns a direct query, or a prepared one when args are given.
func bind(ctx context.Context, h *ygggo.ConnectionHandle, sql string, args []string) (ygggo.Query, error) {
	if len(args) == 0 {
		return ygggo.Direct(sql), nil
	}
	ps, err := h.PrepareStatement(ctx, sql)
	if err != nil {
		return ygggo.Query{}, err
	}
	for i, a := range args {
		if err := ps.SetString(i+1, a); err != nil {
			return ygggo.Query{}, err
		}
	}
	return ygggo.Prepared(), nil
}

func (c *Cmd) printRows(cur *ygggo.Cursor) error {
	defer cur.Close()
	cols, err := cur.Columns()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(cols, "\t"))

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for cur.Next() {
		if err := cur.Scan(ptrs...); err != nil {
			return err
		}
		cells := make([]string, len(vals))
		for i, v := range vals {
			cells[i] = formatCell(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return w.Flush()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
