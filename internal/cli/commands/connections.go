package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapdb/pkg/result"
)

const (
	// pingTimeout bounds a single --ping check.
	pingTimeout        = 5 * time.Second
	maxConcurrentPings = 8
)

// ConnectionsOptions holds options for the connections command.
type ConnectionsOptions struct {
	Ping bool
}

// NewConnectionsCommand creates the connections command.
func NewConnectionsCommand() *cobra.Command {
	opts := &ConnectionsOptions{}

	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conns"},
		Short:   "List configured connections",
		Long: `List the connections defined in the configuration. The default
connection is marked with *. With --ping every connection is opened and
pinged concurrently.`,
		Example: `  leapdb connections
  leapdb connections --ping -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConnections(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Ping, "ping", false, "Open and ping every connection")

	return cmd
}

func runConnections(cmd *cobra.Command, opts *ConnectionsOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	names := cmdCtx.Registry.Names()
	statuses := make([]string, len(names))
	if opts.Ping {
		statuses = pingAll(cmd.Context(), cmdCtx, names)
	}

	cols := []string{"default", "name", "driver", "database"}
	if opts.Ping {
		cols = append(cols, "status")
	}
	rows := make([]result.Row, 0, len(names))
	for i, name := range names {
		cfg, _ := cmdCtx.Registry.Config(name)
		marker := ""
		if name == cmdCtx.Registry.DefaultName() {
			marker = "*"
		}
		row := result.Row{
			"default":  marker,
			"name":     name,
			"driver":   cfg.Driver,
			"database": cfg.Database,
		}
		if opts.Ping {
			row["status"] = statuses[i]
		}
		rows = append(rows, row)
	}
	return renderRows(cmdCtx.Out, cols, rows, cmdCtx.Cfg.OutputFormat)
}

// pingAll pings every named connection concurrently. A failed ping is
// reported in its status and does not stop the others.
func pingAll(ctx context.Context, cmdCtx *CommandContext, names []string) []string {
	titleCaser := cases.Title(language.English)
	statuses := make([]string, len(names))

	var g errgroup.Group
	g.SetLimit(maxConcurrentPings)
	for i, name := range names {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()

			conn, err := cmdCtx.Registry.Connection(pctx, name)
			if err == nil {
				err = conn.Ping(pctx)
			}
			if err != nil {
				cmdCtx.Logger.Warn("ping failed", "connection", name, "error", err)
				statuses[i] = titleCaser.String("unreachable") + ": " + err.Error()
				return nil
			}
			statuses[i] = titleCaser.String("reachable")
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}
