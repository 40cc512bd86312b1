package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/leapdb/pkg/db"
	"github.com/leapstack-labs/leapdb/pkg/query"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run raw SQL against a connection",
		Long: `Run raw SQL against a configured connection.

SELECT-like statements print their rows; INSERT, UPDATE, DELETE and REPLACE
print the number of affected rows; anything else prints OK. Raw SQL may use
the (...) marker, which expands array bindings in IN lists.

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  leapdb query "SELECT * FROM users LIMIT 5"

  # Use another connection and JSON output
  leapdb query -c reports -o json "SELECT COUNT(*) FROM orders"

  # Read SQL from a file or stdin
  leapdb query --input report.sql
  echo "SELECT 1" | leapdb query

  # Interactive mode
  leapdb query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Determine SQL source
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(cmd.InOrStdin()):
		// Read from stdin (piped input)
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cmdCtx)
	}

	conn, err := cmdCtx.Connection(cmd, "")
	if err != nil {
		return err
	}
	for _, stmt := range splitStatements(sqlQuery) {
		if err := executeAndRender(cmd, conn, stmt, cmdCtx.Cfg.OutputFormat, cmdCtx.Out); err != nil {
			return err
		}
	}
	return nil
}

func executeAndRender(cmd *cobra.Command, conn *db.Connection, sqlQuery, format string, w io.Writer) error {
	out, err := conn.Execute(cmd.Context(), sqlQuery, nil, query.FetchOptions{})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return renderOutcome(w, out, format)
}

// splitStatements splits input on semicolons outside quotes and drops
// empty statements.
func splitStatements(input string) []string {
	var (
		stmts []string
		cur   strings.Builder
		quote rune
	)
	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == ';':
			if s := strings.TrimSpace(cur.String()); s != "" {
				stmts = append(stmts, s)
			}
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
