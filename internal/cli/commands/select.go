package commands

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdb/pkg/query"
)

// SelectOptions holds options for the select command.
type SelectOptions struct {
	Columns  []string
	Where    []string
	OrWhere  []string
	In       []string
	Raw      []string
	Order    []string
	Group    []string
	Limit    int
	Offset   int
	Distinct bool
	DryRun   bool
	Count    bool
	Page     int
	PerPage  int
}

// NewSelectCommand creates the select command.
func NewSelectCommand() *cobra.Command {
	opts := &SelectOptions{}

	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "Build and run a SELECT with the query builder",
		Long: `Build a SELECT statement from flags and run it on a connection.

Conditions use the form "column operator value", for example "age >= 18" or
"email LIKE %@example.com". The value "null" together with = or != becomes
IS NULL / IS NOT NULL.`,
		Example: `  leapdb select users --columns id,name --where "age >= 18" --order id:desc --limit 10
  leapdb select users --in "id=1,2,3" --dry-run
  leapdb select orders --where "status = paid" --count
  leapdb select orders --page 2 --per-page 25 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Columns, "columns", "s", nil, "Columns to select (default *)")
	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, `AND condition "column op value" (repeatable)`)
	cmd.Flags().StringArrayVar(&opts.OrWhere, "or-where", nil, `OR condition "column op value" (repeatable)`)
	cmd.Flags().StringArrayVar(&opts.In, "in", nil, `IN condition "column=v1,v2,..." (repeatable)`)
	cmd.Flags().StringArrayVar(&opts.Raw, "raw", nil, "Raw SQL condition (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Order, "order", nil, "Order by column[:asc|desc]")
	cmd.Flags().StringSliceVar(&opts.Group, "group", nil, "Group by columns")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of rows")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Rows to skip")
	cmd.Flags().BoolVar(&opts.Distinct, "distinct", false, "Select distinct rows")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the SQL and bindings sent to the driver without executing")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "Print the number of matching rows")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "Page number (enables pagination)")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", query.DefaultPerPage, "Rows per page")

	return cmd
}

func runSelect(cmd *cobra.Command, table string, opts *SelectOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	conn, err := cmdCtx.Connection(cmd, "")
	if err != nil {
		return err
	}

	q, err := buildSelect(conn.Table(table), opts)
	if err != nil {
		return err
	}
	columns := make([]any, len(opts.Columns))
	for i, c := range opts.Columns {
		columns[i] = c
	}
	ctx := cmd.Context()
	format := cmdCtx.Cfg.OutputFormat

	switch {
	case opts.DryRun:
		stmt, err := q.ToSQL(columns...)
		if err != nil {
			return err
		}
		sqlText, args, err := conn.Bound(stmt)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmdCtx.Out, sqlText)
		if bindings := formatBindings(args); bindings != "" {
			_, _ = fmt.Fprintf(cmdCtx.Out, "-- bindings: %s\n", bindings)
		}
		return nil

	case opts.Count:
		n, err := q.Count(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmdCtx.Out, n)
		return nil

	case opts.Page > 0:
		page, err := q.Paginate(ctx, opts.Page, opts.PerPage, columns...)
		if err != nil {
			return err
		}
		defer func() { _ = page.Results.Close() }()
		if err := renderResults(cmdCtx.Out, page.Results, format); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmdCtx.ErrOut, "page %d of %d (%d rows total)\n", page.CurrentPage, page.LastPage, page.Total)
		return nil

	default:
		res, err := q.Select(ctx, columns...)
		if err != nil {
			return err
		}
		defer func() { _ = res.Close() }()
		return renderResults(cmdCtx.Out, res, format)
	}
}

// buildSelect applies the builder flags to q.
func buildSelect(q *query.Query, opts *SelectOptions) (*query.Query, error) {
	if opts.Distinct {
		q.Distinct()
	}
	for _, w := range opts.Where {
		c, err := parseCondition(w)
		if err != nil {
			return nil, err
		}
		q.Where(c.column, c.operator, c.value)
	}
	for _, w := range opts.OrWhere {
		c, err := parseCondition(w)
		if err != nil {
			return nil, err
		}
		q.OrWhere(c.column, c.operator, c.value)
	}
	for _, in := range opts.In {
		column, list, ok := strings.Cut(in, "=")
		if !ok || strings.TrimSpace(column) == "" {
			return nil, fmt.Errorf("invalid --in %q (expected column=v1,v2,...)", in)
		}
		var values []any
		for _, v := range strings.Split(list, ",") {
			values = append(values, parseValue(strings.TrimSpace(v)))
		}
		q.WhereIn(strings.TrimSpace(column), values)
	}
	for _, raw := range opts.Raw {
		q.WhereRaw(raw)
	}
	if len(opts.Group) > 0 {
		groups := make([]any, len(opts.Group))
		for i, g := range opts.Group {
			groups[i] = g
		}
		q.GroupBy(groups...)
	}
	for _, o := range opts.Order {
		column, dir, _ := strings.Cut(o, ":")
		q.OrderBy(column, dir)
	}
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q.Offset(opts.Offset)
	}
	return q, q.Err()
}

type condition struct {
	column   string
	operator string
	value    any
}

var conditionPattern = regexp.MustCompile(`(?i)^\s*([\w.]+)\s*(not\s+like|like|is\s+not|is|<>|!=|>=|<=|=|>|<)\s*(.*?)\s*$`)

// parseCondition parses "column operator value".
func parseCondition(s string) (condition, error) {
	m := conditionPattern.FindStringSubmatch(s)
	if m == nil {
		return condition{}, fmt.Errorf("invalid condition %q (expected \"column operator value\")", s)
	}
	return condition{
		column:   m[1],
		operator: strings.Join(strings.Fields(strings.ToUpper(m[2])), " "),
		value:    parseValue(m[3]),
	}, nil
}

// parseValue turns flag text into a binding: null, integers and floats are
// typed, quoted text is unquoted, anything else stays a string.
func parseValue(s string) any {
	if strings.EqualFold(s, "null") {
		return nil
	}
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func formatBindings(args []any) string {
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = fmt.Sprintf("%#v", v)
	}
	return strings.Join(parts, ", ")
}
