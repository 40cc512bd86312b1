package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapdb/pkg/db"
	"github.com/leapstack-labs/leapdb/pkg/result"
)

// renderOutcome writes the outcome of a raw statement.
func renderOutcome(w io.Writer, out db.Outcome, format string) error {
	switch out.Kind {
	case db.KindSelect:
		defer func() { _ = out.Result.Close() }()
		return renderResults(w, out.Result, format)
	case db.KindAffect:
		_, _ = fmt.Fprintf(w, "(%d rows affected)\n", out.RowsAffected)
	default:
		_, _ = fmt.Fprintln(w, "OK")
	}
	return nil
}

// renderResults drains res and writes it in format.
func renderResults(w io.Writer, res *result.Result, format string) error {
	cols := res.Columns()
	rows, err := res.GetAll()
	if err != nil {
		return err
	}
	return renderRows(w, cols, rows, format)
}

func renderRows(w io.Writer, cols []string, rows []result.Row, format string) error {
	switch format {
	case "json":
		return renderJSON(w, rows)
	case "yaml":
		return renderYAML(w, cols, rows)
	case "csv":
		return renderCSV(w, cols, rows)
	case "md", "markdown":
		return renderMarkdown(w, cols, rows)
	default:
		return renderTable(w, cols, rows)
	}
}

func renderTable(w io.Writer, cols []string, rows []result.Row) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	// Header
	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	// Rows
	for _, r := range rows {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = formatValue(r[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderJSON(w io.Writer, rows []result.Row) error {
	if rows == nil {
		rows = []result.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(printable(rows))
}

// renderYAML keeps column order by emitting each row as a mapping node.
func renderYAML(w io.Writer, cols []string, rows []result.Row) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, col := range cols {
			var val yaml.Node
			if err := val.Encode(printableValue(r[col])); err != nil {
				return err
			}
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: col},
				&val)
		}
		doc.Content = append(doc.Content, m)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func renderCSV(w io.Writer, cols []string, rows []result.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	for _, r := range rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = formatValue(r[col])
		}
		if err := cw.Write(values); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, cols []string, rows []result.Row) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	// Header
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	// Separator
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	// Rows
	for _, r := range rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = strings.ReplaceAll(formatValue(r[col]), "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// printable converts raw byte slices so encoders emit text, not base64.
func printable(rows []result.Row) []result.Row {
	out := make([]result.Row, len(rows))
	for i, r := range rows {
		row := make(result.Row, len(r))
		for k, v := range r {
			row[k] = printableValue(v)
		}
		out[i] = row
	}
	return out
}

func printableValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
