package grammar

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/query"
)

// CompileInsert compiles a multi-row insert. Columns are the sorted keys
// of the first row; bindings follow row order, then column order.
func (g *Grammar) CompileInsert(q *query.Query, rows []map[string]any) (query.Statement, error) {
	s := q.State()
	if s.From.IsZero() {
		return query.Statement{}, &Error{Component: "insert", Reason: "no table set"}
	}
	if len(rows) == 0 {
		return query.Statement{}, &Error{Component: "insert", Reason: "no rows to insert"}
	}

	columns := query.SortedColumns(rows[0])
	tuples := make([]string, 0, len(rows))
	bindings := make([]query.Value, 0, len(rows)*len(columns))
	for n, row := range rows {
		values, err := rowValues(row, columns, n)
		if err != nil {
			return query.Statement{}, err
		}
		tuples = append(tuples, "("+g.Parameterize(values)+")")
		bindings = append(bindings, values...)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		g.WrapTable(s.From), g.Columnize(bindAll(columns)), strings.Join(tuples, ", "))
	return query.Statement{SQL: sql, Bindings: bindings}, nil
}

// CompileInsertGetID compiles a single-row insert that reports the
// generated identity of column.
func (g *Grammar) CompileInsertGetID(q *query.Query, row map[string]any, column string) (query.Statement, error) {
	s := q.State()
	if s.From.IsZero() {
		return query.Statement{}, &Error{Component: "insert", Reason: "no table set"}
	}
	if len(row) == 0 {
		return query.Statement{}, &Error{Component: "insert", Reason: "no values to insert"}
	}

	columns := query.SortedColumns(row)
	values, err := rowValues(row, columns, 0)
	if err != nil {
		return query.Statement{}, err
	}
	parts := InsertParts{
		Table:   g.WrapTable(s.From),
		Columns: g.Columnize(bindAll(columns)),
		Values:  "(" + g.Parameterize(values) + ")",
	}
	sql, returning := g.dialect.ReturningID(g, parts, column)
	return query.Statement{SQL: sql, Bindings: values, Returning: returning}, nil
}

// CompileUpdate compiles an update. SET values (sorted by column) are bound
// before the where bindings, matching placeholder order.
func (g *Grammar) CompileUpdate(q *query.Query, values map[string]any) (query.Statement, error) {
	s := q.State()
	if s.From.IsZero() {
		return query.Statement{}, &Error{Component: "update", Reason: "no table set"}
	}
	if len(values) == 0 {
		return query.Statement{}, &Error{Component: "update", Reason: "no values to set"}
	}

	columns := query.SortedColumns(values)
	sets := make([]string, len(columns))
	bindings := make([]query.Value, 0, len(columns)+len(s.Bindings))
	for i, col := range columns {
		v := query.Bind(values[col])
		sets[i] = g.Wrap(query.Bind(col)) + " = " + g.Parameter(v)
		bindings = append(bindings, v)
	}
	bindings = append(bindings, s.Bindings...)

	where, err := g.compileWheres(s.Wheres)
	if err != nil {
		return query.Statement{}, err
	}
	sql := "UPDATE " + g.WrapTable(s.From) + " SET " + strings.Join(sets, ", ")
	if where != "" {
		sql += " " + where
	}
	return query.Statement{SQL: sql, Bindings: bindings}, nil
}

// CompileDelete compiles a delete constrained by the where predicates.
func (g *Grammar) CompileDelete(q *query.Query) (query.Statement, error) {
	s := q.State()
	if s.From.IsZero() {
		return query.Statement{}, &Error{Component: "delete", Reason: "no table set"}
	}
	where, err := g.compileWheres(s.Wheres)
	if err != nil {
		return query.Statement{}, err
	}
	sql := "DELETE FROM " + g.WrapTable(s.From)
	if where != "" {
		sql += " " + where
	}
	return query.Statement{SQL: sql, Bindings: s.Bindings}, nil
}

func rowValues(row map[string]any, columns []string, n int) ([]query.Value, error) {
	if len(row) != len(columns) {
		return nil, &Error{Component: "insert", Reason: fmt.Sprintf("row %d has %d columns, want %d", n, len(row), len(columns))}
	}
	values := make([]query.Value, len(columns))
	for i, col := range columns {
		v, ok := row[col]
		if !ok {
			return nil, &Error{Component: "insert", Reason: fmt.Sprintf("row %d is missing column %q", n, col)}
		}
		values[i] = query.Bind(v)
	}
	return values, nil
}

func bindAll(names []string) []query.Value {
	out := make([]query.Value, len(names))
	for i, n := range names {
		out[i] = query.Bind(n)
	}
	return out
}
