// Package query provides the fluent SQL query builder.
//
// A Query accumulates builder state (selects, joins, predicates, ordering,
// limit/offset, aggregates) together with the flat list of bound values, in
// the same order the compiled SQL will emit placeholders. Compilation is
// delegated to a Grammar; execution is delegated to an Executor.
//
// Builder methods return the receiver for chaining. A malformed argument
// records a *BuilderInputError on the Query and leaves its state untouched;
// the error surfaces from Err and from every terminal operation.
package query

import (
	"context"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/result"
)

// Statement is compiled SQL plus its bindings in placeholder order.
type Statement struct {
	SQL      string
	Bindings []Value
	// Returning is set when SQL yields the generated id as a result row.
	Returning bool
}

// FetchOptions controls how selected rows are materialized.
type FetchOptions struct {
	FetchType core.FetchType
}

// Grammar compiles Query state into dialect specific SQL.
type Grammar interface {
	Name() string
	CompileSelect(q *Query) (Statement, error)
	CompileInsert(q *Query, rows []map[string]any) (Statement, error)
	CompileInsertGetID(q *Query, row map[string]any, column string) (Statement, error)
	CompileUpdate(q *Query, values map[string]any) (Statement, error)
	CompileDelete(q *Query) (Statement, error)

	Wrap(v Value) string
	WrapTable(v Value) string
	Parameter(v Value) string
	Parameterize(vs []Value) string
	Columnize(vs []Value) string
}

// Executor runs compiled statements.
type Executor interface {
	Select(ctx context.Context, stmt Statement, opts FetchOptions) (*result.Result, error)
	Affect(ctx context.Context, stmt Statement) (int64, error)
	InsertGetID(ctx context.Context, stmt Statement) (int64, error)
}

// Ordering is one ORDER BY entry. Direction is "ASC" or "DESC".
type Ordering struct {
	Column    Value
	Direction string
}

// State is the builder state a Grammar reads. Limit and Offset are unset
// when zero.
type State struct {
	Selects   []Value
	Distinct  bool
	Cache     bool
	From      Value
	Joins     []*Join
	Wheres    []Predicate
	Groupings []Value
	Orderings []Ordering
	Limit     int
	Offset    int
	Aggregate *Aggregate
	Bindings  []Value
}

// Query is a mutable builder for one statement against one table.
type Query struct {
	grammar Grammar
	exec    Executor
	state   State
	fetch   core.FetchType
	err     error
}

// New returns a Query over table. table may be a name (optionally
// "name as alias") or a Raw expression.
func New(g Grammar, exec Executor, table any) *Query {
	q := &Query{grammar: g, exec: exec, fetch: core.FetchMap}
	from, ok := columnValue(table)
	if !ok {
		q.fail("table", "table", "expected a table name or Raw expression")
		return q
	}
	q.state.From = from
	return q
}

// Failed returns a Query whose terminal operations all return err. It
// lets callers that cannot build a Query (for example, when a grammar
// fails to resolve) keep the fluent call shape.
func Failed(err error) *Query {
	return &Query{fetch: core.FetchMap, err: err}
}

// State returns a snapshot of the builder state.
func (q *Query) State() State {
	return q.state
}

// Grammar returns the grammar the Query compiles with.
func (q *Query) Grammar() Grammar {
	return q.grammar
}

// Bindings returns the where bindings accumulated so far.
func (q *Query) Bindings() []Value {
	return q.state.Bindings
}

// Err returns the first builder error recorded on the Query.
func (q *Query) Err() error {
	return q.err
}

func (q *Query) fail(op, argument, reason string) *Query {
	if q.err == nil {
		q.err = &BuilderInputError{Op: op, Argument: argument, Reason: reason}
	}
	return q
}

func (q *Query) failWith(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// newNested returns an empty Query sharing the grammar, executor and table.
func (q *Query) newNested() *Query {
	return &Query{
		grammar: q.grammar,
		exec:    q.exec,
		fetch:   q.fetch,
		state:   State{From: q.state.From},
	}
}

// Distinct makes the select statement-level DISTINCT (or DISTINCT inside
// the aggregate when aggregating).
func (q *Query) Distinct() *Query {
	q.state.Distinct = true
	return q
}

// UseResultCache asks dialects that support it to cache the result set.
func (q *Query) UseResultCache() *Query {
	q.state.Cache = true
	return q
}

// FetchType selects the row shape of results returned by Select.
func (q *Query) FetchType(ft core.FetchType) *Query {
	q.fetch = ft.Normalize()
	return q
}

// Join adds an INNER JOIN with one ON clause.
func (q *Query) Join(table any, first, operator, second string) *Query {
	return q.JoinOn(table, JoinInner, func(j *Join) { j.On(first, operator, second) })
}

// LeftJoin adds a LEFT JOIN with one ON clause.
func (q *Query) LeftJoin(table any, first, operator, second string) *Query {
	return q.JoinOn(table, JoinLeft, func(j *Join) { j.On(first, operator, second) })
}

// JoinOn adds a join whose ON clauses are built by fn.
func (q *Query) JoinOn(table any, kind JoinKind, fn func(*Join)) *Query {
	t, ok := columnValue(table)
	if !ok {
		return q.fail("join", "table", "expected a table name or Raw expression")
	}
	if kind == "" {
		kind = JoinInner
	}
	j := &Join{Kind: kind, Table: t}
	fn(j)
	if j.err != nil {
		return q.failWith(j.err)
	}
	q.state.Joins = append(q.state.Joins, j)
	return q
}

// JoinUsing joins table on a column both tables share:
// from.column = table.column.
func (q *Query) JoinUsing(table, column string, kind JoinKind) *Query {
	from := q.state.From.Text()
	if fields := strings.Fields(from); len(fields) > 0 {
		from = fields[len(fields)-1]
	}
	target := table
	if fields := strings.Fields(table); len(fields) > 0 {
		target = fields[len(fields)-1]
	}
	return q.JoinOn(table, kind, func(j *Join) {
		j.On(from+"."+column, "=", target+"."+column)
	})
}

// GroupBy appends grouping columns.
func (q *Query) GroupBy(columns ...any) *Query {
	cols, ok := columnValues(columns)
	if !ok {
		return q.fail("groupBy", "column", "expected column names or Raw expressions")
	}
	q.state.Groupings = append(q.state.Groupings, cols...)
	return q
}

// OrderBy appends an ordering. An empty direction means ascending.
func (q *Query) OrderBy(column any, direction string) *Query {
	col, ok := columnValue(column)
	if !ok {
		return q.fail("orderBy", "column", "expected a column name or Raw expression")
	}
	dir := strings.ToUpper(strings.TrimSpace(direction))
	switch dir {
	case "":
		dir = "ASC"
	case "ASC", "DESC":
	default:
		return q.fail("orderBy", "direction", "unsupported sort direction "+quoteArg(direction))
	}
	q.state.Orderings = append(q.state.Orderings, Ordering{Column: col, Direction: dir})
	return q
}

// Limit caps the number of rows. Zero removes the limit.
func (q *Query) Limit(n int) *Query {
	if n < 0 {
		return q.fail("limit", "n", "must not be negative")
	}
	q.state.Limit = n
	return q
}

// Offset skips n rows. Zero removes the offset.
func (q *Query) Offset(n int) *Query {
	if n < 0 {
		return q.fail("offset", "n", "must not be negative")
	}
	q.state.Offset = n
	return q
}

// ForPage sets offset and limit for a 1-based page.
func (q *Query) ForPage(page, perPage int) *Query {
	return q.Offset((page - 1) * perPage).Limit(perPage)
}
