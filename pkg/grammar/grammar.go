// Package grammar compiles query builder state into dialect specific SQL.
//
// A single Grammar implements the shared compilation algorithm. Dialects
// plug in through the Dialect capability interface: identifier quoting,
// the select clause (DISTINCT, cache hints, TOP), limit and offset
// rendering, final assembly (SQL Server offset emulation) and identity
// retrieval on insert.
//
// Components are compiled in a fixed order: select, from, joins, where,
// group, order, limit, offset. Empty components are skipped and the rest
// are joined with single spaces.
package grammar

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/query"
)

// Components holds the compiled pieces of a select statement.
type Components struct {
	Select string
	From   string
	Joins  string
	Where  string
	Groups string
	Orders string
	Limit  string
	Offset string
}

// String joins the non-empty components with single spaces.
func (c Components) String() string {
	parts := make([]string, 0, 8)
	for _, s := range []string{c.Select, c.From, c.Joins, c.Where, c.Groups, c.Orders, c.Limit, c.Offset} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// InsertParts holds the compiled pieces of a single-row insert.
type InsertParts struct {
	Table   string
	Columns string
	Values  string
}

// Dialect is the set of capabilities a SQL dialect supplies to the shared
// compiler.
type Dialect interface {
	Config() *core.DialectConfig

	// SelectClause renders the SELECT list, or the aggregate when one is set.
	SelectClause(g *Grammar, s *query.State) string
	LimitClause(s *query.State) string
	OffsetClause(s *query.State) string

	// Assemble turns compiled components into the final select statement.
	Assemble(g *Grammar, s *query.State, c Components) string

	// ReturningID builds an insert that yields the generated identity of
	// column. returning is false when the driver's last insert id is used.
	ReturningID(g *Grammar, p InsertParts, column string) (sql string, returning bool)
}

// Grammar compiles query state for one dialect and table prefix.
// It holds no per-query state and is safe for concurrent use.
type Grammar struct {
	dialect Dialect
	config  *core.DialectConfig
	prefix  string
}

// NewWithDialect returns a Grammar for d with the given table prefix.
func NewWithDialect(d Dialect, prefix string) *Grammar {
	return &Grammar{dialect: d, config: d.Config(), prefix: prefix}
}

// Name returns the dialect name.
func (g *Grammar) Name() string {
	return g.config.Name
}

// Dialect returns the dialect the Grammar compiles for.
func (g *Grammar) Dialect() Dialect {
	return g.dialect
}

// Placeholder returns the dialect's parameter style.
func (g *Grammar) Placeholder() core.PlaceholderStyle {
	return g.config.Placeholder
}

// Prefix returns the table prefix.
func (g *Grammar) Prefix() string {
	return g.prefix
}

// CompileSelect compiles the select statement (or the aggregate) for q.
func (g *Grammar) CompileSelect(q *query.Query) (query.Statement, error) {
	s := q.State()
	sql, err := g.compileSelect(&s)
	if err != nil {
		return query.Statement{}, err
	}
	return query.Statement{SQL: sql, Bindings: s.Bindings}, nil
}

func (g *Grammar) compileSelect(s *query.State) (string, error) {
	if s.From.IsZero() {
		return "", &Error{Component: "from", Reason: "no table set"}
	}
	if len(s.Selects) == 0 {
		s.Selects = []query.Value{query.Bind("*")}
	}

	var c Components
	c.Select = g.dialect.SelectClause(g, s)
	c.From = "FROM " + g.WrapTable(s.From)

	joins, err := g.compileJoins(s.Joins)
	if err != nil {
		return "", err
	}
	c.Joins = joins

	where, err := g.compileWheres(s.Wheres)
	if err != nil {
		return "", err
	}
	c.Where = where

	if len(s.Groupings) > 0 {
		c.Groups = "GROUP BY " + g.Columnize(s.Groupings)
	}

	orders, err := g.compileOrders(s.Orderings)
	if err != nil {
		return "", err
	}
	c.Orders = orders
	c.Limit = g.dialect.LimitClause(s)
	c.Offset = g.dialect.OffsetClause(s)

	return g.dialect.Assemble(g, s, c), nil
}

func (g *Grammar) compileJoins(joins []*query.Join) (string, error) {
	if len(joins) == 0 {
		return "", nil
	}
	out := make([]string, 0, len(joins))
	for _, j := range joins {
		if len(j.Clauses) == 0 {
			return "", &Error{Component: "join", Reason: fmt.Sprintf("join on %s has no ON clauses", j.Table.Text())}
		}
		clauses := make([]string, 0, len(j.Clauses))
		for i, c := range j.Clauses {
			clause := g.Wrap(c.First) + " " + c.Operator + " " + g.Wrap(c.Second)
			if i > 0 {
				clause = string(c.Connector) + " " + clause
			}
			clauses = append(clauses, clause)
		}
		kind := j.Kind
		if kind == "" {
			kind = query.JoinInner
		}
		out = append(out, fmt.Sprintf("%s JOIN %s ON %s", kind, g.WrapTable(j.Table), strings.Join(clauses, " ")))
	}
	return strings.Join(out, " "), nil
}

// compileWheres returns "WHERE <predicates>", or "" when there are none.
func (g *Grammar) compileWheres(wheres []query.Predicate) (string, error) {
	if len(wheres) == 0 {
		return "", nil
	}
	body, err := g.compilePredicates(wheres)
	if err != nil {
		return "", err
	}
	return "WHERE " + body, nil
}

// compilePredicates joins predicates with their connectors. The first
// predicate never carries one.
func (g *Grammar) compilePredicates(wheres []query.Predicate) (string, error) {
	parts := make([]string, 0, len(wheres))
	for i, p := range wheres {
		sql, err := g.compilePredicate(p)
		if err != nil {
			return "", err
		}
		if i > 0 {
			conn := p.Connector
			if conn == "" {
				conn = query.And
			}
			sql = string(conn) + " " + sql
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " "), nil
}

func (g *Grammar) compilePredicate(p query.Predicate) (string, error) {
	switch p.Kind {
	case query.PredicateSimple:
		if len(p.Values) != 1 {
			return "", &Error{Component: "where", Reason: "simple predicate needs one value"}
		}
		return g.Wrap(p.Column) + " " + p.Operator + " " + g.Parameter(p.Values[0]), nil

	case query.PredicateBetween, query.PredicateNotBetween:
		if len(p.Values) != 2 {
			return "", &Error{Component: "where", Reason: "between predicate needs two values"}
		}
		op := " BETWEEN "
		if p.Kind == query.PredicateNotBetween {
			op = " NOT BETWEEN "
		}
		return g.Wrap(p.Column) + op + g.Parameter(p.Values[0]) + " AND " + g.Parameter(p.Values[1]), nil

	case query.PredicateIn, query.PredicateNotIn:
		if len(p.Values) == 0 {
			return "", &Error{Component: "where", Reason: "in predicate needs at least one value"}
		}
		op := " IN ("
		if p.Kind == query.PredicateNotIn {
			op = " NOT IN ("
		}
		return g.Wrap(p.Column) + op + g.Parameterize(p.Values) + ")", nil

	case query.PredicateNull:
		return g.Wrap(p.Column) + " IS NULL", nil

	case query.PredicateNotNull:
		return g.Wrap(p.Column) + " IS NOT NULL", nil

	case query.PredicateRaw:
		return p.SQL, nil

	case query.PredicateNested:
		if p.Nested == nil {
			return "", &Error{Component: "where", Reason: "nested predicate has no query"}
		}
		body, err := g.compilePredicates(p.Nested.State().Wheres)
		if err != nil {
			return "", err
		}
		return "(" + body + ")", nil

	default:
		return "", &Error{Component: "where", Reason: fmt.Sprintf("unknown predicate kind %s", p.Kind)}
	}
}

func (g *Grammar) compileOrders(orderings []query.Ordering) (string, error) {
	if len(orderings) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(orderings))
	for _, o := range orderings {
		dir := strings.ToUpper(o.Direction)
		if dir != "ASC" && dir != "DESC" {
			return "", &Error{Component: "order", Reason: fmt.Sprintf("unsupported sort direction %q", o.Direction)}
		}
		parts = append(parts, g.Wrap(o.Column)+" "+dir)
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

// aggregateClause renders SELECT <hint><FN>(<cols>) AS "aggregate". DISTINCT
// moves inside the function unless every column is aggregated.
func (g *Grammar) aggregateClause(s *query.State, hint string) string {
	cols := g.Columnize(s.Aggregate.Columns)
	if s.Distinct && cols != "*" {
		cols = "DISTINCT " + cols
	}
	return "SELECT " + hint + s.Aggregate.Func.String() + "(" + cols + ") AS " + g.Wrap(query.Bind("aggregate"))
}

// selectList renders SELECT [DISTINCT ]<hint><cols>.
func (g *Grammar) selectList(s *query.State, hint string) string {
	sel := "SELECT "
	if s.Distinct {
		sel += "DISTINCT "
	}
	return sel + hint + g.Columnize(s.Selects)
}
