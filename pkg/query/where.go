package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Where adds an AND-connected predicate. A Raw column is inserted verbatim
// with value (a single value or a slice) as its bindings. A nil value with
// =, IS, !=, <>, IS NOT, LIKE or NOT LIKE becomes IS [NOT] NULL.
func (q *Query) Where(column any, operator string, value any) *Query {
	return q.where(And, column, operator, value)
}

// AndWhere is an alias of Where.
func (q *Query) AndWhere(column any, operator string, value any) *Query {
	return q.where(And, column, operator, value)
}

// OrWhere adds an OR-connected predicate.
func (q *Query) OrWhere(column any, operator string, value any) *Query {
	return q.where(Or, column, operator, value)
}

// WhereGroup adds a parenthesized group of predicates built by fn.
func (q *Query) WhereGroup(fn func(*Query)) *Query {
	return q.whereNested(And, fn)
}

// OrWhereGroup adds an OR-connected parenthesized group.
func (q *Query) OrWhereGroup(fn func(*Query)) *Query {
	return q.whereNested(Or, fn)
}

// WhereRaw adds a literal SQL predicate with its own bindings.
func (q *Query) WhereRaw(sql string, bindings ...any) *Query {
	return q.whereRaw(And, sql, bindings)
}

// OrWhereRaw adds an OR-connected literal SQL predicate.
func (q *Query) OrWhereRaw(sql string, bindings ...any) *Query {
	return q.whereRaw(Or, sql, bindings)
}

// WhereIn adds column IN (values...). values must be a non-empty slice.
func (q *Query) WhereIn(column any, values any) *Query {
	return q.where(And, column, "IN", values)
}

// WhereNotIn adds column NOT IN (values...).
func (q *Query) WhereNotIn(column any, values any) *Query {
	return q.where(And, column, "NOT IN", values)
}

// WhereBetween adds column BETWEEN low AND high.
func (q *Query) WhereBetween(column any, low, high any) *Query {
	return q.where(And, column, "BETWEEN", []any{low, high})
}

// WhereNotBetween adds column NOT BETWEEN low AND high.
func (q *Query) WhereNotBetween(column any, low, high any) *Query {
	return q.where(And, column, "NOT BETWEEN", []any{low, high})
}

// WhereNull adds column IS NULL.
func (q *Query) WhereNull(column any) *Query {
	return q.where(And, column, "=", nil)
}

// WhereNotNull adds column IS NOT NULL.
func (q *Query) WhereNotNull(column any) *Query {
	return q.where(And, column, "IS NOT", nil)
}

// ResetWhere drops all predicates and their bindings.
func (q *Query) ResetWhere() *Query {
	q.state.Wheres = nil
	q.state.Bindings = nil
	return q
}

var dynamicWhereSplit = regexp.MustCompile(`(?i)(_and_|_or_)`)

// DynamicWhere parses a finder name such as "where_email_and_status" into
// equality predicates, one per column segment, bound to params in order.
// Segments are joined by "_and_" or "_or_".
func (q *Query) DynamicWhere(method string, params ...any) *Query {
	lower := strings.ToLower(method)
	if !strings.HasPrefix(lower, "where_") {
		return q.fail("dynamicWhere", "method", "expected a where_ prefix in "+quoteArg(method))
	}
	finder := method[len("where_"):]

	var (
		columns    []string
		connectors []Connector
		start      int
	)
	for _, loc := range dynamicWhereSplit.FindAllStringIndex(finder, -1) {
		columns = append(columns, finder[start:loc[0]])
		if strings.EqualFold(finder[loc[0]:loc[1]], "_or_") {
			connectors = append(connectors, Or)
		} else {
			connectors = append(connectors, And)
		}
		start = loc[1]
	}
	columns = append(columns, finder[start:])

	for _, c := range columns {
		if c == "" {
			return q.fail("dynamicWhere", "method", "empty column segment in "+quoteArg(method))
		}
	}
	if len(columns) != len(params) {
		return q.fail("dynamicWhere", "params",
			fmt.Sprintf("%d columns but %d parameters", len(columns), len(params)))
	}

	for i, c := range columns {
		conn := And
		if i > 0 {
			conn = connectors[i-1]
		}
		q.where(conn, c, "=", params[i])
	}
	return q
}

func (q *Query) where(conn Connector, column any, operator string, value any) *Query {
	if v, ok := column.(Value); ok && v.IsLiteral() {
		var bindings []any
		if value != nil {
			if vals, ok := AsSlice(value); ok {
				bindings = vals
			} else {
				bindings = []any{value}
			}
		}
		return q.whereRaw(conn, v.Text(), bindings)
	}

	col, ok := columnValue(column)
	if !ok {
		return q.fail("where", "column", "expected a column name or Raw expression")
	}
	op := normalizeOperator(operator)
	if !operators[op] {
		return q.fail("where", "operator", "unsupported operator "+quoteArg(operator))
	}

	if value == nil {
		if kind, ok := nullOperators[op]; ok {
			q.state.Wheres = append(q.state.Wheres, Predicate{Kind: kind, Connector: conn, Column: col})
			return q
		}
	}

	switch op {
	case "BETWEEN", "NOT BETWEEN":
		vals, ok := AsSlice(value)
		if !ok || len(vals) != 2 {
			return q.fail("where", "value", op+" requires exactly two values")
		}
		kind := PredicateBetween
		if op == "NOT BETWEEN" {
			kind = PredicateNotBetween
		}
		return q.addPredicate(Predicate{Kind: kind, Connector: conn, Column: col, Operator: op, Values: bindAll(vals)})

	case "IN", "NOT IN":
		vals, ok := AsSlice(value)
		if !ok {
			return q.fail("where", "value", op+" requires a slice of values")
		}
		if len(vals) == 0 {
			return q.fail("where", "value", op+" requires at least one value")
		}
		kind := PredicateIn
		if op == "NOT IN" {
			kind = PredicateNotIn
		}
		return q.addPredicate(Predicate{Kind: kind, Connector: conn, Column: col, Operator: op, Values: bindAll(vals)})
	}

	return q.addPredicate(Predicate{Kind: PredicateSimple, Connector: conn, Column: col, Operator: op, Values: []Value{Bind(value)}})
}

func (q *Query) whereRaw(conn Connector, sql string, bindings []any) *Query {
	if strings.TrimSpace(sql) == "" {
		return q.fail("whereRaw", "sql", "must not be empty")
	}
	return q.addPredicate(Predicate{Kind: PredicateRaw, Connector: conn, SQL: sql, Values: bindAll(bindings)})
}

func (q *Query) whereNested(conn Connector, fn func(*Query)) *Query {
	sub := q.newNested()
	fn(sub)
	if sub.err != nil {
		return q.failWith(sub.err)
	}
	if len(sub.state.Wheres) == 0 {
		return q
	}
	q.state.Wheres = append(q.state.Wheres, Predicate{Kind: PredicateNested, Connector: conn, Nested: sub})
	q.state.Bindings = append(q.state.Bindings, sub.state.Bindings...)
	return q
}

func (q *Query) addPredicate(p Predicate) *Query {
	q.state.Wheres = append(q.state.Wheres, p)
	q.state.Bindings = append(q.state.Bindings, p.Values...)
	return q
}
