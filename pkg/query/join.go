package query

import "strings"

// JoinKind is the join type keyword.
type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinRight JoinKind = "RIGHT"
	JoinFull  JoinKind = "FULL OUTER"
)

// JoinClause is one ON condition: column, operator, column, connector.
type JoinClause struct {
	First     Value
	Operator  string
	Second    Value
	Connector Connector
}

// Join describes one join: kind, target table and its ON clauses.
// Build it through Query.JoinOn and the On/AndOn/OrOn methods.
type Join struct {
	Kind    JoinKind
	Table   Value
	Clauses []JoinClause
	err     error
}

// On adds an AND-connected ON clause.
func (j *Join) On(first, operator, second any) *Join {
	return j.on(And, first, operator, second)
}

// AndOn is an alias of On.
func (j *Join) AndOn(first, operator, second any) *Join {
	return j.on(And, first, operator, second)
}

// OrOn adds an OR-connected ON clause.
func (j *Join) OrOn(first, operator, second any) *Join {
	return j.on(Or, first, operator, second)
}

func (j *Join) on(conn Connector, first, operator, second any) *Join {
	if j.err != nil {
		return j
	}
	left, ok := joinColumn(first)
	if !ok {
		j.err = &BuilderInputError{Op: "join", Argument: "column", Reason: "expected a column name or Raw expression"}
		return j
	}
	right, ok := joinColumn(second)
	if !ok {
		j.err = &BuilderInputError{Op: "join", Argument: "column", Reason: "expected a column name or Raw expression"}
		return j
	}
	op, _ := operator.(string)
	op = normalizeOperator(op)
	if !operators[op] {
		j.err = &BuilderInputError{Op: "join", Argument: "operator", Reason: "unsupported operator " + quoteArg(op)}
		return j
	}
	j.Clauses = append(j.Clauses, JoinClause{First: left, Operator: op, Second: right, Connector: conn})
	return j
}

// joinColumn keeps the last whitespace separated token of a column name, so
// "users u.id" refers to u.id.
func joinColumn(c any) (Value, bool) {
	switch v := c.(type) {
	case Value:
		return v, true
	case string:
		fields := strings.Fields(v)
		if len(fields) == 0 {
			return Value{}, false
		}
		return Bind(fields[len(fields)-1]), true
	default:
		return Value{}, false
	}
}

func quoteArg(s string) string {
	return "\"" + s + "\""
}
