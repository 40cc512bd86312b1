package query

import "strings"

// Connector joins a predicate or ON-clause to the one before it.
type Connector string

const (
	And Connector = "AND"
	Or  Connector = "OR"
)

// PredicateKind tags the shape of a where node.
type PredicateKind int

const (
	PredicateSimple PredicateKind = iota
	PredicateBetween
	PredicateNotBetween
	PredicateIn
	PredicateNotIn
	PredicateNull
	PredicateNotNull
	PredicateRaw
	PredicateNested
)

var predicateKindNames = map[PredicateKind]string{
	PredicateSimple:     "simple",
	PredicateBetween:    "between",
	PredicateNotBetween: "not_between",
	PredicateIn:         "in",
	PredicateNotIn:      "not_in",
	PredicateNull:       "null",
	PredicateNotNull:    "not_null",
	PredicateRaw:        "raw",
	PredicateNested:     "nested",
}

func (k PredicateKind) String() string {
	if name, ok := predicateKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Predicate is one where node. Which fields are meaningful depends on Kind:
//   - Simple: Column, Operator, Values[0]
//   - Between/NotBetween: Column, Values[0..1]
//   - In/NotIn: Column, Values
//   - Null/NotNull: Column
//   - Raw: SQL, Values (caller supplied bindings)
//   - Nested: Nested
type Predicate struct {
	Kind      PredicateKind
	Connector Connector
	Column    Value
	Operator  string
	Values    []Value
	SQL       string
	Nested    *Query
}

// operators lists every comparison operator a simple predicate accepts.
var operators = map[string]bool{
	"=": true, "<": true, ">": true, "<=": true, ">=": true,
	"<>": true, "!=": true, "<=>": true,
	"LIKE": true, "NOT LIKE": true, "ILIKE": true, "NOT ILIKE": true,
	"BETWEEN": true, "NOT BETWEEN": true,
	"IN": true, "NOT IN": true,
	"IS": true, "IS NOT": true,
	"REGEXP": true, "NOT REGEXP": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true,
}

// nullOperators decides what a nil value means for an operator. Comparing
// against NULL with = or IS searches for NULL; the negated and pattern
// operators search for NOT NULL. Operators not listed bind SQL NULL.
var nullOperators = map[string]PredicateKind{
	"=":        PredicateNull,
	"IS":       PredicateNull,
	"!=":       PredicateNotNull,
	"<>":       PredicateNotNull,
	"IS NOT":   PredicateNotNull,
	"LIKE":     PredicateNotNull,
	"NOT LIKE": PredicateNotNull,
}

// normalizeOperator uppercases op and collapses inner whitespace.
func normalizeOperator(op string) string {
	return strings.Join(strings.Fields(strings.ToUpper(op)), " ")
}
