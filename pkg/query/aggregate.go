package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// AggregateFunc is one of the supported aggregate functions.
type AggregateFunc int

const (
	FuncCount AggregateFunc = iota + 1
	FuncMin
	FuncMax
	FuncAvg
	FuncSum
)

var aggregateNames = map[AggregateFunc]string{
	FuncCount: "COUNT",
	FuncMin:   "MIN",
	FuncMax:   "MAX",
	FuncAvg:   "AVG",
	FuncSum:   "SUM",
}

// String returns the SQL function name.
func (f AggregateFunc) String() string {
	if name, ok := aggregateNames[f]; ok {
		return name
	}
	return fmt.Sprintf("AggregateFunc(%d)", int(f))
}

// ParseAggregate maps a function name (case-insensitive) to an AggregateFunc.
func ParseAggregate(name string) (AggregateFunc, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for f, n := range aggregateNames {
		if n == upper {
			return f, nil
		}
	}
	return 0, &BuilderInputError{Op: name, Argument: "method", Reason: "method " + quoteArg(name) + " is not defined"}
}

// Aggregate is the aggregate descriptor compiled in place of the select list.
type Aggregate struct {
	Func    AggregateFunc
	Columns []Value
}

// Aggregate runs fn over columns ("*" when none) and returns the scalar.
func (q *Query) Aggregate(ctx context.Context, fn AggregateFunc, columns ...any) (any, error) {
	if q.err != nil {
		return nil, q.err
	}
	if _, ok := aggregateNames[fn]; !ok {
		return nil, &BuilderInputError{Op: "aggregate", Argument: "function", Reason: fn.String() + " is not supported"}
	}
	cols, err := projection("aggregate", columns)
	if err != nil {
		return nil, err
	}

	q.state.Aggregate = &Aggregate{Func: fn, Columns: cols}
	defer func() { q.state.Aggregate = nil }()

	stmt, err := q.grammar.CompileSelect(q)
	if err != nil {
		return nil, err
	}
	res, err := q.exec.Select(ctx, stmt, FetchOptions{FetchType: q.fetch})
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return res.GetSingle()
}

// Count returns COUNT over columns ("*" when none).
func (q *Query) Count(ctx context.Context, columns ...any) (int64, error) {
	v, err := q.Aggregate(ctx, FuncCount, columns...)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	return ToInt64(v)
}

// Min returns MIN(column).
func (q *Query) Min(ctx context.Context, column any) (any, error) {
	return q.Aggregate(ctx, FuncMin, column)
}

// Max returns MAX(column).
func (q *Query) Max(ctx context.Context, column any) (any, error) {
	return q.Aggregate(ctx, FuncMax, column)
}

// Avg returns AVG(column).
func (q *Query) Avg(ctx context.Context, column any) (any, error) {
	return q.Aggregate(ctx, FuncAvg, column)
}

// Sum returns SUM(column).
func (q *Query) Sum(ctx context.Context, column any) (any, error) {
	return q.Aggregate(ctx, FuncSum, column)
}

// Call dispatches an aggregate by name ("count", "min", "max", "avg",
// "sum"). Unknown names fail with a *BuilderInputError.
func (q *Query) Call(ctx context.Context, name string, columns ...any) (any, error) {
	fn, err := ParseAggregate(name)
	if err != nil {
		return nil, err
	}
	return q.Aggregate(ctx, fn, columns...)
}

// ToInt64 converts an integer column value to int64. Drivers hand back
// native integers, floats, or decimal text depending on the engine.
func ToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return ToInt64(string(n))
	case string:
		out, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer", n)
		}
		return out, nil
	case nil:
		return 0, ErrNullInteger
	default:
		return 0, fmt.Errorf("unexpected integer value of type %T", v)
	}
}
