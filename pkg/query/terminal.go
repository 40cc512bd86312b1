package query

import (
	"context"
	"maps"
	"slices"
	"strconv"

	"github.com/leapstack-labs/leapdb/pkg/result"
)

// projection converts select arguments, defaulting to "*".
func projection(op string, columns []any) ([]Value, error) {
	if len(columns) == 0 {
		return []Value{Bind("*")}, nil
	}
	cols, ok := columnValues(columns)
	if !ok {
		return nil, &BuilderInputError{Op: op, Argument: "column", Reason: "expected column names or Raw expressions"}
	}
	return cols, nil
}

// Select compiles and runs the query with the given projection ("*" when
// none). The projection is reset afterwards so the Query can be reused.
func (q *Query) Select(ctx context.Context, columns ...any) (*result.Result, error) {
	stmt, err := q.ToSQL(columns...)
	if err != nil {
		return nil, err
	}
	return q.exec.Select(ctx, stmt, FetchOptions{FetchType: q.fetch})
}

// ToSQL compiles the select statement without running it.
func (q *Query) ToSQL(columns ...any) (Statement, error) {
	if q.err != nil {
		return Statement{}, q.err
	}
	cols, err := projection("select", columns)
	if err != nil {
		return Statement{}, err
	}
	q.state.Selects = cols
	defer func() { q.state.Selects = nil }()
	return q.grammar.CompileSelect(q)
}

// Insert inserts one or more rows and returns the affected row count. The
// column list is the sorted key set of the first row; every row must carry
// the same keys.
func (q *Query) Insert(ctx context.Context, rows ...map[string]any) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if err := checkRows(rows); err != nil {
		return 0, err
	}
	stmt, err := q.grammar.CompileInsert(q, rows)
	if err != nil {
		return 0, err
	}
	return q.exec.Affect(ctx, stmt)
}

// InsertGetID inserts row and returns the generated identity of column
// ("id" when empty).
func (q *Query) InsertGetID(ctx context.Context, row map[string]any, column string) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if err := checkRows([]map[string]any{row}); err != nil {
		return 0, err
	}
	if column == "" {
		column = "id"
	}
	stmt, err := q.grammar.CompileInsertGetID(q, row, column)
	if err != nil {
		return 0, err
	}
	return q.exec.InsertGetID(ctx, stmt)
}

// Update sets values on every row matching the predicates. The statement
// binds the SET values first, then the where bindings.
func (q *Query) Update(ctx context.Context, values map[string]any) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if len(values) == 0 {
		return 0, &BuilderInputError{Op: "update", Argument: "values", Reason: "must not be empty"}
	}
	stmt, err := q.grammar.CompileUpdate(q, values)
	if err != nil {
		return 0, err
	}
	return q.exec.Affect(ctx, stmt)
}

// Delete removes every row matching the predicates.
func (q *Query) Delete(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	stmt, err := q.grammar.CompileDelete(q)
	if err != nil {
		return 0, err
	}
	return q.exec.Affect(ctx, stmt)
}

// Increment adds amount to column in place.
func (q *Query) Increment(ctx context.Context, column string, amount float64) (int64, error) {
	return q.adjust(ctx, column, amount, "+")
}

// Decrement subtracts amount from column in place.
func (q *Query) Decrement(ctx context.Context, column string, amount float64) (int64, error) {
	return q.adjust(ctx, column, amount, "-")
}

func (q *Query) adjust(ctx context.Context, column string, amount float64, op string) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if column == "" {
		return 0, &BuilderInputError{Op: "increment", Argument: "column", Reason: "must not be empty"}
	}
	expr := q.grammar.Wrap(Bind(column)) + " " + op + " " + strconv.FormatFloat(amount, 'f', -1, 64)
	return q.Update(ctx, map[string]any{column: Raw(expr)})
}

// SortedColumns returns the keys of row in ascending order.
func SortedColumns(row map[string]any) []string {
	return slices.Sorted(maps.Keys(row))
}

func checkRows(rows []map[string]any) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return &BuilderInputError{Op: "insert", Argument: "values", Reason: "must not be empty"}
	}
	want := SortedColumns(rows[0])
	for i, row := range rows[1:] {
		if !slices.Equal(want, SortedColumns(row)) {
			return &BuilderInputError{
				Op:       "insert",
				Argument: "values",
				Reason:   "row " + strconv.Itoa(i+1) + " has a different column set than row 0",
			}
		}
	}
	return nil
}
