package query_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdb/pkg/grammar"
	"github.com/leapstack-labs/leapdb/pkg/query"
	"github.com/leapstack-labs/leapdb/pkg/result"
)

// fakeExec records statements and serves canned rows.
type fakeExec struct {
	stmts []query.Statement
	count int64
	rows  []result.Row
	err   error
}

func (f *fakeExec) Select(_ context.Context, stmt query.Statement, _ query.FetchOptions) (*result.Result, error) {
	f.stmts = append(f.stmts, stmt)
	if f.err != nil {
		return nil, f.err
	}
	if strings.Contains(stmt.SQL, `"aggregate"`) {
		return result.FromSlice([]string{"aggregate"}, []result.Row{{"aggregate": f.count}}), nil
	}
	return result.FromSlice([]string{"id"}, f.rows), nil
}

func (f *fakeExec) Affect(_ context.Context, stmt query.Statement) (int64, error) {
	f.stmts = append(f.stmts, stmt)
	return 1, f.err
}

func (f *fakeExec) InsertGetID(_ context.Context, stmt query.Statement) (int64, error) {
	f.stmts = append(f.stmts, stmt)
	return 7, f.err
}

func newQuery(t *testing.T, exec query.Executor) *query.Query {
	t.Helper()
	g, err := grammar.New("ansi", grammar.Options{})
	require.NoError(t, err)
	return query.New(g, exec, "users")
}

func TestWhere_InvalidArgumentsLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name     string
		operator string
		value    any
	}{
		{"between with one value", "between", []int{1}},
		{"between with scalar", "BETWEEN", 5},
		{"not between with three values", "not between", []int{1, 2, 3}},
		{"in with scalar", "in", 5},
		{"not in with string", "not in", "abc"},
		{"in with empty slice", "IN", []int{}},
		{"unknown operator", "=~", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newQuery(t, nil).Where("id", "=", 1)
			before := q.State()

			q.Where("age", tt.operator, tt.value)

			var inputErr *query.BuilderInputError
			require.ErrorAs(t, q.Err(), &inputErr)
			assert.Equal(t, "where", inputErr.Op)
			after := q.State()
			assert.Len(t, after.Bindings, len(before.Bindings))
			assert.Len(t, after.Wheres, len(before.Wheres))
		})
	}
}

func TestWhere_ErrorSurfacesFromTerminals(t *testing.T) {
	exec := &fakeExec{}
	q := newQuery(t, exec).WhereIn("id", 5).Where("name", "=", "ann")

	_, err := q.Select(context.Background())
	var inputErr *query.BuilderInputError
	require.ErrorAs(t, err, &inputErr)

	_, err = q.Count(context.Background())
	assert.ErrorAs(t, err, &inputErr)
	_, err = q.Delete(context.Background())
	assert.ErrorAs(t, err, &inputErr)
	assert.Empty(t, exec.stmts, "nothing may reach the executor")
}

func TestWhere_Predicates(t *testing.T) {
	q := newQuery(t, nil).
		Where("a", "=", 1).
		OrWhere("b", "between", []any{2, 3}).
		AndWhere("c", "in", []string{"x", "y"}).
		Where("d", "!=", nil).
		Where(query.Raw("e > ? AND f < ?"), "", []int{4, 5}).
		WhereRaw("g IN (...)", []int{6, 7})

	s := q.State()
	require.NoError(t, q.Err())
	kinds := make([]query.PredicateKind, len(s.Wheres))
	for i, w := range s.Wheres {
		kinds[i] = w.Kind
	}
	assert.Equal(t, []query.PredicateKind{
		query.PredicateSimple,
		query.PredicateBetween,
		query.PredicateIn,
		query.PredicateNotNull,
		query.PredicateRaw,
		query.PredicateRaw,
	}, kinds)
	assert.Equal(t, query.Or, s.Wheres[1].Connector)

	got := make([]any, len(s.Bindings))
	for i, b := range s.Bindings {
		got[i] = b.Interface()
	}
	assert.Equal(t, []any{1, 2, 3, "x", "y", 4, 5, []int{6, 7}}, got)
}

func TestDynamicWhere(t *testing.T) {
	q := newQuery(t, nil).DynamicWhere("where_email_and_status_or_role", "a@b.c", "active", "admin")
	require.NoError(t, q.Err())

	stmt, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "email" = ? AND "status" = ? OR "role" = ?`, stmt.SQL)

	bad := newQuery(t, nil).DynamicWhere("where_email_and_status", "only-one")
	assert.Error(t, bad.Err())
	assert.Empty(t, bad.State().Wheres)

	assert.Error(t, newQuery(t, nil).DynamicWhere("find_email", "x").Err())
}

func TestResetWhere(t *testing.T) {
	q := newQuery(t, nil).Where("a", "=", 1).ResetWhere()
	assert.Empty(t, q.State().Wheres)
	assert.Empty(t, q.State().Bindings)
}

func TestForPage(t *testing.T) {
	tests := []struct {
		page, perPage int
		offset, limit int
	}{
		{1, 20, 0, 20},
		{3, 20, 40, 20},
		{2, 15, 15, 15},
	}
	for _, tt := range tests {
		s := newQuery(t, nil).ForPage(tt.page, tt.perPage).State()
		assert.Equal(t, tt.offset, s.Offset)
		assert.Equal(t, tt.limit, s.Limit)
	}
}

func TestOrderBy_Direction(t *testing.T) {
	q := newQuery(t, nil).OrderBy("a", "").OrderBy("b", "Desc")
	require.NoError(t, q.Err())
	s := q.State()
	assert.Equal(t, "ASC", s.Orderings[0].Direction)
	assert.Equal(t, "DESC", s.Orderings[1].Direction)

	bad := newQuery(t, nil).OrderBy("a", "sideways")
	var inputErr *query.BuilderInputError
	require.ErrorAs(t, bad.Err(), &inputErr)
	assert.Equal(t, "direction", inputErr.Argument)
	assert.Empty(t, bad.State().Orderings)
}

func TestSelect_ResetsProjection(t *testing.T) {
	exec := &fakeExec{rows: []result.Row{{"id": 1}}}
	q := newQuery(t, exec)

	_, err := q.Select(context.Background(), "id")
	require.NoError(t, err)
	assert.Nil(t, q.State().Selects)

	_, err = q.Select(context.Background())
	require.NoError(t, err)
	require.Len(t, exec.stmts, 2)
	assert.Equal(t, `SELECT "id" FROM "users"`, exec.stmts[0].SQL)
	assert.Equal(t, `SELECT * FROM "users"`, exec.stmts[1].SQL)
}

func TestAggregates(t *testing.T) {
	exec := &fakeExec{count: 12}
	q := newQuery(t, exec)
	ctx := context.Background()

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.Nil(t, q.State().Aggregate)

	_, err = q.Max(ctx, "age")
	require.NoError(t, err)
	_, err = q.Call(ctx, "sum", "age")
	require.NoError(t, err)

	assert.Equal(t, `SELECT COUNT(*) AS "aggregate" FROM "users"`, exec.stmts[0].SQL)
	assert.Equal(t, `SELECT MAX("age") AS "aggregate" FROM "users"`, exec.stmts[1].SQL)
	assert.Equal(t, `SELECT SUM("age") AS "aggregate" FROM "users"`, exec.stmts[2].SQL)

	_, err = q.Call(ctx, "median", "age")
	var inputErr *query.BuilderInputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, err.Error(), "is not defined")
	assert.Len(t, exec.stmts, 3)
}

func TestParseAggregate(t *testing.T) {
	for name, want := range map[string]query.AggregateFunc{
		"count": query.FuncCount, "MIN": query.FuncMin, "Max": query.FuncMax,
		"avg": query.FuncAvg, "sum": query.FuncSum,
	} {
		got, err := query.ParseAggregate(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPaginate(t *testing.T) {
	exec := &fakeExec{count: 45, rows: []result.Row{{"id": 41}}}
	q := newQuery(t, exec).OrderBy("id", "desc")

	page, err := q.Paginate(context.Background(), 9, 20, "id")
	require.NoError(t, err)

	assert.Equal(t, int64(45), page.Total)
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, 3, page.CurrentPage, "requested page is clamped")
	assert.Equal(t, 20, page.PerPage)

	require.Len(t, exec.stmts, 2)
	assert.Equal(t, `SELECT COUNT("id") AS "aggregate" FROM "users"`, exec.stmts[0].SQL)
	assert.Equal(t, `SELECT "id" FROM "users" ORDER BY "id" DESC LIMIT 20 OFFSET 40`, exec.stmts[1].SQL)
	assert.Len(t, q.State().Orderings, 1, "orderings restored after counting")
}

func TestPageNumber(t *testing.T) {
	assert.Equal(t, 1, query.PageNumber(0, 20, 5))
	assert.Equal(t, 1, query.PageNumber(100, 20, 0))
	assert.Equal(t, 5, query.PageNumber(100, 20, 5))
	assert.Equal(t, 5, query.PageNumber(100, 20, 6))
	assert.Equal(t, 6, query.LastPage(101, 20))
}

func TestMutations(t *testing.T) {
	exec := &fakeExec{}
	ctx := context.Background()

	_, err := newQuery(t, exec).Where("id", "=", 3).Increment(ctx, "visits", 2)
	require.NoError(t, err)
	_, err = newQuery(t, exec).Where("id", "=", 3).Decrement(ctx, "balance", 1.5)
	require.NoError(t, err)
	id, err := newQuery(t, exec).InsertGetID(ctx, map[string]any{"name": "ann"}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	require.Len(t, exec.stmts, 3)
	assert.Equal(t, `UPDATE "users" SET "visits" = "visits" + 2 WHERE "id" = ?`, exec.stmts[0].SQL)
	assert.Equal(t, `UPDATE "users" SET "balance" = "balance" - 1.5 WHERE "id" = ?`, exec.stmts[1].SQL)
	assert.Len(t, exec.stmts[0].Bindings, 2, "literal set value plus where binding")
	assert.True(t, exec.stmts[0].Bindings[0].IsLiteral())
}

func TestInsert_Validation(t *testing.T) {
	exec := &fakeExec{}
	ctx := context.Background()

	_, err := newQuery(t, exec).Insert(ctx)
	assert.Error(t, err)

	_, err = newQuery(t, exec).Insert(ctx,
		map[string]any{"a": 1, "b": 2},
		map[string]any{"a": 1, "c": 2},
	)
	var inputErr *query.BuilderInputError
	require.ErrorAs(t, err, &inputErr)

	_, err = newQuery(t, exec).Update(ctx, nil)
	assert.Error(t, err)
	assert.Empty(t, exec.stmts)
}

func TestExecutorErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	exec := &fakeExec{err: boom}
	_, err := newQuery(t, exec).Select(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestJoin_AliasedColumns(t *testing.T) {
	q := newQuery(t, nil).Join("posts p", "users u.id", "=", "p.user_id")
	require.NoError(t, q.Err())
	j := q.State().Joins[0]
	assert.Equal(t, query.JoinInner, j.Kind)
	assert.Equal(t, "u.id", j.Clauses[0].First.Text())
	assert.Equal(t, "p.user_id", j.Clauses[0].Second.Text())

	bad := newQuery(t, nil).Join("posts", "a", "~~", "b")
	assert.Error(t, bad.Err())
	assert.Empty(t, bad.State().Joins)
}

func TestJoinUsing(t *testing.T) {
	stmt, err := newQuery(t, nil).JoinUsing("profiles", "user_id", query.JoinLeft).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" LEFT JOIN "profiles" ON "users"."user_id" = "profiles"."user_id"`, stmt.SQL)
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantErr string
	}{
		{name: "int64", in: int64(42), want: 42},
		{name: "int", in: 7, want: 7},
		{name: "uint32", in: uint32(9), want: 9},
		{name: "float", in: float64(3), want: 3},
		{name: "decimal text", in: []byte(" 12 "), want: 12},
		{name: "string", in: "-5", want: -5},
		{name: "not a number", in: "abc", wantErr: `value "abc" is not an integer`},
		{name: "unsupported type", in: true, wantErr: "unexpected integer value of type bool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := query.ToInt64(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := query.ToInt64(nil)
	assert.ErrorIs(t, err, query.ErrNullInteger)
}
