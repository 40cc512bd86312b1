package db

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode"

	"github.com/leapstack-labs/leapdb/pkg/profiler"
	"github.com/leapstack-labs/leapdb/pkg/query"
	"github.com/leapstack-labs/leapdb/pkg/result"
)

// StatementKind classifies SQL by its leading keyword.
type StatementKind int

const (
	// KindOther statements report success only.
	KindOther StatementKind = iota
	// KindSelect statements return rows.
	KindSelect
	// KindAffect statements report the number of affected rows.
	KindAffect
)

// String returns the kind name.
func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindAffect:
		return "affect"
	default:
		return "other"
	}
}

var statementKinds = map[string]StatementKind{
	"select":   KindSelect,
	"with":     KindSelect,
	"show":     KindSelect,
	"pragma":   KindSelect,
	"explain":  KindSelect,
	"describe": KindSelect,
	"values":   KindSelect,
	"insert":   KindAffect,
	"update":   KindAffect,
	"delete":   KindAffect,
	"replace":  KindAffect,
}

// Classify returns the kind of sqlText from its first keyword, ignoring
// case, leading whitespace and opening parentheses.
func Classify(sqlText string) StatementKind {
	s := strings.TrimLeftFunc(sqlText, func(r rune) bool {
		return unicode.IsSpace(r) || r == '('
	})
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end >= 0 {
		s = s[:end]
	}
	return statementKinds[strings.ToLower(s)]
}

// Outcome is what Execute returns for each statement kind: a Result for
// selects, an affected row count for mutations, success for the rest.
type Outcome struct {
	Kind         StatementKind
	Result       *result.Result
	RowsAffected int64
	OK           bool
}

// Execute runs sqlText with bindings and shapes the return by statement
// kind. Slice bindings are expanded into MultiValueMarker placeholders.
func (c *Connection) Execute(ctx context.Context, sqlText string, bindings []query.Value, opts query.FetchOptions) (Outcome, error) {
	kind := Classify(sqlText)
	switch kind {
	case KindSelect:
		res, err := c.query(ctx, sqlText, bindings, opts)
		if err != nil {
			return Outcome{Kind: kind}, err
		}
		return Outcome{Kind: kind, Result: res, OK: true}, nil
	case KindAffect:
		res, sqlText, args, err := c.exec(ctx, sqlText, bindings)
		if err != nil {
			return Outcome{Kind: kind}, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Outcome{Kind: kind}, &DatabaseError{SQL: sqlText, Bindings: args, Err: err}
		}
		return Outcome{Kind: kind, RowsAffected: n, OK: true}, nil
	default:
		if _, _, _, err := c.exec(ctx, sqlText, bindings); err != nil {
			return Outcome{Kind: kind}, err
		}
		return Outcome{Kind: kind, OK: true}, nil
	}
}

// Bound returns the SQL text and arguments stmt is sent to the driver
// with: literals dropped, multi-value markers expanded and placeholders
// rebound to the grammar's style.
func (c *Connection) Bound(stmt query.Statement) (string, []any, error) {
	return c.prepare(stmt.SQL, stmt.Bindings)
}

func (c *Connection) prepare(sqlText string, bindings []query.Value) (string, []any, error) {
	g, err := c.Grammar()
	if err != nil {
		return "", nil, err
	}
	sqlText, args := reconcile(c.cfg.Driver, g.Placeholder(), sqlText, bindings)
	return sqlText, args, nil
}

func (c *Connection) query(ctx context.Context, sqlText string, bindings []query.Value, opts query.FetchOptions) (*result.Result, error) {
	sqlText, args, err := c.prepare(sqlText, bindings)
	if err != nil {
		return nil, err
	}
	fetch := opts.FetchType
	if fetch == "" {
		fetch = c.cfg.FetchType
	}

	start := time.Now()
	rows, err := c.conn.QueryContext(ctx, sqlText, args...)
	c.observe(ctx, sqlText, args, time.Since(start), err)
	if err != nil {
		return nil, &DatabaseError{SQL: sqlText, Bindings: args, Err: err}
	}
	res, err := result.FromRows(rows, fetch)
	if err != nil {
		return nil, &DatabaseError{SQL: sqlText, Bindings: args, Err: err}
	}
	return res, nil
}

func (c *Connection) exec(ctx context.Context, sqlText string, bindings []query.Value) (sql.Result, string, []any, error) {
	sqlText, args, err := c.prepare(sqlText, bindings)
	if err != nil {
		return nil, sqlText, nil, err
	}

	start := time.Now()
	res, err := c.conn.ExecContext(ctx, sqlText, args...)
	c.observe(ctx, sqlText, args, time.Since(start), err)
	if err != nil {
		return nil, sqlText, args, &DatabaseError{SQL: sqlText, Bindings: args, Err: err}
	}
	return res, sqlText, args, nil
}

func (c *Connection) observe(ctx context.Context, sqlText string, args []any, elapsed time.Duration, err error) {
	c.logger.DebugContext(ctx, "executing statement",
		"sql", sqlText,
		"bindings", len(args),
		"elapsed", elapsed)
	if c.cfg.Profile && c.profiler != nil {
		c.profiler.Record(ctx, profiler.NewEntry(c.name, c.cfg.Database, sqlText, args, elapsed, err))
	}
}
