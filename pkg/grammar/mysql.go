package grammar

import (
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/query"
)

// MySQL quotes with backticks and supports the SQL_CACHE hint.
var MySQL = &core.DialectConfig{
	Name: "mysql",
	Identifiers: core.IdentifierConfig{
		Quote:    "`",
		QuoteEnd: "`",
		Escape:   "``",
	},
	Placeholder: core.PlaceholderQuestion,
}

// mysqlMaxRows is the documented way to express "no limit" when only an
// offset is wanted.
const mysqlMaxRows = "18446744073709551615"

type mysqlDialect struct {
	ansiDialect
}

func newMySQL() Dialect {
	return mysqlDialect{ansiDialect{config: MySQL}}
}

func init() {
	Register("mysql", newMySQL)
}

func (d mysqlDialect) SelectClause(g *Grammar, s *query.State) string {
	hint := ""
	if s.Cache {
		hint = "SQL_CACHE "
	}
	if s.Aggregate != nil {
		return g.aggregateClause(s, hint)
	}
	return g.selectList(s, hint)
}

func (d mysqlDialect) LimitClause(s *query.State) string {
	if s.Limit <= 0 && s.Offset > 0 {
		return "LIMIT " + mysqlMaxRows
	}
	return d.ansiDialect.LimitClause(s)
}
