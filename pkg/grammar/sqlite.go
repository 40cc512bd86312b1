package grammar

import (
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/query"
)

// SQLite is ANSI quoting with SQLite's "LIMIT -1" for offset-only queries.
var SQLite = &core.DialectConfig{
	Name: "sqlite",
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
	Placeholder: core.PlaceholderQuestion,
}

type sqliteDialect struct {
	ansiDialect
}

func newSQLite() Dialect {
	return sqliteDialect{ansiDialect{config: SQLite}}
}

func init() {
	Register("sqlite", newSQLite)
}

func (d sqliteDialect) LimitClause(s *query.State) string {
	if s.Limit <= 0 && s.Offset > 0 {
		return "LIMIT -1"
	}
	return d.ansiDialect.LimitClause(s)
}
