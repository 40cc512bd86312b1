package grammar

import (
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Postgres binds with $n placeholders and reports identities with
// RETURNING.
var Postgres = &core.DialectConfig{
	Name: "postgres",
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
	Placeholder: core.PlaceholderDollar,
}

type postgresDialect struct {
	ansiDialect
}

func newPostgres() Dialect {
	return postgresDialect{ansiDialect{config: Postgres}}
}

func init() {
	Register("postgres", newPostgres)
}

func (d postgresDialect) ReturningID(g *Grammar, p InsertParts, column string) (string, bool) {
	sql, _ := d.ansiDialect.ReturningID(g, p, column)
	return sql + " RETURNING " + g.wrapSegment(column), true
}
