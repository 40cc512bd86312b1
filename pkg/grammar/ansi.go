package grammar

import (
	"strconv"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/query"
)

// ANSI is the standard dialect: double-quoted identifiers, LIMIT/OFFSET.
var ANSI = &core.DialectConfig{
	Name: "ansi",
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
	Placeholder: core.PlaceholderQuestion,
}

// ansiDialect implements the standard behavior. Other dialects embed it
// and override what differs.
type ansiDialect struct {
	config *core.DialectConfig
}

func newANSI() Dialect {
	return ansiDialect{config: ANSI}
}

func init() {
	Register("ansi", newANSI)
}

func (d ansiDialect) Config() *core.DialectConfig {
	return d.config
}

func (d ansiDialect) SelectClause(g *Grammar, s *query.State) string {
	if s.Aggregate != nil {
		return g.aggregateClause(s, "")
	}
	return g.selectList(s, "")
}

func (d ansiDialect) LimitClause(s *query.State) string {
	if s.Limit > 0 {
		return "LIMIT " + strconv.Itoa(s.Limit)
	}
	return ""
}

func (d ansiDialect) OffsetClause(s *query.State) string {
	if s.Offset > 0 {
		return "OFFSET " + strconv.Itoa(s.Offset)
	}
	return ""
}

func (d ansiDialect) Assemble(_ *Grammar, _ *query.State, c Components) string {
	return c.String()
}

func (d ansiDialect) ReturningID(_ *Grammar, p InsertParts, _ string) (string, bool) {
	return "INSERT INTO " + p.Table + " (" + p.Columns + ") VALUES " + p.Values, false
}
