package grammar

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/query"
)

// SQLServer quotes with brackets, limits with TOP and emulates OFFSET with
// ROW_NUMBER() windowing.
var SQLServer = &core.DialectConfig{
	Name: "sqlserver",
	Identifiers: core.IdentifierConfig{
		Quote:    "[",
		QuoteEnd: "]",
		Escape:   "]]",
	},
	Placeholder: core.PlaceholderAtP,
}

type sqlserverDialect struct {
	ansiDialect
}

func newSQLServer() Dialect {
	return sqlserverDialect{ansiDialect{config: SQLServer}}
}

func init() {
	Register("sqlserver", newSQLServer)
}

func (d sqlserverDialect) SelectClause(g *Grammar, s *query.State) string {
	if s.Aggregate != nil {
		return g.aggregateClause(s, "")
	}
	hint := ""
	if s.Limit > 0 && s.Offset <= 0 {
		hint = "TOP " + strconv.Itoa(s.Limit) + " "
	}
	return g.selectList(s, hint)
}

// LimitClause is empty: limits render as TOP or inside the offset window.
func (d sqlserverDialect) LimitClause(*query.State) string { return "" }

// OffsetClause is empty: offsets are emulated in Assemble.
func (d sqlserverDialect) OffsetClause(*query.State) string { return "" }

// Assemble wraps offset queries in a ROW_NUMBER() window. The window needs
// an ordering, so ORDER BY (SELECT 0) stands in when none is set.
func (d sqlserverDialect) Assemble(_ *Grammar, s *query.State, c Components) string {
	if s.Offset <= 0 || s.Aggregate != nil {
		return c.String()
	}

	orders := c.Orders
	if orders == "" {
		orders = "ORDER BY (SELECT 0)"
	}
	c.Select += ", ROW_NUMBER() OVER (" + orders + ") AS RowNum"
	c.Orders = ""

	start := s.Offset + 1
	constraint := ">= " + strconv.Itoa(start)
	if s.Limit > 0 {
		constraint = fmt.Sprintf("BETWEEN %d AND %d", start, s.Offset+s.Limit)
	}
	return fmt.Sprintf("SELECT * FROM (%s) AS TempTable WHERE RowNum %s", c.String(), constraint)
}

func (d sqlserverDialect) ReturningID(g *Grammar, p InsertParts, column string) (string, bool) {
	return "INSERT INTO " + p.Table + " (" + p.Columns + ") OUTPUT INSERTED." + g.wrapSegment(column) + " VALUES " + p.Values, true
}
