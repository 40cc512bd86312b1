package grammar

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Rebind rewrites ? placeholders for the given style. Question marks inside
// quoted strings and quoted identifiers are left alone; for @p numbering
// that includes [bracketed] identifiers.
func Rebind(style core.PlaceholderStyle, sql string) string {
	var prefix string
	switch style {
	case core.PlaceholderDollar:
		prefix = "$"
	case core.PlaceholderAtP:
		prefix = "@p"
	default:
		return sql
	}
	if !strings.Contains(sql, "?") {
		return sql
	}

	var (
		b     strings.Builder
		n     int
		quote byte
	)
	b.Grow(len(sql) + 8)
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '[' && style == core.PlaceholderAtP:
			quote = ']'
		case c == '?':
			n++
			b.WriteString(prefix)
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
