package grammar

import (
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/query"
)

// Wrap quotes a column reference. Literals pass through verbatim, "*" is
// never quoted, "a as b" becomes <a> AS <b>, and a qualified name quotes
// every segment with the table prefix applied to its qualifier.
func (g *Grammar) Wrap(v query.Value) string {
	if v.IsLiteral() {
		return v.Text()
	}
	return g.wrap(v.Text())
}

func (g *Grammar) wrap(s string) string {
	if left, right, ok := splitAlias(s); ok {
		return g.wrap(left) + " AS " + g.wrapSegment(right)
	}
	if i := strings.LastIndex(s, "."); i >= 0 {
		return g.wrapTableName(s[:i]) + "." + g.wrapSegment(s[i+1:])
	}
	return g.wrapSegment(s)
}

// WrapTable quotes a table reference and applies the prefix. An alias
// ("users as u") renders as <prefix+users> <u>.
func (g *Grammar) WrapTable(v query.Value) string {
	if v.IsLiteral() {
		return v.Text()
	}
	s := v.Text()
	if left, right, ok := splitAlias(s); ok {
		return g.wrapTableName(left) + " " + g.wrapSegment(right)
	}
	return g.wrapTableName(s)
}

// wrapTableName quotes a possibly schema-qualified table name. The prefix
// is applied to the table segment only.
func (g *Grammar) wrapTableName(s string) string {
	segments := strings.Split(s, ".")
	last := len(segments) - 1
	for i, seg := range segments {
		if i == last {
			seg = g.prefix + seg
		}
		segments[i] = g.wrapSegment(seg)
	}
	return strings.Join(segments, ".")
}

func (g *Grammar) wrapSegment(s string) string {
	if s == "*" {
		return s
	}
	return g.config.Identifiers.QuoteIdentifier(s)
}

// splitAlias splits "x as y" (any case) into x and y.
func splitAlias(s string) (string, string, bool) {
	i := strings.Index(strings.ToLower(s), " as ")
	if i < 0 {
		return "", "", false
	}
	left := strings.TrimSpace(s[:i])
	right := strings.TrimSpace(s[i+len(" as "):])
	if left == "" || right == "" {
		return "", "", false
	}
	return left, right, true
}

// Columnize wraps and comma-joins columns.
func (g *Grammar) Columnize(vs []query.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = g.Wrap(v)
	}
	return strings.Join(parts, ", ")
}

// Parameter returns the placeholder for v, or its text when v is a literal.
func (g *Grammar) Parameter(v query.Value) string {
	if v.IsLiteral() {
		return v.Text()
	}
	return "?"
}

// Parameterize comma-joins the placeholders for vs.
func (g *Grammar) Parameterize(vs []query.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = g.Parameter(v)
	}
	return strings.Join(parts, ", ")
}
