package db

import (
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/grammar"
	"github.com/leapstack-labs/leapdb/pkg/query"
)

// MultiValueMarker is the textual marker raw SQL uses where a slice
// binding should be expanded into one placeholder per element, as in
// "id IN (...)".
const MultiValueMarker = "(...)"

// reconcile turns builder bindings into driver arguments.
//
// Literal bindings are dropped. Values implementing query.DialectValuer are
// serialized for driver. A slice binding is spliced into the first remaining
// MultiValueMarker; with no marker left it is passed to the driver as is.
// Finally the SQL is rebound to the grammar's placeholder style.
func reconcile(driver string, style core.PlaceholderStyle, sqlText string, bindings []query.Value) (string, []any) {
	args := make([]any, 0, len(bindings))
	for _, b := range bindings {
		if b.IsLiteral() {
			continue
		}
		v := dialectValue(driver, b.Interface())
		elems, ok := query.AsSlice(v)
		if !ok || !strings.Contains(sqlText, MultiValueMarker) {
			args = append(args, v)
			continue
		}
		sqlText = strings.Replace(sqlText, MultiValueMarker, expandMarker(len(elems)), 1)
		for _, e := range elems {
			args = append(args, dialectValue(driver, e))
		}
	}
	return grammar.Rebind(style, sqlText), args
}

// expandMarker renders n placeholders. An empty list becomes (NULL) so the
// surrounding IN matches nothing instead of producing invalid SQL.
func expandMarker(n int) string {
	if n == 0 {
		return "(NULL)"
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}

func dialectValue(driver string, v any) any {
	switch dv := v.(type) {
	case query.Value:
		return dialectValue(driver, dv.Interface())
	case query.DialectValuer:
		return dv.DialectValue(driver)
	default:
		return v
	}
}
