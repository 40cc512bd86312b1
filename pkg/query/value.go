package query

import (
	"fmt"
	"reflect"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

type valueKind uint8

const (
	kindBound valueKind = iota
	kindLiteral
)

// Value is either a Literal (raw SQL text, emitted verbatim and never bound)
// or a Bound value (an identifier to wrap when used as a column, a parameter
// to bind when used as a value). Grammars switch on the tag instead of
// inspecting dynamic types.
type Value struct {
	kind  valueKind
	text  string
	bound any
}

// Raw marks sql as a literal fragment: it bypasses identifier quoting and
// parameter binding.
func Raw(sql string) Value {
	return Value{kind: kindLiteral, text: sql}
}

// Bind wraps v as a bound value. A Value passed to Bind is returned unchanged.
func Bind(v any) Value {
	if val, ok := v.(Value); ok {
		return val
	}
	return Value{kind: kindBound, bound: v}
}

// IsLiteral reports whether v carries raw SQL text.
func (v Value) IsLiteral() bool {
	return v.kind == kindLiteral
}

// Text returns the literal SQL text, or the identifier a bound string names.
func (v Value) Text() string {
	if v.kind == kindLiteral {
		return v.text
	}
	if s, ok := v.bound.(string); ok {
		return s
	}
	return fmt.Sprint(v.bound)
}

// Interface returns the bound value (nil for literals).
func (v Value) Interface() any {
	if v.kind == kindLiteral {
		return nil
	}
	return v.bound
}

// IsZero reports whether v is the zero Value (a bound nil).
func (v Value) IsZero() bool {
	return v.kind == kindBound && v.bound == nil
}

// String implements fmt.Stringer for diagnostics.
func (v Value) String() string {
	if v.kind == kindLiteral {
		return "raw(" + v.text + ")"
	}
	return fmt.Sprintf("%v", v.bound)
}

// DialectValuer is implemented by bound values that render differently per
// driver. The connection calls DialectValue before handing the value to the
// driver.
type DialectValuer interface {
	DialectValue(driver string) any
}

// TimeValue binds a time using the active driver's date layout.
type TimeValue struct {
	time.Time
}

// Time wraps t so it serializes with the driver's date layout when bound.
func Time(t time.Time) TimeValue {
	return TimeValue{Time: t}
}

// DialectValue formats the time with the layout registered for driver.
func (t TimeValue) DialectValue(driver string) any {
	return t.Format(core.DateLayout(driver))
}

// columnValue converts a column argument into a Value.
// Strings become identifiers; Values pass through.
func columnValue(column any) (Value, bool) {
	switch c := column.(type) {
	case Value:
		return c, true
	case string:
		if c == "" {
			return Value{}, false
		}
		return Bind(c), true
	default:
		return Value{}, false
	}
}

// columnValues converts a list of column arguments.
func columnValues(columns []any) ([]Value, bool) {
	out := make([]Value, 0, len(columns))
	for _, c := range columns {
		v, ok := columnValue(c)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// AsSlice flattens a slice or array argument into []any.
// Strings and byte slices are scalars, not sequences.
func AsSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil:
		return nil, false
	case []any:
		return s, true
	case []Value:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []byte, string:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func bindAll(values []any) []Value {
	out := make([]Value, len(values))
	for i, v := range values {
		out[i] = Bind(v)
	}
	return out
}
