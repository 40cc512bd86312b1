// Package result implements the read-only, lazily fetched, seekable Result
// returned by select statements.
//
// The underlying cursor is forward-only. Every fetched row is kept in an
// arena indexed by row number; internal is the high-water mark (rows[i] is
// populated for every i < internal). Revisiting a row never touches the
// cursor again.
package result

import (
	"errors"
	"fmt"
	"io"
	"reflect"
)

var (
	// ErrReadOnly is returned by every attempt to modify a Result.
	ErrReadOnly = errors.New("database results are read-only")

	// ErrOutOfRange is returned by Seek for a row that does not exist.
	ErrOutOfRange = errors.New("row index out of range")
)

// Result is a cursor over the rows of one select statement. It is not safe
// for concurrent use.
type Result struct {
	cursor  Cursor
	columns []string

	total     int // -1 until known
	rows      []Row
	internal  int
	current   int
	exhausted bool
	err       error
}

// New wraps c. The total is fixed at construction when c implements Sized.
func New(c Cursor) *Result {
	r := &Result{cursor: c, columns: c.Columns(), total: -1}
	if s, ok := c.(Sized); ok {
		r.total = s.Len()
	}
	return r
}

// Columns returns the column names in select order.
func (r *Result) Columns() []string {
	return r.columns
}

// fetch reads one row from the cursor into the arena.
func (r *Result) fetch() (Row, error) {
	if r.exhausted {
		return nil, io.EOF
	}
	row, err := r.cursor.Next()
	if errors.Is(err, io.EOF) {
		r.exhausted = true
		r.total = r.internal
		closeErr := r.cursor.Close()
		if closeErr != nil {
			return nil, closeErr
		}
		return nil, io.EOF
	}
	if err != nil {
		r.err = err
		return nil, err
	}
	r.rows = append(r.rows, row)
	r.internal++
	return row, nil
}

// Current returns the row at the cursor position, fetching forward as
// needed. It returns nil when the position holds no row.
func (r *Result) Current() (Row, error) {
	if r.current < 0 {
		return nil, nil
	}
	if r.total >= 0 && r.current >= r.total {
		return nil, nil
	}

	// Seeked past the cached rows: fill the gap first.
	for r.current > r.internal {
		if _, err := r.fetch(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, err
		}
	}

	if r.current < r.internal {
		return r.rows[r.current], nil
	}

	row, err := r.fetch()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return row, err
}

// exists reports whether row i exists. When the total is unknown the
// cursor is read ahead into the arena up to i.
func (r *Result) exists(i int) (bool, error) {
	if i < 0 {
		return false, nil
	}
	if i < r.internal {
		return true, nil
	}
	if r.total >= 0 {
		return i < r.total, nil
	}
	for r.internal <= i {
		if _, err := r.fetch(); err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

// Count returns the total number of rows. Cursors that cannot report a
// count up front are read to the end once.
func (r *Result) Count() (int, error) {
	if r.total >= 0 {
		return r.total, nil
	}
	for {
		if _, err := r.fetch(); err != nil {
			if errors.Is(err, io.EOF) {
				return r.total, nil
			}
			return 0, err
		}
	}
}

// Seek moves the cursor to row i.
func (r *Result) Seek(i int) error {
	ok, err := r.exists(i)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	r.current = i
	return nil
}

// Next advances the position by one.
func (r *Result) Next() {
	r.current++
}

// Prev moves the position back by one.
func (r *Result) Prev() {
	r.current--
}

// Rewind moves the position to the first row.
func (r *Result) Rewind() {
	r.current = 0
}

// Key returns the current position.
func (r *Result) Key() int {
	return r.current
}

// Valid reports whether the current position holds a row. Fetch errors
// make it return false; check Err.
func (r *Result) Valid() bool {
	ok, err := r.exists(r.current)
	if err != nil {
		return false
	}
	return ok
}

// Err returns the first error the cursor reported.
func (r *Result) Err() error {
	return r.err
}

// GetRow seeks to row i and returns it, or nil when it does not exist.
func (r *Result) GetRow(i int) (Row, error) {
	ok, err := r.exists(i)
	if err != nil || !ok {
		return nil, err
	}
	r.current = i
	return r.Current()
}

// GetSingle returns the first column of the current row.
func (r *Result) GetSingle() (any, error) {
	row, err := r.Current()
	if err != nil || row == nil {
		return nil, err
	}
	if len(r.columns) > 0 {
		return row[r.columns[0]], nil
	}
	for _, v := range row {
		return v, nil
	}
	return nil, nil
}

// GetColumn returns column name of the current row, nil when absent.
func (r *Result) GetColumn(name string) (any, error) {
	row, err := r.Current()
	if err != nil || row == nil {
		return nil, err
	}
	return row[name], nil
}

// GetAll reads every remaining row and returns all rows, including rows
// visited earlier. The position is unchanged.
func (r *Result) GetAll() ([]Row, error) {
	if _, err := r.Count(); err != nil {
		return nil, err
	}
	// Sized cursors report a total without draining.
	for !r.exhausted && r.internal < r.total {
		if _, err := r.fetch(); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}
	out := make([]Row, len(r.rows))
	copy(out, r.rows)
	return out, nil
}

// GetValues returns column from every row.
func (r *Result) GetValues(column string) ([]any, error) {
	rows, err := r.GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = row[column]
	}
	return out, nil
}

// GetPairs maps key column to value column over every row. Later rows win
// on duplicate keys. Keys that cannot be map keys ([]byte and other
// non-comparable values) are converted to strings.
func (r *Result) GetPairs(value, key string) (map[any]any, error) {
	rows, err := r.GetAll()
	if err != nil {
		return nil, err
	}
	out := make(map[any]any, len(rows))
	for _, row := range rows {
		out[pairKey(row[key])] = row[value]
	}
	return out, nil
}

func pairKey(k any) any {
	if k == nil {
		return nil
	}
	if b, ok := k.([]byte); ok {
		return string(b)
	}
	if !reflect.TypeOf(k).Comparable() {
		return fmt.Sprint(k)
	}
	return k
}

// Each calls fn for every row from the first, stopping at the first error.
func (r *Result) Each(fn func(i int, row Row) error) error {
	for i := 0; ; i++ {
		row, err := r.GetRow(i)
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}
		if err := fn(i, row); err != nil {
			return err
		}
	}
}

// Set always fails: results are read-only.
func (r *Result) Set(int, Row) error {
	return ErrReadOnly
}

// Unset always fails: results are read-only.
func (r *Result) Unset(int) error {
	return ErrReadOnly
}

// Close releases the underlying cursor. Cached rows stay readable.
func (r *Result) Close() error {
	if r.exhausted {
		return nil
	}
	r.exhausted = true
	if r.total < 0 || r.total > r.internal {
		r.total = r.internal
	}
	return r.cursor.Close()
}
