package result

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Row is one fetched row keyed by column name.
type Row map[string]any

// Cursor is a forward-only row source. Next returns io.EOF after the last
// row.
type Cursor interface {
	Columns() []string
	Next() (Row, error)
	Close() error
}

// Sized is implemented by cursors that know their row count up front.
type Sized interface {
	Len() int
}

// sqlCursor reads rows from database/sql.
type sqlCursor struct {
	rows    *sql.Rows
	columns []string
	fetch   core.FetchType
}

// FromRows wraps rows in a Result. With core.FetchMap, []byte values are
// converted to strings; core.FetchRaw keeps driver values untouched.
func FromRows(rows *sql.Rows, fetch core.FetchType) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	return New(&sqlCursor{rows: rows, columns: cols, fetch: fetch.Normalize()}), nil
}

func (c *sqlCursor) Columns() []string {
	return c.columns
}

func (c *sqlCursor) Next() (Row, error) {
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	values := make([]any, len(c.columns))
	ptrs := make([]any, len(c.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	row := make(Row, len(c.columns))
	for i, col := range c.columns {
		v := values[i]
		if c.fetch == core.FetchMap {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
		}
		row[col] = v
	}
	return row, nil
}

func (c *sqlCursor) Close() error {
	return c.rows.Close()
}

// sliceCursor serves rows that are already in memory.
type sliceCursor struct {
	columns []string
	rows    []Row
	pos     int
}

// FromSlice returns a Result over in-memory rows.
func FromSlice(columns []string, rows []Row) *Result {
	return New(&sliceCursor{columns: columns, rows: rows})
}

func (c *sliceCursor) Columns() []string { return c.columns }

func (c *sliceCursor) Len() int { return len(c.rows) }

func (c *sliceCursor) Next() (Row, error) {
	if c.pos >= len(c.rows) {
		return nil, io.EOF
	}
	row := c.rows[c.pos]
	c.pos++
	return row, nil
}

func (c *sliceCursor) Close() error { return nil }
