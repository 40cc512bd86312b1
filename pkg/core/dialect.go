package core

import "strings"

// DialectConfig holds the static configuration for a SQL dialect.
// It is pure data with no compile functions.
//
// The runtime behavior (select, limit and offset strategies) lives in
// pkg/grammar, which pairs a DialectConfig with a compile strategy.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "mysql", "sqlserver")
	Name string

	// Identifiers defines quoting rules
	Identifiers IdentifierConfig

	// Placeholder defines how query parameters are formatted
	Placeholder PlaceholderStyle
}

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (MySQL, SQLite, DuckDB).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
	// PlaceholderAtP uses @p1, @p2, etc. for parameters (SQL Server).
	PlaceholderAtP
)

// String returns the string representation of PlaceholderStyle.
func (p PlaceholderStyle) String() string {
	switch p {
	case PlaceholderQuestion:
		return "question"
	case PlaceholderDollar:
		return "dollar"
	case PlaceholderAtP:
		return "at_p"
	default:
		return "unknown"
	}
}

// IdentifierConfig defines how identifiers are quoted.
type IdentifierConfig struct {
	Quote    string // Quote character: ", `, [
	QuoteEnd string // End quote character (usually same as Quote, ] for [)
	Escape   string // Escape sequence for QuoteEnd inside an identifier: "", ``, ]]
}

// QuoteIdentifier wraps a single identifier segment, escaping embedded end quotes.
func (c IdentifierConfig) QuoteIdentifier(segment string) string {
	end := c.QuoteEnd
	if end == "" {
		end = c.Quote
	}
	if c.Escape != "" && end != "" {
		segment = strings.ReplaceAll(segment, end, c.Escape)
	}
	return c.Quote + segment + end
}
