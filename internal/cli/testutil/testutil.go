// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	// sqlite driver for the test database.
	_ "modernc.org/sqlite"
)

// Project is a temporary project directory with a config file and a
// seeded SQLite database.
type Project struct {
	Dir        string
	ConfigPath string
	Database   string
}

const seedSQL = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT,
	age INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	status TEXT NOT NULL,
	total REAL NOT NULL
);
INSERT INTO users (name, email, age) VALUES
	('Alice', 'alice@example.com', 34),
	('Bob', 'bob@example.com', 17),
	('Carol', NULL, 52);
INSERT INTO orders (user_id, status, total) VALUES
	(1, 'paid', 20.5),
	(1, 'open', 12),
	(3, 'paid', 99.99);
`

// SetupTestProject creates a project with a leapdb.yaml that defines an
// "app" connection (the default) on a seeded SQLite file and a "scratch"
// in-memory connection.
func SetupTestProject(t *testing.T) *Project {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")

	sqlDB, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()
	_, err = sqlDB.ExecContext(context.Background(), seedSQL)
	require.NoError(t, err)

	cfg := fmt.Sprintf(`default: app
output: table
connections:
  app:
    driver: sqlite
    database: %q
  scratch:
    driver: sqlite
    database: ":memory:"
`, dbPath)
	cfgPath := filepath.Join(dir, "leapdb.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	return &Project{Dir: dir, ConfigPath: cfgPath, Database: dbPath}
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}

// AssertNotContains checks that the string does not contain the substring.
func AssertNotContains(t *testing.T, s, unexpected string) {
	t.Helper()
	if strings.Contains(s, unexpected) {
		t.Errorf("string %q unexpectedly contains %q", s, unexpected)
	}
}

// AssertValidMarkdown checks that every line of a markdown table starts
// and ends with a pipe and that all rows have the same number of cells.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	cells := -1
	for i, line := range strings.Split(strings.TrimSpace(md), "\n") {
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			t.Errorf("line %d is not a table row: %q", i+1, line)
			continue
		}
		n := strings.Count(strings.ReplaceAll(line, `\|`, ""), "|")
		if cells == -1 {
			cells = n
		} else if n != cells {
			t.Errorf("line %d has %d separators, want %d: %q", i+1, n, cells, line)
		}
	}
}
