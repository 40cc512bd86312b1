package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdb/internal/testutil"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

func TestDatabasePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ":memory:"},
		{":memory:", ":memory:"},
		{"app", "app.sqlite"},
		{"data/app.db", "data/app.db"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, databasePath(tt.input))
		})
	}
}

func TestBuildSQLiteDSN(t *testing.T) {
	assert.Equal(t, "app.db", buildSQLiteDSN("app.db", nil))
	assert.Equal(t,
		"app.db?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29",
		buildSQLiteDSN("app.db", map[string]string{"foreign_keys": "1", "busy_timeout": "5000"}))
}

func TestAdapter_Open(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based without extension",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path + ".sqlite")
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(testutil.NewTestLogger(t))

			path := tt.setupPath(t)
			db, err := adp.Open(ctx, core.ConnectionConfig{Database: path})
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			_, err = db.ExecContext(ctx, "CREATE TABLE t (id INTEGER)")
			require.NoError(t, err)

			if tt.verify != nil {
				tt.verify(t, path)
			}
		})
	}
}
