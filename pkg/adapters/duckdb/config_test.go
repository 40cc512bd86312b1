package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    *Params
		wantErr bool
	}{
		{
			name:  "nil params returns empty struct",
			input: nil,
			want:  &Params{},
		},
		{
			name: "extensions only",
			input: map[string]any{
				"extensions": []any{"httpfs", "json"},
			},
			want: &Params{
				Extensions: []string{"httpfs", "json"},
			},
		},
		{
			name: "settings with pool keys ignored",
			input: map[string]any{
				"settings": map[string]any{
					"memory_limit": "4GB",
					"threads":      4,
				},
				"max_open_conns": 4,
			},
			want: &Params{
				Settings: map[string]string{
					"memory_limit": "4GB",
					"threads":      "4",
				},
			},
		},
		{
			name:    "wrong shape",
			input:   map[string]any{"settings": []any{"x"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupStatements(t *testing.T) {
	stmts := setupStatements(&Params{
		Extensions: []string{"json"},
		Settings:   map[string]string{"threads": "2", "memory_limit": "1GB"},
	})
	assert.Equal(t, []string{
		"INSTALL json",
		"LOAD json",
		"SET memory_limit = '1GB'",
		"SET threads = '2'",
	}, stmts)
}
