package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdb/internal/testutil"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

func TestParsePoolParams(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]any
		expected PoolParams
		wantErr  bool
	}{
		{
			name:     "empty",
			params:   nil,
			expected: PoolParams{},
		},
		{
			name: "all settings",
			params: map[string]any{
				"max_open_conns":     10,
				"max_idle_conns":     "2",
				"conn_max_lifetime":  "5m",
				"conn_max_idle_time": "30s",
				"extensions":         []string{"ignored"},
			},
			expected: PoolParams{
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
				ConnMaxIdleTime: 30 * time.Second,
			},
		},
		{
			name:    "bad duration",
			params:  map[string]any{"conn_max_lifetime": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePoolParams(tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBase_Connect(t *testing.T) {
	dsn := "base_connect_test"
	_, mock, err := sqlmock.NewWithDSN(dsn, sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	base := NewBase("sqlmock", testutil.NewTestLogger(t))
	db, err := base.Connect(context.Background(), dsn, core.ConnectionConfig{
		Database: "app",
		Params:   map[string]any{"max_open_conns": 3},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, 3, db.Stats().MaxOpenConnections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBase_ConnectPingFailure(t *testing.T) {
	dsn := "base_connect_ping_failure"
	_, mock, err := sqlmock.NewWithDSN(dsn, sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(assert.AnError)

	_, err = NewBase("sqlmock", nil).Connect(context.Background(), dsn, core.ConnectionConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping sqlmock")
}

func TestBase_ConnectBadParams(t *testing.T) {
	_, err := NewBase("sqlmock", nil).Connect(context.Background(), "unused", core.ConnectionConfig{
		Params: map[string]any{"conn_max_lifetime": "soon"},
	})
	assert.Error(t, err)
}
