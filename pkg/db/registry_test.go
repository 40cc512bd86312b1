package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdb/internal/testutil"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

type mockOpener struct {
	t     *testing.T
	calls atomic.Int32
	mu    sync.Mutex
	mocks map[string]sqlmock.Sqlmock
}

func newMockOpener(t *testing.T) *mockOpener {
	return &mockOpener{t: t, mocks: make(map[string]sqlmock.Sqlmock)}
}

func (o *mockOpener) open(_ context.Context, cfg core.ConnectionConfig, _ *slog.Logger) (*sql.DB, string, error) {
	o.calls.Add(1)
	if cfg.Driver == "broken" {
		return nil, "", errors.New("dial tcp: connection refused")
	}
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(o.t, err)
	o.mu.Lock()
	o.mocks[cfg.Database] = mock
	o.mu.Unlock()
	return sqlDB, "", nil
}

func newTestRegistry(t *testing.T, o *mockOpener) *Registry {
	return NewRegistry("main", map[string]core.ConnectionConfig{
		"main":    {Driver: "sqlite", Database: "main"},
		"reports": {Driver: "pgsql", Database: "reports"},
		"broken":  {Driver: "broken", Database: "broken"},
		"oracle":  {Driver: "oracle", Database: "oracle"},
	}, WithOpener(o.open), WithRegistryLogger(testutil.NewTestLogger(t)))
}

func TestRegistry_LazyAndReused(t *testing.T) {
	ctx := context.Background()
	o := newMockOpener(t)
	r := newTestRegistry(t, o)
	t.Cleanup(func() { _ = r.Close() })

	assert.Empty(t, r.Opened())
	assert.Equal(t, int32(0), o.calls.Load())

	first, err := r.Connection(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "main", first.Name())

	second, err := r.Connection(ctx, "main")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), o.calls.Load())
	assert.Equal(t, []string{"main"}, r.Opened())
}

func TestRegistry_ConcurrentFirstLookup(t *testing.T) {
	ctx := context.Background()
	o := newMockOpener(t)
	r := newTestRegistry(t, o)
	t.Cleanup(func() { _ = r.Close() })

	var wg sync.WaitGroup
	conns := make([]*Connection, 8)
	for i := range conns {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.Connection(ctx, "reports")
			assert.NoError(t, err)
			conns[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range conns[1:] {
		assert.Same(t, conns[0], c)
	}
}

func TestRegistry_Errors(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, newMockOpener(t))
	t.Cleanup(func() { _ = r.Close() })

	tests := []struct {
		name     string
		conn     string
		contains string
	}{
		{"undefined", "archive", "database connection is not defined for archive"},
		{"open failure", "broken", "connection refused"},
		{"unknown grammar", "oracle", "oracle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Connection(ctx, tt.conn)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.conn, cfgErr.Name)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
	assert.Empty(t, r.Opened())
}

func TestRegistry_Table(t *testing.T) {
	ctx := context.Background()
	o := newMockOpener(t)
	r := newTestRegistry(t, o)
	t.Cleanup(func() { _ = r.Close() })

	q, err := r.Table(ctx, "users")
	require.NoError(t, err)

	o.mocks["main"].ExpectQuery(`SELECT * FROM "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = q.Select(ctx)
	require.NoError(t, err)
	require.NoError(t, o.mocks["main"].ExpectationsWereMet())
}

func TestRegistry_Close(t *testing.T) {
	ctx := context.Background()
	o := newMockOpener(t)
	r := newTestRegistry(t, o)

	_, err := r.Connection(ctx, "main")
	require.NoError(t, err)
	_, err = r.Connection(ctx, "reports")
	require.NoError(t, err)

	o.mocks["main"].ExpectClose()
	o.mocks["reports"].ExpectClose().WillReturnError(errors.New("close failed"))

	err = r.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close reports")
	require.NoError(t, o.mocks["main"].ExpectationsWereMet())

	assert.NoError(t, r.Close())
	_, err = r.Connection(ctx, "main")
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestRegistry_Names(t *testing.T) {
	r := newTestRegistry(t, newMockOpener(t))
	assert.Equal(t, []string{"broken", "main", "oracle", "reports"}, r.Names())

	cfg, ok := r.Config("")
	require.True(t, ok)
	assert.Equal(t, "main", cfg.Database)

	_, ok = r.Config("archive")
	assert.False(t, ok)
}

func TestRegistry_LogsLifecycle(t *testing.T) {
	ctx := context.Background()
	o := newMockOpener(t)
	logger, logs := testutil.NewRecordingLogger(t)
	r := NewRegistry("main", map[string]core.ConnectionConfig{
		"main": {Driver: "sqlite", Database: "main"},
	}, WithOpener(o.open), WithRegistryLogger(logger))

	_, err := r.Connection(ctx, "main")
	require.NoError(t, err)
	_, err = r.Connection(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, logs.Lines(`msg="connection opened"`, "connection=main", "driver=sqlite"), 1)

	o.mocks["main"].ExpectClose()
	require.NoError(t, r.Close())
	assert.Len(t, logs.Lines(`msg="connection closed"`, "connection=main"), 1)
}
