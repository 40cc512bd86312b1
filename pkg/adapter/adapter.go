// Package adapter provides the database adapter contract for leapdb.
//
// An adapter knows how to open a *sql.DB for one driver from a named
// connection configuration: DSN assembly, driver registration and pool
// tuning. Query compilation and execution live elsewhere (pkg/grammar,
// pkg/db); adapters only report which grammar their driver speaks.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves in init().
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Open connects to the database described by cfg and verifies the
	// connection with a ping.
	Open(ctx context.Context, cfg core.ConnectionConfig) (*sql.DB, error)

	// Dialect returns the grammar name for this driver (see pkg/grammar).
	Dialect() string
}
