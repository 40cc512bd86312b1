// Package sqlserver provides a Microsoft SQL Server database adapter for leapdb.
//
// This file registers the SQL Server adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapdb/pkg/adapters/sqlserver"
package sqlserver

import (
	"log/slog"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

func init() {
	adapter.Register("sqlsrv", func(logger *slog.Logger) adapter.Adapter { return New(logger) }, "sqlserver", "mssql")
}
