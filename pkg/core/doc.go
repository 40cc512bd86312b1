// Package core defines the shared language of the leapdb system.
//
// This package contains:
//   - Connection configuration (ConnectionConfig, FetchType)
//   - Static dialect configuration (DialectConfig, IdentifierConfig, PlaceholderStyle)
//   - Per-driver date layouts used when serializing time values for binding
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
