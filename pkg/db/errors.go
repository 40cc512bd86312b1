package db

import (
	"errors"
	"fmt"
)

// ErrNestedTransaction is returned when Transaction is called on a
// Connection that is already inside a transaction.
var ErrNestedTransaction = errors.New("db: transaction already in progress")

// ErrRegistryClosed is returned by lookups on a closed Registry.
var ErrRegistryClosed = errors.New("db: registry is closed")

// DatabaseError wraps a driver failure together with the statement that
// caused it.
type DatabaseError struct {
	SQL      string
	Bindings []any
	Err      error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%v\n\nSQL: %s\n\nBindings: %v", e.Err, e.SQL, e.Bindings)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// ConfigError reports a connection name with no usable configuration.
type ConfigError struct {
	Name string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("database connection is not defined for %s", e.Name)
	}
	return fmt.Sprintf("database connection %s: %v", e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
