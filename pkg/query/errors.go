package query

import (
	"errors"
	"fmt"
)

// ErrNullInteger is returned by ToInt64 for a NULL value.
var ErrNullInteger = errors.New("integer value is NULL")

// BuilderInputError is recorded when a builder call receives malformed
// arguments. The call leaves the Query unchanged; the error is returned by
// Err and by every terminal operation.
type BuilderInputError struct {
	Op       string
	Argument string
	Reason   string
}

func (e *BuilderInputError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Argument, e.Reason)
}
