package grammar

import (
	"fmt"
	"strings"
)

// Error reports a component of the query state the compiler cannot render.
type Error struct {
	Component string
	Reason    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("grammar: cannot compile %s: %s", e.Component, e.Reason)
}

// UnknownGrammarError is returned when no grammar is registered under a name.
type UnknownGrammarError struct {
	Name      string
	Available []string
}

func (e *UnknownGrammarError) Error() string {
	return fmt.Sprintf("unknown grammar %q, available: %s", e.Name, strings.Join(e.Available, ", "))
}
