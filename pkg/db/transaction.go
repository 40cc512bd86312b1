package db

import (
	"context"
	"fmt"
)

// Transaction runs fn inside a database transaction. The Connection passed
// to fn executes on the transaction. The transaction commits when fn
// returns nil; otherwise it is rolled back and fn's error is returned
// unchanged. A panic in fn rolls back and re-panics.
func (c *Connection) Transaction(ctx context.Context, fn func(tx *Connection) error) error {
	if c.tx != nil {
		return ErrNestedTransaction
	}
	g, gerr := c.Grammar()
	if gerr != nil {
		return gerr
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return &DatabaseError{SQL: "BEGIN", Err: err}
	}
	c.logger.DebugContext(ctx, "transaction started")

	child := &Connection{
		name:     c.name,
		cfg:      c.cfg,
		db:       c.db,
		conn:     tx,
		tx:       tx,
		dialect:  c.dialect,
		logger:   c.logger,
		profiler: c.profiler,
	}
	child.grammarOnce.Do(func() { child.grammar = g })

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.ErrorContext(ctx, "rollback after panic failed", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(child); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.logger.ErrorContext(ctx, "rollback failed", "error", rbErr)
		} else {
			c.logger.DebugContext(ctx, "transaction rolled back", "cause", err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db: commit transaction: %w", err)
	}
	c.logger.DebugContext(ctx, "transaction committed")
	return nil
}
