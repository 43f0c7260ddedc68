package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoScope is returned when a context carries no database scope.
var ErrNoScope = errors.New("no database scope in context")

// Transactor runs a function inside a database transaction.
type Transactor interface {
	// InTx begins a transaction on the context's connection and passes fn a
	// context whose scope queries through that transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type scopeTransactor struct{}

// NewTransactor returns a Transactor that uses the scope stored in context.
func NewTransactor() Transactor {
	return scopeTransactor{}
}

func (scopeTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	scope, ok := GetScope(ctx)
	if !ok {
		return ErrNoScope
	}

	// nested calls join the outer transaction
	if scope.InTx() {
		return fn(ctx)
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.Background())
		}
	}()

	txCtx := SetScope(ctx, &Scope{Conn: scope.Conn, tx: tx})
	if err = fn(txCtx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
