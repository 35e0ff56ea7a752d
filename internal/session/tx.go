package session

import (
	"context"
	"fmt"
)

// Tx is the transactional scope one command runs in.
type Tx interface {
	Commit() error
	Rollback() error
}

// Transactor opens a transactional scope. The returned context carries it to
// the command operation.
type Transactor interface {
	Begin(ctx context.Context) (context.Context, Tx, error)
}

// TransactorFunc adapts a function to Transactor.
type TransactorFunc func(ctx context.Context) (context.Context, Tx, error)

func (f TransactorFunc) Begin(ctx context.Context) (context.Context, Tx, error) { return f(ctx) }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

var nopTransactor = TransactorFunc(func(ctx context.Context) (context.Context, Tx, error) {
	return ctx, nopTx{}, nil
})

// RollbackError reports a failed rollback after a command error. It is
// logged and never replaces the command error.
type RollbackError struct {
	Command string
	Err     error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback after %q failed: %v", e.Command, e.Err)
}

func (e *RollbackError) Unwrap() error { return e.Err }

// CancelledError ends a batch session after a command failed under
// cancel-on-error.
type CancelledError struct {
	Command      string
	RecoveryFile string
	Unprocessed  int
	Err          error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("command %q failed, %d unprocessed command(s) saved to %s: %v",
		e.Command, e.Unprocessed, e.RecoveryFile, e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }
