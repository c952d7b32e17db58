package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager exposes explicit transaction control for callers that
// need to group several repository calls into one atomic unit. The stores'
// own atomic operations (slot reservation, escrow settlement) manage their
// transactions internally and do not require it.
type TransactionManager interface {
	// Begin opens a new transaction.
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits tx.
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls tx back. Safe to defer; a no-op once the transaction
	// has finished.
	Rollback(ctx context.Context, tx pgx.Tx) error
}
