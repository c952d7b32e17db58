package services

import (
	"context"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
)

// SchedulerSvc is the owned, process-scoped lifecycle timer. At most one
// lifecycle pass is in flight at a time: the ticker skips (never queues)
// a tick that lands while a pass is running.
type SchedulerSvc interface {
	// Start launches the recurring timer. Calling Start on a running
	// scheduler is a no-op.
	Start(ctx context.Context)

	// Stop halts the timer and waits for any in-flight pass to finish.
	// Stopping an already-stopped scheduler is a no-op.
	Stop(ctx context.Context) error

	// TriggerNow runs one lifecycle pass synchronously through the same
	// single-flight gate the timer uses. Returns the transitions applied, or
	// apperrors.ErrConflict if a pass is already in flight.
	TriggerNow(ctx context.Context) ([]domain.LifecycleTransition, error)

	// Status reports the scheduler's health snapshot.
	Status() domain.SchedulerStatus
}
