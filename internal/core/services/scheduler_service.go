package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/platform/metrics"
)

const (
	triggerTimer  = "timer"
	triggerManual = "manual"
)

// schedulerService runs the lifecycle pass on a fixed interval. A single
// runMu gate serializes passes: a tick or manual trigger that lands while a
// pass is in flight is skipped, never queued, so passes cannot pile up when
// one runs long.
type schedulerService struct {
	BaseService
	lifecycle portssvc.CampaignLifecycleSvc
	interval  time.Duration
	now       func() time.Time

	runMu sync.Mutex // held for the duration of one lifecycle pass

	mu        sync.Mutex // guards everything below
	running   bool
	inFlight  bool
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
	lastTick  *time.Time

	lastRunAt        *time.Time
	lastRunDuration  time.Duration
	lastSuccessAt    *time.Time
	lastError        string
	runsTotal        uint64
	transitionsTotal uint64
	overlapsSkipped  uint64
}

// NewSchedulerService creates the lifecycle scheduler. A non-positive
// interval falls back to one minute.
func NewSchedulerService(lifecycle portssvc.CampaignLifecycleSvc, interval time.Duration) portssvc.SchedulerSvc {
	if interval <= 0 {
		interval = time.Minute
	}
	return &schedulerService{
		lifecycle: lifecycle,
		interval:  interval,
		now:       time.Now,
	}
}

// Ensure schedulerService implements the SchedulerSvc interface
var _ portssvc.SchedulerSvc = (*schedulerService)(nil)

// Start launches the recurring timer. Calling Start on a running scheduler
// is a no-op. The loop inherits the caller's context values but not its
// cancellation; Stop is the only way to halt it.
func (s *schedulerService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done
	s.startedAt = s.now()
	s.lastTick = nil
	s.mu.Unlock()

	metrics.SchedulerRunning.Set(1)
	go s.loop(loopCtx, done)

	s.LogInfo(ctx, "Lifecycle scheduler started", slog.Duration("interval", s.interval))
}

func (s *schedulerService) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick := s.now()
			s.mu.Lock()
			s.lastTick = &tick
			s.mu.Unlock()
			_, _ = s.runOnce(ctx, triggerTimer)
		}
	}
}

// Stop halts the timer, waits for any in-flight pass to finish, and returns.
// Stopping an already-stopped scheduler is a no-op.
func (s *schedulerService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for lifecycle scheduler to stop: %w", ctx.Err())
	}

	// A manual trigger may still be in flight after the loop exits; holding
	// the gate until return guarantees nothing runs once Stop returns.
	s.runMu.Lock()
	defer s.runMu.Unlock()

	metrics.SchedulerRunning.Set(0)
	s.LogInfo(ctx, "Lifecycle scheduler stopped")
	return nil
}

// TriggerNow runs one lifecycle pass synchronously through the same
// single-flight gate the timer uses.
func (s *schedulerService) TriggerNow(ctx context.Context) ([]domain.LifecycleTransition, error) {
	return s.runOnce(ctx, triggerManual)
}

// runOnce executes one lifecycle pass if no other pass is in flight.
func (s *schedulerService) runOnce(ctx context.Context, trigger string) ([]domain.LifecycleTransition, error) {
	if !s.runMu.TryLock() {
		s.mu.Lock()
		s.overlapsSkipped++
		s.mu.Unlock()
		metrics.SchedulerRunsTotal.WithLabelValues("skipped").Inc()
		s.LogWarn(ctx, "Lifecycle pass already in flight, skipping",
			slog.String("trigger", trigger))
		return nil, fmt.Errorf("a lifecycle pass is already in flight: %w", apperrors.ErrConflict)
	}
	defer s.runMu.Unlock()

	started := s.now()
	s.mu.Lock()
	s.inFlight = true
	s.runsTotal++
	s.lastRunAt = &started
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	transitions, err := s.lifecycle.RunLifecycle(ctx)
	duration := s.now().Sub(started)
	metrics.SchedulerRunDuration.Observe(duration.Seconds())

	s.mu.Lock()
	s.lastRunDuration = duration
	if err != nil {
		s.lastError = err.Error()
		s.mu.Unlock()
		metrics.SchedulerRunsTotal.WithLabelValues("error").Inc()
		s.LogError(ctx, err, "Lifecycle pass failed",
			slog.String("trigger", trigger),
			slog.Duration("duration", duration))
		return nil, err
	}
	finished := started.Add(duration)
	s.lastError = ""
	s.lastSuccessAt = &finished
	s.transitionsTotal += uint64(len(transitions))
	s.mu.Unlock()

	metrics.SchedulerRunsTotal.WithLabelValues("success").Inc()
	if len(transitions) > 0 {
		s.LogInfo(ctx, "Lifecycle pass completed",
			slog.String("trigger", trigger),
			slog.Int("transitions", len(transitions)),
			slog.Duration("duration", duration))
	} else {
		s.LogDebug(ctx, "Lifecycle pass found nothing due",
			slog.String("trigger", trigger),
			slog.Duration("duration", duration))
	}
	return transitions, nil
}

// Status reports the scheduler's health snapshot.
func (s *schedulerService) Status() domain.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := domain.SchedulerStatus{
		Running:          s.running,
		InFlight:         s.inFlight,
		Interval:         s.interval,
		LastRunDuration:  s.lastRunDuration,
		LastError:        s.lastError,
		RunsTotal:        s.runsTotal,
		TransitionsTotal: s.transitionsTotal,
		OverlapsSkipped:  s.overlapsSkipped,
	}
	if s.lastRunAt != nil {
		t := *s.lastRunAt
		status.LastRunAt = &t
	}
	if s.lastSuccessAt != nil {
		t := *s.lastSuccessAt
		status.LastSuccessAt = &t
	}
	if s.running {
		base := s.startedAt
		if s.lastTick != nil {
			base = *s.lastTick
		}
		next := base.Add(s.interval)
		status.NextRunAt = &next
	}
	return status
}
