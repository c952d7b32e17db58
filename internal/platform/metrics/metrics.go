// Package metrics defines the Prometheus collectors for the campaign engine.
// Collectors are registered on the default registry at init and served from
// the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LifecycleTransitionsTotal counts campaign state transitions by target status.
var LifecycleTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gcb",
	Subsystem: "lifecycle",
	Name:      "transitions_total",
	Help:      "Campaign state transitions applied, labeled by target status.",
}, []string{"to_status"})

// SchedulerRunsTotal counts lifecycle scheduler passes by outcome.
var SchedulerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gcb",
	Subsystem: "scheduler",
	Name:      "runs_total",
	Help:      "Lifecycle scheduler passes, labeled by outcome (success, error, skipped).",
}, []string{"outcome"})

// SchedulerRunDuration observes how long a lifecycle pass takes.
var SchedulerRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "gcb",
	Subsystem: "scheduler",
	Name:      "run_duration_seconds",
	Help:      "Duration of lifecycle scheduler passes in seconds.",
	Buckets:   prometheus.DefBuckets,
})

// SchedulerRunning reports whether the scheduler loop is running (1) or not (0).
var SchedulerRunning = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "gcb",
	Subsystem: "scheduler",
	Name:      "running",
	Help:      "Whether the lifecycle scheduler loop is currently running.",
})

// ReservationsTotal counts slot reservation attempts by outcome.
var ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gcb",
	Subsystem: "reservation",
	Name:      "attempts_total",
	Help:      "Slot reservation attempts, labeled by outcome (reserved, insufficient_slots, campaign_closed, error).",
}, []string{"outcome"})

// EscrowSettlementsTotal counts hold settlements by kind.
var EscrowSettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gcb",
	Subsystem: "escrow",
	Name:      "settlements_total",
	Help:      "Escrow hold settlements, labeled by kind (released, refunded).",
}, []string{"kind"})
