package domain

import "time"

// SchedulerStatus is the health snapshot reported by the lifecycle scheduler.
type SchedulerStatus struct {
	Running          bool          `json:"running"`  // Start has been called and Stop has not
	InFlight         bool          `json:"inFlight"` // A lifecycle pass is executing right now
	Interval         time.Duration `json:"interval"`
	LastRunAt        *time.Time    `json:"lastRunAt,omitempty"`
	LastRunDuration  time.Duration `json:"lastRunDuration"`
	LastSuccessAt    *time.Time    `json:"lastSuccessAt,omitempty"`
	NextRunAt        *time.Time    `json:"nextRunAt,omitempty"`
	LastError        string        `json:"lastError,omitempty"`
	RunsTotal        uint64        `json:"runsTotal"`
	TransitionsTotal uint64        `json:"transitionsTotal"`
	OverlapsSkipped  uint64        `json:"overlapsSkipped"`
}

// Healthy reports whether the scheduler is running and its most recent pass
// did not fail.
func (s SchedulerStatus) Healthy() bool {
	return s.Running && s.LastError == ""
}
