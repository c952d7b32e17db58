package dto

import (
	"time"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
)

// --- Scheduler DTOs ---

// SchedulerStatusResponse defines the scheduler health snapshot.
type SchedulerStatusResponse struct {
	Running          bool       `json:"running"`
	InFlight         bool       `json:"inFlight"`
	Interval         string     `json:"interval"`
	LastRunAt        *time.Time `json:"lastRunAt,omitempty"`
	LastSuccessAt    *time.Time `json:"lastSuccessAt,omitempty"`
	NextRunAt        *time.Time `json:"nextRunAt,omitempty"`
	LastRunDuration  string     `json:"lastRunDuration,omitempty"`
	LastError        string     `json:"lastError,omitempty"`
	RunsTotal        uint64     `json:"runsTotal"`
	TransitionsTotal uint64     `json:"transitionsTotal"`
	OverlapsSkipped  uint64     `json:"overlapsSkipped"`
	Healthy          bool       `json:"healthy"`
}

// ToSchedulerStatusResponse converts domain.SchedulerStatus to DTO.
func ToSchedulerStatusResponse(s domain.SchedulerStatus) SchedulerStatusResponse {
	resp := SchedulerStatusResponse{
		Running:          s.Running,
		InFlight:         s.InFlight,
		Interval:         s.Interval.String(),
		LastRunAt:        s.LastRunAt,
		LastSuccessAt:    s.LastSuccessAt,
		NextRunAt:        s.NextRunAt,
		LastError:        s.LastError,
		RunsTotal:        s.RunsTotal,
		TransitionsTotal: s.TransitionsTotal,
		OverlapsSkipped:  s.OverlapsSkipped,
		Healthy:          s.Healthy(),
	}
	if s.LastRunDuration > 0 {
		resp.LastRunDuration = s.LastRunDuration.String()
	}
	return resp
}

// LifecycleTransitionResponse defines one transition applied by a lifecycle pass.
type LifecycleTransitionResponse struct {
	CampaignID            string                `json:"campaignID"`
	FromStatus            domain.CampaignStatus `json:"fromStatus"`
	ToStatus              domain.CampaignStatus `json:"toStatus"`
	ParticipantsConfirmed int                   `json:"participantsConfirmed"`
	ParticipantsRefunded  int                   `json:"participantsRefunded"`
	OccurredAt            time.Time             `json:"occurredAt"`
}

// TriggerLifecycleResponse wraps the transitions applied by a manual trigger.
type TriggerLifecycleResponse struct {
	Transitions []LifecycleTransitionResponse `json:"transitions"`
	Count       int                           `json:"count"`
}

// ToTriggerLifecycleResponse converts a slice of domain.LifecycleTransition to DTO.
func ToTriggerLifecycleResponse(ts []domain.LifecycleTransition) TriggerLifecycleResponse {
	list := make([]LifecycleTransitionResponse, len(ts))
	for i, t := range ts {
		list[i] = LifecycleTransitionResponse{
			CampaignID:            t.CampaignID,
			FromStatus:            t.FromStatus,
			ToStatus:              t.ToStatus,
			ParticipantsConfirmed: t.ParticipantsConfirmed,
			ParticipantsRefunded:  t.ParticipantsRefunded,
			OccurredAt:            t.OccurredAt,
		}
	}
	return TriggerLifecycleResponse{Transitions: list, Count: len(list)}
}
