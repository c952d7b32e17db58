package domain

import "time"

// Audit event names. One event is emitted per state transition, carrying
// enough metadata to reconstruct history without re-querying current state.
const (
	EventCampaignCreated      = "campaign_created"
	EventCampaignActivated    = "campaign_activated"
	EventCampaignLocked       = "campaign_locked"
	EventCampaignUnlocked     = "campaign_unlocked"
	EventCampaignCompleted    = "campaign_completed"
	EventCampaignFailed       = "campaign_failed"
	EventCampaignCancelled    = "campaign_cancelled"
	EventSlotReserved         = "slot_reserved"
	EventSlotReleased         = "slot_released"
	EventParticipantJoined    = "participant_joined"
	EventParticipantConfirmed = "participant_confirmed"
	EventParticipantCancelled = "participant_cancelled"
	EventParticipantRefunded  = "participant_refunded"
	EventFundsHeld            = "funds_held"
	EventFundsReleased        = "funds_released"
	EventFundsRefunded        = "funds_refunded"
)

// AuditEvent is one append-only row of the campaign audit trail. It is the
// source of truth for "what happened and when" independent of current entity
// state.
type AuditEvent struct {
	SequenceID int64          `json:"sequenceID"` // Store-assigned, monotonic per table
	CampaignID string         `json:"campaignID"`
	EventName  string         `json:"eventName"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"createdAt"`
	CreatedBy  string         `json:"createdBy"`
}
