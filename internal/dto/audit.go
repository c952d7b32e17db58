package dto

import (
	"time"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
)

// --- Audit trail DTOs ---

// ListAuditEventsParams defines query parameters for listing a campaign's trail.
type ListAuditEventsParams struct {
	Limit     int     `form:"limit,default=50"`
	NextToken *string `form:"nextToken"`
}

// AuditEventResponse defines data returned for an audit trail event.
type AuditEventResponse struct {
	SequenceID int64          `json:"sequenceID"`
	CampaignID string         `json:"campaignID"`
	EventName  string         `json:"eventName"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"createdAt"`
	CreatedBy  string         `json:"createdBy"`
}

// ToAuditEventResponse converts domain.AuditEvent to DTO.
func ToAuditEventResponse(e *domain.AuditEvent) AuditEventResponse {
	return AuditEventResponse{
		SequenceID: e.SequenceID,
		CampaignID: e.CampaignID,
		EventName:  e.EventName,
		Metadata:   e.Metadata,
		CreatedAt:  e.CreatedAt,
		CreatedBy:  e.CreatedBy,
	}
}

// ListAuditEventsResponse wraps a paginated slice of a campaign's trail.
type ListAuditEventsResponse struct {
	Events    []AuditEventResponse `json:"events"`
	NextToken *string              `json:"nextToken,omitempty"`
}

// ToListAuditEventsResponse converts a slice of domain.AuditEvent to DTO.
func ToListAuditEventsResponse(es []domain.AuditEvent, nextToken *string) ListAuditEventsResponse {
	list := make([]AuditEventResponse, len(es))
	for i, e := range es {
		list[i] = ToAuditEventResponse(&e)
	}
	return ListAuditEventsResponse{Events: list, NextToken: nextToken}
}
