package services

import (
	"context"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
)

// AuditSvcFacade records and serves the campaign audit trail. Events always
// carry the full metadata of the transition that produced them; there is no
// fallback that fabricates partial events.
type AuditSvcFacade interface {
	// RecordEvent appends one event to a campaign's trail. Failures are
	// logged by the implementation and surfaced to the caller, but callers
	// never roll back a committed transition because of them.
	RecordEvent(ctx context.Context, campaignID string, eventName string, metadata map[string]any, userID string) error

	// ListCampaignEvents retrieves a paginated slice of a campaign's trail,
	// newest first.
	ListCampaignEvents(ctx context.Context, campaignID string, limit int, nextToken *string) ([]domain.AuditEvent, *string, error)
}
