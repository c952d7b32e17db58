package repositories

import (
	"context"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
)

// AuditEventWriter defines the append operation for the audit trail.
type AuditEventWriter interface {
	// SaveAuditEvent appends an event and returns it with its store-assigned
	// sequence id. Events are never updated or deleted.
	SaveAuditEvent(ctx context.Context, event domain.AuditEvent) (*domain.AuditEvent, error)
}

// AuditEventReader defines read operations for the audit trail.
type AuditEventReader interface {
	// ListAuditEventsByCampaign retrieves a paginated list of a campaign's
	// events, newest first, using token-based pagination.
	ListAuditEventsByCampaign(ctx context.Context, campaignID string, limit int, nextToken *string) ([]domain.AuditEvent, *string, error)
}

// AuditRepositoryFacade combines the audit trail interfaces
type AuditRepositoryFacade interface {
	AuditEventWriter
	AuditEventReader
}
