package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
)

// auditService implements the AuditSvcFacade interface
type auditService struct {
	BaseService
	auditRepo portsrepo.AuditRepositoryFacade
}

// NewAuditService creates a new audit trail service
func NewAuditService(auditRepo portsrepo.AuditRepositoryFacade) portssvc.AuditSvcFacade {
	return &auditService{
		auditRepo: auditRepo,
	}
}

// Ensure auditService implements the AuditSvcFacade interface
var _ portssvc.AuditSvcFacade = (*auditService)(nil)

// RecordEvent appends one event to the campaign's trail. Callers run this
// after their own transaction commits; a failure here is logged and returned
// but must never unwind the transition that produced the event.
func (s *auditService) RecordEvent(ctx context.Context, campaignID string, eventName string, metadata map[string]any, userID string) error {
	event := domain.AuditEvent{
		CampaignID: campaignID,
		EventName:  eventName,
		Metadata:   metadata,
		CreatedAt:  time.Now(),
		CreatedBy:  userID,
	}

	saved, err := s.auditRepo.SaveAuditEvent(ctx, event)
	if err != nil {
		s.LogError(ctx, err, "Failed to record audit event",
			slog.String("campaign_id", campaignID),
			slog.String("event_name", eventName))
		return err
	}

	s.LogDebug(ctx, "Audit event recorded",
		slog.Int64("sequence_id", saved.SequenceID),
		slog.String("campaign_id", campaignID),
		slog.String("event_name", eventName))
	return nil
}

func (s *auditService) ListCampaignEvents(ctx context.Context, campaignID string, limit int, nextToken *string) ([]domain.AuditEvent, *string, error) {
	events, newNextToken, err := s.auditRepo.ListAuditEventsByCampaign(ctx, campaignID, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list audit events",
			slog.String("campaign_id", campaignID))
		return nil, nil, err
	}
	return events, newNextToken, nil
}
