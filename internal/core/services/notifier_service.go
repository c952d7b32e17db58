package services

import (
	"context"
	"log/slog"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/utils"
)

// logNotifierService implements CampaignNotifierSvc by logging each
// notification and forwarding an analytics event per participant. A real
// delivery channel (email, push) would slot in behind the same interface.
type logNotifierService struct {
	BaseService
	posthogClient *utils.PosthogClientWrapper
}

// NewLogNotifierService creates the logging notifier. posthogClient may be
// the uninitialized wrapper; events are then dropped silently.
func NewLogNotifierService(posthogClient *utils.PosthogClientWrapper) portssvc.CampaignNotifierSvc {
	return &logNotifierService{
		posthogClient: posthogClient,
	}
}

// Ensure logNotifierService implements the CampaignNotifierSvc interface
var _ portssvc.CampaignNotifierSvc = (*logNotifierService)(nil)

func (s *logNotifierService) NotifyFulfilled(ctx context.Context, campaign domain.Campaign, participants []domain.Participant) {
	s.notify(ctx, "campaign_fulfilled_notification", campaign, participants)
}

func (s *logNotifierService) NotifyExpired(ctx context.Context, campaign domain.Campaign, participants []domain.Participant) {
	s.notify(ctx, "campaign_expired_notification", campaign, participants)
}

func (s *logNotifierService) NotifyCancelled(ctx context.Context, campaign domain.Campaign, participants []domain.Participant) {
	s.notify(ctx, "campaign_cancelled_notification", campaign, participants)
}

func (s *logNotifierService) notify(ctx context.Context, event string, campaign domain.Campaign, participants []domain.Participant) {
	s.LogInfo(ctx, "Campaign notification",
		slog.String("event", event),
		slog.String("campaign_id", campaign.CampaignID),
		slog.String("title", campaign.Title),
		slog.String("status", string(campaign.Status)),
		slog.Int("participant_count", len(participants)))

	if s.posthogClient == nil {
		return
	}
	for _, p := range participants {
		s.posthogClient.Enqueue(p.BuyerID, event, map[string]any{
			"campaign_id":    campaign.CampaignID,
			"campaign_title": campaign.Title,
			"participant_id": p.ParticipantID,
			"slot_count":     p.SlotCount,
			"status":         string(p.Status),
		})
	}
}
