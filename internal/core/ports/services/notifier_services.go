package services

import (
	"context"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
)

// CampaignNotifierSvc delivers participant-facing notifications for campaign
// lifecycle outcomes. Delivery is best-effort: implementations must not block
// or fail the transition that triggered them.
type CampaignNotifierSvc interface {
	// NotifyFulfilled announces a successful campaign close to its participants.
	NotifyFulfilled(ctx context.Context, campaign domain.Campaign, participants []domain.Participant)

	// NotifyExpired announces that a campaign expired below its minimum and
	// that held funds were refunded.
	NotifyExpired(ctx context.Context, campaign domain.Campaign, participants []domain.Participant)

	// NotifyCancelled announces a seller-initiated cancellation.
	NotifyCancelled(ctx context.Context, campaign domain.Campaign, participants []domain.Participant)
}
