package services

import (
	"context"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
	"github.com/groupcart/groupcart_backend/internal/dto"
)

// CampaignReaderSvc defines read operations for campaign data
type CampaignReaderSvc interface {
	// GetCampaign retrieves a specific campaign by its unique identifier.
	GetCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error)

	// GetCampaignProgress retrieves the read-only progress aggregate for a
	// campaign: slot counts, percentage, participant count, total contribution.
	GetCampaignProgress(ctx context.Context, campaignID string) (*domain.CampaignProgress, error)

	// ListCampaigns retrieves a paginated list of campaigns, optionally
	// filtered by status.
	ListCampaigns(ctx context.Context, statuses []domain.CampaignStatus, limit int, nextToken *string) ([]domain.Campaign, *string, error)

	// GetParticipant retrieves a specific participant.
	GetParticipant(ctx context.Context, participantID string) (*domain.Participant, error)

	// ListParticipants retrieves all participants of a campaign.
	ListParticipants(ctx context.Context, campaignID string) ([]domain.Participant, error)
}

// CampaignAdminSvc defines seller/administrative campaign operations
type CampaignAdminSvc interface {
	// CreateCampaign persists a new draft campaign. Price and product metadata
	// are snapshots supplied by the caller.
	CreateCampaign(ctx context.Context, req dto.CreateCampaignRequest, creatorUserID string) (*domain.Campaign, error)

	// ActivateCampaign moves a draft campaign to ACTIVE, or to SCHEDULED when
	// its start time lies in the future. Guards: future deadline, capacity > 0.
	ActivateCampaign(ctx context.Context, campaignID string, userID string) (*domain.Campaign, error)

	// CancelCampaign cancels a non-terminal campaign, refunding every held
	// contribution. Cancelling an already-cancelled campaign is a no-op.
	CancelCampaign(ctx context.Context, campaignID string, reason string, userID string) (*domain.Campaign, error)
}

// CampaignLifecycleSvc defines the compound customer-facing operations and
// the scheduler entry point. There is exactly one code path for every state
// transition: scheduler and administrative triggers both land here.
type CampaignLifecycleSvc interface {
	// JoinCampaign reserves slots, holds the buyer's contribution in escrow,
	// and creates the participant. If any step after the slot reservation
	// fails, the reservation is compensated before the error propagates. A
	// repeated idempotency key returns the previously created participant.
	JoinCampaign(ctx context.Context, campaignID string, req dto.JoinCampaignRequest, buyerID string) (*domain.Participant, error)

	// CancelParticipation releases the participant's slots, refunds the hold,
	// and marks the participant cancelled.
	CancelParticipation(ctx context.Context, participantID string, reason string, userID string) (*domain.Participant, error)

	// RunLifecycle drives every due campaign to its next state: scheduled
	// campaigns whose start arrived become active, locked campaigns are
	// confirmed fulfilled, past-deadline campaigns become fulfilled or
	// expired with the matching bulk confirmation/refund. Failures are
	// isolated per campaign. Returns the transitions applied.
	RunLifecycle(ctx context.Context) ([]domain.LifecycleTransition, error)
}

// CampaignSvcFacade combines all campaign-related service interfaces
// This is a facade for clients that need access to all operations
type CampaignSvcFacade interface {
	CampaignReaderSvc
	CampaignAdminSvc
	CampaignLifecycleSvc
}
