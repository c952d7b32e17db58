package repositories

import (
	"context"
	"time"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
)

// CampaignReader defines read operations for campaign data
type CampaignReader interface {
	// FindCampaignByID retrieves a specific campaign by its unique identifier.
	FindCampaignByID(ctx context.Context, campaignID string) (*domain.Campaign, error)

	// ListCampaigns retrieves a paginated list of campaigns, optionally filtered
	// by status, using token-based pagination. It returns the campaigns, a token
	// for the next page, and an error.
	ListCampaigns(ctx context.Context, statuses []domain.CampaignStatus, limit int, nextToken *string) ([]domain.Campaign, *string, error)

	// FindDueCampaigns retrieves campaigns the lifecycle pass must act on as of
	// the given instant: locked campaigns awaiting confirmation, scheduled
	// campaigns whose start has arrived, and scheduled/active campaigns whose
	// deadline has passed.
	FindDueCampaigns(ctx context.Context, asOf time.Time, limit int) ([]domain.Campaign, error)

	// GetCampaignProgress computes the read-only progress aggregate (slot counts,
	// percentage, participant count, total contribution).
	GetCampaignProgress(ctx context.Context, campaignID string) (*domain.CampaignProgress, error)
}

// CampaignWriter defines write operations for campaign data
type CampaignWriter interface {
	// SaveCampaign persists a new campaign.
	SaveCampaign(ctx context.Context, campaign domain.Campaign) error

	// ReserveSlots atomically increments filled_slots by slotCount after
	// verifying status and remaining capacity under a row lock, flipping the
	// campaign to LOCKED in the same atomic unit when it fills. Returns the
	// updated campaign. Fails with apperrors.ErrCampaignClosed or
	// apperrors.ErrInsufficientSlots.
	ReserveSlots(ctx context.Context, campaignID string, slotCount int, userID string, now time.Time) (*domain.Campaign, error)

	// ReleaseSlots atomically decrements filled_slots by slotCount, floored at
	// zero, reverting LOCKED to ACTIVE when capacity reopens. Returns the
	// updated campaign.
	ReleaseSlots(ctx context.Context, campaignID string, slotCount int, userID string, now time.Time) (*domain.Campaign, error)

	// TransitionCampaignStatus moves a campaign to the target status if its
	// current status is one of the expected ones, setting the status timestamp
	// (locked/fulfilled/cancelled) exactly once. The bool result is false when
	// the campaign was not in any expected status (the idempotent no-op case),
	// in which case the returned campaign reflects the untouched current row.
	TransitionCampaignStatus(ctx context.Context, campaignID string, from []domain.CampaignStatus, to domain.CampaignStatus, userID string, now time.Time) (*domain.Campaign, bool, error)
}

// ParticipantReader defines read operations for participant data
type ParticipantReader interface {
	// FindParticipantByID retrieves a specific participant by its unique identifier.
	FindParticipantByID(ctx context.Context, participantID string) (*domain.Participant, error)

	// FindParticipantByIdempotencyKey retrieves the participant created by a
	// previous join carrying the same client-supplied key, if any.
	FindParticipantByIdempotencyKey(ctx context.Context, campaignID, idempotencyKey string) (*domain.Participant, error)

	// ListParticipantsByCampaign retrieves all participants of a campaign.
	ListParticipantsByCampaign(ctx context.Context, campaignID string) ([]domain.Participant, error)

	// ListParticipantsByStatuses retrieves the campaign's participants currently
	// in one of the given statuses.
	ListParticipantsByStatuses(ctx context.Context, campaignID string, statuses []domain.ParticipantStatus) ([]domain.Participant, error)
}

// ParticipantWriter defines write operations for participant data
type ParticipantWriter interface {
	// SaveParticipant persists a new participant. A duplicate idempotency key
	// fails with apperrors.ErrDuplicate.
	SaveParticipant(ctx context.Context, participant domain.Participant) error

	// UpdateParticipantStatus moves a participant to the target status if its
	// current status is one of the expected ones. The bool result is false for
	// the idempotent no-op case.
	UpdateParticipantStatus(ctx context.Context, participantID string, from []domain.ParticipantStatus, to domain.ParticipantStatus, userID string, now time.Time) (bool, error)
}

// CampaignRepositoryFacade combines all campaign-related repository interfaces
// This is a facade for clients that need access to all operations
type CampaignRepositoryFacade interface {
	CampaignReader
	CampaignWriter
	ParticipantReader
	ParticipantWriter
}

// CampaignRepositoryWithTx extends CampaignRepositoryFacade with transaction capabilities
type CampaignRepositoryWithTx interface {
	CampaignRepositoryFacade
	TransactionManager
}
