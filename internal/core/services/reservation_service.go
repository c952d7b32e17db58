package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/platform/metrics"
)

// reservationService implements the SlotReservationSvc interface
type reservationService struct {
	BaseService
	campaignRepo portsrepo.CampaignRepositoryFacade
}

// NewReservationService creates a new slot reservation service
func NewReservationService(campaignRepo portsrepo.CampaignRepositoryFacade) portssvc.SlotReservationSvc {
	return &reservationService{
		campaignRepo: campaignRepo,
	}
}

// Ensure reservationService implements the SlotReservationSvc interface
var _ portssvc.SlotReservationSvc = (*reservationService)(nil)

// Reserve atomically claims slotCount slots on the campaign. The capacity
// check and the increment happen inside one repository transaction, so a
// concurrent caller can never overshoot total_slots.
func (s *reservationService) Reserve(ctx context.Context, campaignID string, slotCount int, userID string) (*domain.Campaign, error) {
	if slotCount <= 0 {
		return nil, fmt.Errorf("slot count must be positive, got %d: %w", slotCount, apperrors.ErrValidation)
	}

	campaign, err := s.campaignRepo.ReserveSlots(ctx, campaignID, slotCount, userID, time.Now())
	if err != nil {
		metrics.ReservationsTotal.WithLabelValues(reservationOutcome(err)).Inc()
		if !errors.Is(err, apperrors.ErrInsufficientSlots) && !errors.Is(err, apperrors.ErrCampaignClosed) {
			s.LogError(ctx, err, "Failed to reserve slots",
				slog.String("campaign_id", campaignID),
				slog.Int("slot_count", slotCount))
		}
		return nil, err
	}

	metrics.ReservationsTotal.WithLabelValues("reserved").Inc()
	s.LogInfo(ctx, "Slots reserved",
		slog.String("campaign_id", campaignID),
		slog.Int("slot_count", slotCount),
		slog.Int("filled_slots", campaign.FilledSlots),
		slog.String("status", string(campaign.Status)))
	return campaign, nil
}

// Release atomically returns slotCount slots to the campaign, floored at
// zero occupied. A locked campaign whose capacity reopens reverts to active.
func (s *reservationService) Release(ctx context.Context, campaignID string, slotCount int, userID string) (*domain.Campaign, error) {
	if slotCount <= 0 {
		return nil, fmt.Errorf("slot count must be positive, got %d: %w", slotCount, apperrors.ErrValidation)
	}

	campaign, err := s.campaignRepo.ReleaseSlots(ctx, campaignID, slotCount, userID, time.Now())
	if err != nil {
		s.LogError(ctx, err, "Failed to release slots",
			slog.String("campaign_id", campaignID),
			slog.Int("slot_count", slotCount))
		return nil, err
	}

	s.LogInfo(ctx, "Slots released",
		slog.String("campaign_id", campaignID),
		slog.Int("slot_count", slotCount),
		slog.Int("filled_slots", campaign.FilledSlots),
		slog.String("status", string(campaign.Status)))
	return campaign, nil
}

func reservationOutcome(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInsufficientSlots):
		return "insufficient_slots"
	case errors.Is(err, apperrors.ErrCampaignClosed):
		return "campaign_closed"
	default:
		return "error"
	}
}
