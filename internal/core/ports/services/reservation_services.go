package services

import (
	"context"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
)

// SlotReservationSvc guards campaign capacity. Both operations are atomic
// check-and-update units: no concurrent caller can observe a stale
// filled_slots value between check and write, and filled_slots never exceeds
// total_slots, not even transiently.
type SlotReservationSvc interface {
	// Reserve increments filled_slots by slotCount if the campaign accepts
	// reservations and has the capacity, locking the campaign when it fills.
	// Fails with apperrors.ErrCampaignClosed or apperrors.ErrInsufficientSlots.
	Reserve(ctx context.Context, campaignID string, slotCount int, userID string) (*domain.Campaign, error)

	// Release decrements filled_slots by slotCount, floored at zero, reverting
	// a locked campaign to active when capacity reopens.
	Release(ctx context.Context, campaignID string, slotCount int, userID string) (*domain.Campaign, error)
}
