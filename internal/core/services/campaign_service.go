package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/dto"
	"github.com/groupcart/groupcart_backend/internal/platform/metrics"
	"github.com/shopspring/decimal"
)

// lifecycleBatchSize caps how many due campaigns a single pass processes.
const lifecycleBatchSize = 100

// systemActorID stamps mutations driven by the scheduler rather than a user.
const systemActorID = "system"

// campaignService implements the CampaignSvcFacade interface. It is the only
// code path for campaign state transitions: handlers and the scheduler both
// land here.
type campaignService struct {
	BaseService
	campaignRepo portsrepo.CampaignRepositoryFacade
	reservation  portssvc.SlotReservationSvc
	escrow       portssvc.EscrowSvcFacade
	audit        portssvc.AuditSvcFacade
	notifier     portssvc.CampaignNotifierSvc
	now          func() time.Time
}

// NewCampaignService creates a new campaign lifecycle service with the
// provided dependencies.
func NewCampaignService(
	campaignRepo portsrepo.CampaignRepositoryFacade,
	reservation portssvc.SlotReservationSvc,
	escrow portssvc.EscrowSvcFacade,
	audit portssvc.AuditSvcFacade,
	notifier portssvc.CampaignNotifierSvc,
) portssvc.CampaignSvcFacade {
	return &campaignService{
		campaignRepo: campaignRepo,
		reservation:  reservation,
		escrow:       escrow,
		audit:        audit,
		notifier:     notifier,
		now:          time.Now,
	}
}

// Ensure campaignService implements the CampaignSvcFacade interface
var _ portssvc.CampaignSvcFacade = (*campaignService)(nil)

// recordEvent appends an audit event. Failures are logged by the audit
// service and never unwind the transition that produced the event.
func (s *campaignService) recordEvent(ctx context.Context, campaignID, eventName string, metadata map[string]any, userID string) {
	_ = s.audit.RecordEvent(ctx, campaignID, eventName, metadata, userID)
}

// --- Reads ---

func (s *campaignService) GetCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	campaign, err := s.campaignRepo.FindCampaignByID(ctx, campaignID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find campaign", slog.String("campaign_id", campaignID))
		}
		return nil, err
	}
	return campaign, nil
}

func (s *campaignService) GetCampaignProgress(ctx context.Context, campaignID string) (*domain.CampaignProgress, error) {
	progress, err := s.campaignRepo.GetCampaignProgress(ctx, campaignID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to compute campaign progress", slog.String("campaign_id", campaignID))
		}
		return nil, err
	}
	return progress, nil
}

func (s *campaignService) ListCampaigns(ctx context.Context, statuses []domain.CampaignStatus, limit int, nextToken *string) ([]domain.Campaign, *string, error) {
	campaigns, newNextToken, err := s.campaignRepo.ListCampaigns(ctx, statuses, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list campaigns")
		return nil, nil, err
	}
	return campaigns, newNextToken, nil
}

func (s *campaignService) GetParticipant(ctx context.Context, participantID string) (*domain.Participant, error) {
	participant, err := s.campaignRepo.FindParticipantByID(ctx, participantID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find participant", slog.String("participant_id", participantID))
		}
		return nil, err
	}
	return participant, nil
}

func (s *campaignService) ListParticipants(ctx context.Context, campaignID string) ([]domain.Participant, error) {
	participants, err := s.campaignRepo.ListParticipantsByCampaign(ctx, campaignID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list participants", slog.String("campaign_id", campaignID))
		return nil, err
	}
	return participants, nil
}

// --- Seller/administrative operations ---

// CreateCampaign persists a new draft campaign. Price and product metadata
// are snapshots supplied by the caller; later catalog changes never affect an
// existing campaign.
func (s *campaignService) CreateCampaign(ctx context.Context, req dto.CreateCampaignRequest, creatorUserID string) (*domain.Campaign, error) {
	if !req.PricePerSlot.IsPositive() {
		return nil, fmt.Errorf("price per slot must be positive, got %s: %w", req.PricePerSlot.String(), apperrors.ErrValidation)
	}
	if req.TotalSlots <= 0 {
		return nil, fmt.Errorf("total slots must be positive, got %d: %w", req.TotalSlots, apperrors.ErrValidation)
	}

	now := s.now()
	if !req.Deadline.After(now) {
		return nil, fmt.Errorf("deadline %s must be in the future: %w", req.Deadline.Format(time.RFC3339), apperrors.ErrValidation)
	}
	if req.StartsAt != nil && !req.StartsAt.Before(req.Deadline) {
		return nil, fmt.Errorf("start %s must precede the deadline: %w", req.StartsAt.Format(time.RFC3339), apperrors.ErrValidation)
	}

	campaign := domain.Campaign{
		CampaignID:      uuid.NewString(),
		SellerID:        creatorUserID,
		ProductID:       req.ProductID,
		Title:           req.Title,
		PricePerSlot:    req.PricePerSlot,
		CurrencyCode:    strings.ToUpper(req.CurrencyCode),
		TotalSlots:      req.TotalSlots,
		FilledSlots:     0,
		ProgressPercent: decimal.Zero,
		Status:          domain.CampaignDraft,
		StartsAt:        req.StartsAt,
		Deadline:        req.Deadline,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
			Version:       1,
		},
	}

	if err := s.campaignRepo.SaveCampaign(ctx, campaign); err != nil {
		s.LogError(ctx, err, "Failed to save campaign", slog.String("campaign_id", campaign.CampaignID))
		return nil, err
	}

	s.recordEvent(ctx, campaign.CampaignID, domain.EventCampaignCreated, map[string]any{
		"title":          campaign.Title,
		"product_id":     campaign.ProductID,
		"price_per_slot": campaign.PricePerSlot.String(),
		"currency_code":  campaign.CurrencyCode,
		"total_slots":    campaign.TotalSlots,
		"deadline":       campaign.Deadline.Format(time.RFC3339),
	}, creatorUserID)

	s.LogInfo(ctx, "Campaign created",
		slog.String("campaign_id", campaign.CampaignID),
		slog.String("seller_id", creatorUserID),
		slog.Int("total_slots", campaign.TotalSlots))
	return &campaign, nil
}

// ActivateCampaign moves a draft campaign to ACTIVE, or to SCHEDULED when its
// start lies in the future. Re-activating a campaign already in the target
// status is a no-op.
func (s *campaignService) ActivateCampaign(ctx context.Context, campaignID string, userID string) (*domain.Campaign, error) {
	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.SellerID != userID {
		return nil, fmt.Errorf("user %s is not the seller of campaign %s: %w", userID, campaignID, apperrors.ErrForbidden)
	}

	now := s.now()
	target := domain.CampaignActive
	if campaign.StartsAt != nil && campaign.StartsAt.After(now) {
		target = domain.CampaignScheduled
	}
	if campaign.Status == target {
		return campaign, nil
	}

	if err := campaign.ValidateForActivation(now); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), apperrors.ErrValidation)
	}

	updated, applied, err := s.campaignRepo.TransitionCampaignStatus(ctx, campaignID, []domain.CampaignStatus{domain.CampaignDraft}, target, userID, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to activate campaign", slog.String("campaign_id", campaignID))
		return nil, err
	}
	if !applied {
		if updated.Status == target {
			return updated, nil
		}
		return nil, fmt.Errorf("campaign %s is %s, only draft campaigns can be activated: %w", campaignID, updated.Status, apperrors.ErrConflict)
	}

	metrics.LifecycleTransitionsTotal.WithLabelValues(string(target)).Inc()
	s.recordEvent(ctx, campaignID, domain.EventCampaignActivated, map[string]any{
		"from":     string(domain.CampaignDraft),
		"to":       string(target),
		"deadline": updated.Deadline.Format(time.RFC3339),
		"trigger":  "seller",
	}, userID)

	s.LogInfo(ctx, "Campaign activated",
		slog.String("campaign_id", campaignID),
		slog.String("status", string(updated.Status)))
	return updated, nil
}

// CancelCampaign cancels a non-terminal campaign and refunds every held
// contribution. Cancelling an already-cancelled campaign is a no-op.
func (s *campaignService) CancelCampaign(ctx context.Context, campaignID string, reason string, userID string) (*domain.Campaign, error) {
	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.SellerID != userID {
		return nil, fmt.Errorf("user %s is not the seller of campaign %s: %w", userID, campaignID, apperrors.ErrForbidden)
	}
	if campaign.Status == domain.CampaignCancelled {
		return campaign, nil
	}
	if campaign.Status.IsTerminal() {
		return nil, fmt.Errorf("campaign %s is %s and cannot be cancelled: %w", campaignID, campaign.Status, apperrors.ErrConflict)
	}

	nonTerminal := []domain.CampaignStatus{domain.CampaignDraft, domain.CampaignScheduled, domain.CampaignActive, domain.CampaignLocked}
	updated, applied, err := s.campaignRepo.TransitionCampaignStatus(ctx, campaignID, nonTerminal, domain.CampaignCancelled, userID, s.now())
	if err != nil {
		s.LogError(ctx, err, "Failed to cancel campaign", slog.String("campaign_id", campaignID))
		return nil, err
	}
	if !applied {
		if updated.Status == domain.CampaignCancelled {
			return updated, nil
		}
		return nil, fmt.Errorf("campaign %s is %s and cannot be cancelled: %w", campaignID, updated.Status, apperrors.ErrConflict)
	}

	metrics.LifecycleTransitionsTotal.WithLabelValues(string(domain.CampaignCancelled)).Inc()
	refunded, participants := s.refundHeldParticipants(ctx, campaignID, "campaign cancelled: "+reason, userID)

	s.recordEvent(ctx, campaignID, domain.EventCampaignCancelled, map[string]any{
		"reason":                reason,
		"participants_refunded": refunded,
		"filled_slots":          updated.FilledSlots,
	}, userID)
	s.notifier.NotifyCancelled(ctx, *updated, participants)

	s.LogInfo(ctx, "Campaign cancelled",
		slog.String("campaign_id", campaignID),
		slog.String("reason", reason),
		slog.Int("participants_refunded", refunded))
	return updated, nil
}

// refundHeldParticipants refunds the holds of every participant still
// counting toward the campaign and flips them to REFUNDED. Failures are
// isolated per participant so one bad hold cannot stall the batch.
func (s *campaignService) refundHeldParticipants(ctx context.Context, campaignID string, reason string, actorID string) (int, []domain.Participant) {
	held := []domain.ParticipantStatus{domain.ParticipantPendingPayment, domain.ParticipantConfirmed}
	participants, err := s.campaignRepo.ListParticipantsByStatuses(ctx, campaignID, held)
	if err != nil {
		s.LogError(ctx, err, "Failed to list participants for bulk refund", slog.String("campaign_id", campaignID))
		return 0, nil
	}

	refunded := 0
	for i := range participants {
		p := &participants[i]
		if _, err := s.escrow.RefundHold(ctx, p.HoldTransactionID, reason, actorID); err != nil {
			if errors.Is(err, apperrors.ErrInvalidHoldState) {
				s.LogWarn(ctx, "Hold already settled, skipping refund",
					slog.String("participant_id", p.ParticipantID),
					slog.String("transaction_id", p.HoldTransactionID))
			} else {
				s.LogError(ctx, err, "Failed to refund participant hold, continuing with remaining participants",
					slog.String("participant_id", p.ParticipantID),
					slog.String("transaction_id", p.HoldTransactionID))
			}
			continue
		}

		applied, err := s.campaignRepo.UpdateParticipantStatus(ctx, p.ParticipantID, held, domain.ParticipantRefunded, actorID, s.now())
		if err != nil {
			s.LogError(ctx, err, "Failed to mark participant refunded",
				slog.String("participant_id", p.ParticipantID))
			continue
		}
		if applied {
			p.Status = domain.ParticipantRefunded
			refunded++
		}
		s.recordEvent(ctx, campaignID, domain.EventParticipantRefunded, map[string]any{
			"participant_id":      p.ParticipantID,
			"hold_transaction_id": p.HoldTransactionID,
			"amount":              p.ContributionAmount.String(),
			"reason":              reason,
		}, actorID)
	}
	return refunded, participants
}

// --- Compound customer-facing operations ---

// JoinCampaign reserves slots, escrows the contribution, and creates the
// participant. There is no two-phase commit across the campaign and ledger
// stores, so any failure after the reservation triggers explicit
// compensation before the error propagates.
func (s *campaignService) JoinCampaign(ctx context.Context, campaignID string, req dto.JoinCampaignRequest, buyerID string) (*domain.Participant, error) {
	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		existing, err := s.campaignRepo.FindParticipantByIdempotencyKey(ctx, campaignID, *req.IdempotencyKey)
		if err == nil {
			s.LogInfo(ctx, "Join replayed with known idempotency key, returning existing participant",
				slog.String("campaign_id", campaignID),
				slog.String("participant_id", existing.ParticipantID))
			return existing, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	wallet, err := s.escrow.GetWalletByActor(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if wallet.CurrencyCode != campaign.CurrencyCode {
		return nil, fmt.Errorf("wallet currency %s does not match campaign currency %s: %w",
			wallet.CurrencyCode, campaign.CurrencyCode, apperrors.ErrValidation)
	}

	contribution := campaign.PricePerSlot.Mul(decimal.NewFromInt(int64(req.SlotCount)))

	reserved, err := s.reservation.Reserve(ctx, campaignID, req.SlotCount, buyerID)
	if err != nil {
		return nil, err
	}

	participantID := uuid.NewString()
	description := fmt.Sprintf("escrow hold for %d slot(s) in campaign %q", req.SlotCount, campaign.Title)
	hold, err := s.escrow.HoldFunds(ctx, wallet.WalletID, contribution,
		domain.EntryReference{Type: domain.RefParticipant, ID: participantID}, description, buyerID)
	if err != nil {
		s.compensateReservation(ctx, campaignID, req.SlotCount, buyerID)
		return nil, err
	}

	now := s.now()
	participant := domain.Participant{
		ParticipantID:      participantID,
		CampaignID:         campaignID,
		BuyerID:            buyerID,
		SlotCount:          req.SlotCount,
		ContributionAmount: contribution,
		CurrencyCode:       campaign.CurrencyCode,
		Status:             domain.ParticipantPendingPayment,
		ShippingReference:  req.ShippingReference,
		HoldTransactionID:  hold.TransactionID,
		IdempotencyKey:     req.IdempotencyKey,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     buyerID,
			LastUpdatedAt: now,
			LastUpdatedBy: buyerID,
			Version:       1,
		},
	}

	if err := s.campaignRepo.SaveParticipant(ctx, participant); err != nil {
		s.compensateJoin(ctx, campaignID, req.SlotCount, hold.TransactionID, buyerID)
		if errors.Is(err, apperrors.ErrDuplicate) && req.IdempotencyKey != nil {
			// Lost the insert race to a concurrent retry: our reservation and
			// hold are unwound above, and the winner row is the answer.
			winner, werr := s.campaignRepo.FindParticipantByIdempotencyKey(ctx, campaignID, *req.IdempotencyKey)
			if werr == nil {
				return winner, nil
			}
		}
		return nil, err
	}

	s.recordEvent(ctx, campaignID, domain.EventParticipantJoined, map[string]any{
		"participant_id":      participantID,
		"buyer_id":            buyerID,
		"slot_count":          req.SlotCount,
		"contribution":        contribution.String(),
		"hold_transaction_id": hold.TransactionID,
		"filled_slots":        reserved.FilledSlots,
	}, buyerID)
	if reserved.Status == domain.CampaignLocked {
		metrics.LifecycleTransitionsTotal.WithLabelValues(string(domain.CampaignLocked)).Inc()
		s.recordEvent(ctx, campaignID, domain.EventCampaignLocked, map[string]any{
			"filled_slots": reserved.FilledSlots,
			"total_slots":  reserved.TotalSlots,
		}, buyerID)
	}

	s.LogInfo(ctx, "Participant joined campaign",
		slog.String("campaign_id", campaignID),
		slog.String("participant_id", participantID),
		slog.Int("slot_count", req.SlotCount),
		slog.String("contribution", contribution.String()))
	return &participant, nil
}

// compensateReservation releases slots reserved by a join whose later steps
// failed. A failure here leaves a stuck reservation and is logged loudly for
// operator attention; it is never silently swallowed into the join error.
func (s *campaignService) compensateReservation(ctx context.Context, campaignID string, slotCount int, buyerID string) {
	if _, err := s.reservation.Release(ctx, campaignID, slotCount, buyerID); err != nil {
		s.LogError(ctx, err, "COMPENSATION FAILED: reserved slots were not released, stuck reservation requires operator attention",
			slog.String("campaign_id", campaignID),
			slog.Int("slot_count", slotCount),
			slog.String("buyer_id", buyerID))
	}
}

// compensateJoin unwinds both halves of a failed join: the escrow hold and
// the slot reservation.
func (s *campaignService) compensateJoin(ctx context.Context, campaignID string, slotCount int, holdTransactionID string, buyerID string) {
	if _, err := s.escrow.RefundHold(ctx, holdTransactionID, "join compensation", buyerID); err != nil && !errors.Is(err, apperrors.ErrInvalidHoldState) {
		s.LogError(ctx, err, "COMPENSATION FAILED: escrow hold was not refunded, stuck hold requires operator attention",
			slog.String("campaign_id", campaignID),
			slog.String("transaction_id", holdTransactionID))
	}
	s.compensateReservation(ctx, campaignID, slotCount, buyerID)
}

// CancelParticipation refunds the participant's hold, marks them cancelled,
// and releases their slots. The hold settlement goes first: its at-most-once
// state machine arbitrates races against a concurrent settlement or a
// duplicate cancel, neither of which may double-move money or slots.
func (s *campaignService) CancelParticipation(ctx context.Context, participantID string, reason string, userID string) (*domain.Participant, error) {
	participant, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if participant.Status == domain.ParticipantCancelled || participant.Status == domain.ParticipantRefunded {
		return participant, nil
	}

	campaign, err := s.GetCampaign(ctx, participant.CampaignID)
	if err != nil {
		return nil, err
	}
	if userID != participant.BuyerID && userID != campaign.SellerID {
		return nil, fmt.Errorf("user %s may not cancel participation %s: %w", userID, participantID, apperrors.ErrForbidden)
	}
	if participant.Status == domain.ParticipantFulfilled || campaign.Status == domain.CampaignFulfilled {
		return nil, fmt.Errorf("participation %s is already fulfilled: %w", participantID, apperrors.ErrConflict)
	}

	if _, err := s.escrow.RefundHold(ctx, participant.HoldTransactionID, reason, userID); err != nil {
		if errors.Is(err, apperrors.ErrInvalidHoldState) {
			// Someone settled the hold first. Re-read for the idempotent answer.
			latest, lerr := s.campaignRepo.FindParticipantByID(ctx, participantID)
			if lerr == nil && (latest.Status == domain.ParticipantCancelled || latest.Status == domain.ParticipantRefunded) {
				return latest, nil
			}
			return nil, fmt.Errorf("participation %s was already settled: %w", participantID, apperrors.ErrConflict)
		}
		return nil, err
	}

	held := []domain.ParticipantStatus{domain.ParticipantPendingPayment, domain.ParticipantConfirmed}
	if _, err := s.campaignRepo.UpdateParticipantStatus(ctx, participantID, held, domain.ParticipantCancelled, userID, s.now()); err != nil {
		s.LogError(ctx, err, "Hold refunded but participant status update failed",
			slog.String("participant_id", participantID))
		return nil, err
	}

	// Terminal campaigns keep their slot counts frozen; everything live gets
	// the capacity back.
	if !campaign.Status.IsTerminal() {
		if _, err := s.reservation.Release(ctx, participant.CampaignID, participant.SlotCount, userID); err != nil {
			s.LogError(ctx, err, "COMPENSATION FAILED: slots were not released after refund, stuck occupancy requires operator attention",
				slog.String("campaign_id", participant.CampaignID),
				slog.String("participant_id", participantID),
				slog.Int("slot_count", participant.SlotCount))
		}
	}

	s.recordEvent(ctx, participant.CampaignID, domain.EventParticipantCancelled, map[string]any{
		"participant_id":      participantID,
		"reason":              reason,
		"slot_count":          participant.SlotCount,
		"hold_transaction_id": participant.HoldTransactionID,
		"refunded":            participant.ContributionAmount.String(),
	}, userID)

	s.LogInfo(ctx, "Participation cancelled",
		slog.String("participant_id", participantID),
		slog.String("campaign_id", participant.CampaignID),
		slog.String("reason", reason))

	latest, err := s.campaignRepo.FindParticipantByID(ctx, participantID)
	if err != nil {
		participant.Status = domain.ParticipantCancelled
		return participant, nil
	}
	return latest, nil
}

// --- Lifecycle pass ---

// RunLifecycle drives every due campaign one step forward: scheduled
// campaigns whose start arrived become active, locked campaigns are settled
// and confirmed, past-deadline campaigns fulfill or expire. A failure on one
// campaign never aborts the rest of the batch.
func (s *campaignService) RunLifecycle(ctx context.Context) ([]domain.LifecycleTransition, error) {
	now := s.now()
	due, err := s.campaignRepo.FindDueCampaigns(ctx, now, lifecycleBatchSize)
	if err != nil {
		s.LogError(ctx, err, "Failed to find due campaigns")
		return nil, err
	}

	transitions := make([]domain.LifecycleTransition, 0, len(due))
	for i := range due {
		campaign := due[i]
		transition, err := s.lifecycleStep(ctx, &campaign, now)
		if err != nil {
			s.LogError(ctx, err, "Lifecycle step failed, continuing with remaining campaigns",
				slog.String("campaign_id", campaign.CampaignID),
				slog.String("status", string(campaign.Status)))
			continue
		}
		if transition != nil {
			transitions = append(transitions, *transition)
		}
	}

	if len(transitions) > 0 {
		s.LogInfo(ctx, "Lifecycle pass applied transitions", slog.Int("count", len(transitions)))
	}
	return transitions, nil
}

// lifecycleStep decides and applies the single due transition for one
// campaign. A nil transition with nil error means the campaign turned out
// not to be due (typically a benign race with a concurrent mutation).
func (s *campaignService) lifecycleStep(ctx context.Context, c *domain.Campaign, now time.Time) (*domain.LifecycleTransition, error) {
	switch {
	case c.Status == domain.CampaignScheduled && c.StartsAt != nil && !c.StartsAt.After(now) && c.Deadline.After(now):
		return s.promoteScheduled(ctx, c, now)
	case c.Status == domain.CampaignLocked:
		return s.fulfillCampaign(ctx, c, now)
	case !c.Deadline.After(now):
		if c.FilledSlots >= c.TotalSlots {
			return s.fulfillCampaign(ctx, c, now)
		}
		return s.expireCampaign(ctx, c, now)
	}
	return nil, nil
}

// promoteScheduled moves a scheduled campaign whose start has arrived to
// ACTIVE.
func (s *campaignService) promoteScheduled(ctx context.Context, c *domain.Campaign, now time.Time) (*domain.LifecycleTransition, error) {
	updated, applied, err := s.campaignRepo.TransitionCampaignStatus(ctx, c.CampaignID,
		[]domain.CampaignStatus{domain.CampaignScheduled}, domain.CampaignActive, systemActorID, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, nil
	}

	metrics.LifecycleTransitionsTotal.WithLabelValues(string(domain.CampaignActive)).Inc()
	s.recordEvent(ctx, c.CampaignID, domain.EventCampaignActivated, map[string]any{
		"from":    string(domain.CampaignScheduled),
		"to":      string(domain.CampaignActive),
		"trigger": "scheduler",
	}, systemActorID)

	s.LogInfo(ctx, "Scheduled campaign promoted to active",
		slog.String("campaign_id", updated.CampaignID))
	return &domain.LifecycleTransition{
		CampaignID: c.CampaignID,
		FromStatus: domain.CampaignScheduled,
		ToStatus:   domain.CampaignActive,
		OccurredAt: now,
	}, nil
}

// fulfillCampaign settles every held contribution to the seller and then
// flips the campaign to FULFILLED. Settlement runs before the status flip so
// a crash mid-way leaves the campaign in the due set and the next pass
// retries; already-settled holds fail fast and are skipped.
func (s *campaignService) fulfillCampaign(ctx context.Context, c *domain.Campaign, now time.Time) (*domain.LifecycleTransition, error) {
	fromStatus := c.Status

	sellerWallet, err := s.escrow.GetWalletByActor(ctx, c.SellerID)
	if err != nil {
		return nil, fmt.Errorf("seller wallet for campaign %s: %w", c.CampaignID, err)
	}

	held := []domain.ParticipantStatus{domain.ParticipantPendingPayment, domain.ParticipantConfirmed}
	participants, err := s.campaignRepo.ListParticipantsByStatuses(ctx, c.CampaignID, held)
	if err != nil {
		return nil, err
	}

	confirmed := 0
	netTotal := decimal.Zero
	feeTotal := decimal.Zero
	for i := range participants {
		p := &participants[i]
		release, err := s.escrow.ReleaseHold(ctx, p.HoldTransactionID, sellerWallet.WalletID, systemActorID)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidHoldState) {
				// A previous pass already released it, or the buyer's refund
				// won. The hold's terminal state decides whether this
				// participant still confirms.
				if n, ok := s.confirmIfReleased(ctx, p, now); ok {
					confirmed += n
				}
				continue
			}
			s.LogError(ctx, err, "Failed to release hold to seller, continuing with remaining participants",
				slog.String("participant_id", p.ParticipantID),
				slog.String("transaction_id", p.HoldTransactionID))
			continue
		}

		applied, err := s.campaignRepo.UpdateParticipantStatus(ctx, p.ParticipantID, held, domain.ParticipantConfirmed, systemActorID, now)
		if err != nil {
			s.LogError(ctx, err, "Hold released but participant confirmation failed",
				slog.String("participant_id", p.ParticipantID))
		}
		if applied {
			p.Status = domain.ParticipantConfirmed
			confirmed++
		}
		netTotal = netTotal.Add(release.NetAmount)
		feeTotal = feeTotal.Add(release.FeeAmount)
		s.recordEvent(ctx, c.CampaignID, domain.EventParticipantConfirmed, map[string]any{
			"participant_id":      p.ParticipantID,
			"hold_transaction_id": p.HoldTransactionID,
			"gross":               release.GrossAmount.String(),
			"net":                 release.NetAmount.String(),
			"fee":                 release.FeeAmount.String(),
		}, systemActorID)
	}

	updated, applied, err := s.campaignRepo.TransitionCampaignStatus(ctx, c.CampaignID,
		[]domain.CampaignStatus{fromStatus}, domain.CampaignFulfilled, systemActorID, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		s.LogWarn(ctx, "Campaign left its settling status during fulfillment, will retry next pass",
			slog.String("campaign_id", c.CampaignID),
			slog.String("status", string(updated.Status)))
		return nil, nil
	}

	metrics.LifecycleTransitionsTotal.WithLabelValues(string(domain.CampaignFulfilled)).Inc()
	s.recordEvent(ctx, c.CampaignID, domain.EventCampaignCompleted, map[string]any{
		"from":                   string(fromStatus),
		"participants_confirmed": confirmed,
		"filled_slots":           updated.FilledSlots,
		"total_slots":            updated.TotalSlots,
		"net_to_seller":          netTotal.String(),
		"fee_revenue":            feeTotal.String(),
	}, systemActorID)
	s.notifier.NotifyFulfilled(ctx, *updated, participants)

	s.LogInfo(ctx, "Campaign fulfilled",
		slog.String("campaign_id", c.CampaignID),
		slog.Int("participants_confirmed", confirmed),
		slog.String("net_to_seller", netTotal.String()),
		slog.String("fee_revenue", feeTotal.String()))
	return &domain.LifecycleTransition{
		CampaignID:            c.CampaignID,
		FromStatus:            fromStatus,
		ToStatus:              domain.CampaignFulfilled,
		ParticipantsConfirmed: confirmed,
		OccurredAt:            now,
	}, nil
}

// confirmIfReleased handles the already-settled hold during fulfillment: a
// RELEASED hold means a previous pass moved the money and only the
// participant flip may be missing; a REFUNDED hold means the buyer won a
// cancel race and the participant is theirs to keep cancelled.
func (s *campaignService) confirmIfReleased(ctx context.Context, p *domain.Participant, now time.Time) (int, bool) {
	hold, err := s.escrow.GetLedgerEntry(ctx, p.HoldTransactionID)
	if err != nil {
		s.LogError(ctx, err, "Failed to read settled hold during fulfillment",
			slog.String("transaction_id", p.HoldTransactionID))
		return 0, false
	}
	if hold.Status != domain.EntryReleased {
		return 0, false
	}
	held := []domain.ParticipantStatus{domain.ParticipantPendingPayment}
	applied, err := s.campaignRepo.UpdateParticipantStatus(ctx, p.ParticipantID, held, domain.ParticipantConfirmed, systemActorID, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to confirm participant with released hold",
			slog.String("participant_id", p.ParticipantID))
		return 0, false
	}
	if applied {
		p.Status = domain.ParticipantConfirmed
		return 1, true
	}
	return 0, true
}

// expireCampaign refunds every held contribution and then flips the campaign
// to EXPIRED. Refunds run before the flip for the same crash-retry reason as
// fulfillment.
func (s *campaignService) expireCampaign(ctx context.Context, c *domain.Campaign, now time.Time) (*domain.LifecycleTransition, error) {
	fromStatus := c.Status

	refunded, participants := s.refundHeldParticipants(ctx, c.CampaignID, "campaign expired below capacity", systemActorID)

	updated, applied, err := s.campaignRepo.TransitionCampaignStatus(ctx, c.CampaignID,
		[]domain.CampaignStatus{fromStatus}, domain.CampaignExpired, systemActorID, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		s.LogWarn(ctx, "Campaign left its status during expiry, will retry next pass",
			slog.String("campaign_id", c.CampaignID),
			slog.String("status", string(updated.Status)))
		return nil, nil
	}

	metrics.LifecycleTransitionsTotal.WithLabelValues(string(domain.CampaignExpired)).Inc()
	s.recordEvent(ctx, c.CampaignID, domain.EventCampaignFailed, map[string]any{
		"from":                  string(fromStatus),
		"participants_refunded": refunded,
		"filled_slots":          updated.FilledSlots,
		"total_slots":           updated.TotalSlots,
	}, systemActorID)
	s.notifier.NotifyExpired(ctx, *updated, participants)

	s.LogInfo(ctx, "Campaign expired",
		slog.String("campaign_id", c.CampaignID),
		slog.Int("participants_refunded", refunded),
		slog.Int("filled_slots", updated.FilledSlots),
		slog.Int("total_slots", updated.TotalSlots))
	return &domain.LifecycleTransition{
		CampaignID:           c.CampaignID,
		FromStatus:           fromStatus,
		ToStatus:             domain.CampaignExpired,
		ParticipantsRefunded: refunded,
		OccurredAt:           now,
	}, nil
}
