package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	"github.com/groupcart/groupcart_backend/internal/models"
	"github.com/groupcart/groupcart_backend/internal/utils/mapping"
	"github.com/groupcart/groupcart_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCampaignRepository struct {
	BaseRepository
}

// newPgxCampaignRepository creates a new repository for campaign and participant data.
func newPgxCampaignRepository(pool *pgxpool.Pool) portsrepo.CampaignRepositoryWithTx {
	return &PgxCampaignRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxCampaignRepository implements portsrepo.CampaignRepositoryWithTx
var _ portsrepo.CampaignRepositoryWithTx = (*PgxCampaignRepository)(nil)

var FULL_CAMPAIGN_SELECT_QUERY = `
SELECT
	c.campaign_id, c.seller_id, c.product_id, c.title, c.price_per_slot, c.currency_code,
	c.total_slots, c.filled_slots, c.progress_percent, c.status,
	c.starts_at, c.deadline, c.locked_at, c.fulfilled_at, c.cancelled_at,
	c.created_at, c.created_by, c.last_updated_at, c.last_updated_by, c.version
FROM campaigns c
`

var FULL_PARTICIPANT_SELECT_QUERY = `
SELECT
	p.participant_id, p.campaign_id, p.buyer_id, p.slot_count, p.contribution_amount,
	p.currency_code, p.status, p.shipping_reference, p.hold_transaction_id, p.idempotency_key,
	p.created_at, p.created_by, p.last_updated_at, p.last_updated_by, p.version
FROM participants p
`

// getCampaigns runs the full select with the given filter and collects rows.
func (r *PgxCampaignRepository) getCampaigns(ctx context.Context, filterQuery string, args ...any) ([]models.Campaign, error) {
	query := FULL_CAMPAIGN_SELECT_QUERY + filterQuery
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query campaigns", err)
	}
	defer rows.Close()
	modelCampaigns, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Campaign])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.Campaign{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect campaign rows", err)
	}
	return modelCampaigns, nil
}

// getParticipants runs the full select with the given filter and collects rows.
func (r *PgxCampaignRepository) getParticipants(ctx context.Context, filterQuery string, args ...any) ([]models.Participant, error) {
	query := FULL_PARTICIPANT_SELECT_QUERY + filterQuery
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query participants", err)
	}
	defer rows.Close()
	modelParticipants, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Participant])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.Participant{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect participant rows", err)
	}
	return modelParticipants, nil
}

func (r *PgxCampaignRepository) SaveCampaign(ctx context.Context, campaign domain.Campaign) error {
	modelCampaign := mapping.ToModelCampaign(campaign)
	query := `
		INSERT INTO campaigns (
			campaign_id, seller_id, product_id, title, price_per_slot, currency_code,
			total_slots, filled_slots, progress_percent, status,
			starts_at, deadline, locked_at, fulfilled_at, cancelled_at,
			created_at, created_by, last_updated_at, last_updated_by, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelCampaign.CampaignID,
		modelCampaign.SellerID,
		modelCampaign.ProductID,
		modelCampaign.Title,
		modelCampaign.PricePerSlot,
		modelCampaign.CurrencyCode,
		modelCampaign.TotalSlots,
		modelCampaign.FilledSlots,
		modelCampaign.ProgressPercent,
		modelCampaign.Status,
		modelCampaign.StartsAt,
		modelCampaign.Deadline,
		modelCampaign.LockedAt,
		modelCampaign.FulfilledAt,
		modelCampaign.CancelledAt,
		modelCampaign.CreatedAt,
		modelCampaign.CreatedBy,
		modelCampaign.LastUpdatedAt,
		modelCampaign.LastUpdatedBy,
		1,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("campaign %s already exists: %w", campaign.CampaignID, apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to save campaign "+campaign.CampaignID, err)
	}
	return nil
}

func (r *PgxCampaignRepository) FindCampaignByID(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	campaigns, err := r.getCampaigns(ctx, `WHERE c.campaign_id = $1`, campaignID)
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, apperrors.ErrNotFound
	}
	domainCampaign := mapping.ToDomainCampaign(campaigns[0])
	return &domainCampaign, nil
}

// ListCampaigns retrieves a paginated list of campaigns using token-based pagination.
// It returns the campaigns, a token for the next page, and an error.
func (r *PgxCampaignRepository) ListCampaigns(ctx context.Context, statuses []domain.CampaignStatus, limit int, nextToken *string) ([]domain.Campaign, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	var filters []string
	args := []any{}

	if len(statuses) > 0 {
		statusStrs := make([]string, len(statuses))
		for i, s := range statuses {
			statusStrs[i] = string(s)
		}
		args = append(args, statusStrs)
		filters = append(filters, "c.status = ANY($"+strconv.Itoa(len(args))+")")
	}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeCursor(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		// Tuple comparison is concise and efficient in Postgres
		args = append(args, lastCreatedAt, lastID)
		filters = append(filters, "(c.created_at, c.campaign_id) < ($"+strconv.Itoa(len(args)-1)+", $"+strconv.Itoa(len(args))+")")
	}

	filterQuery := ""
	if len(filters) > 0 {
		filterQuery = "WHERE " + strings.Join(filters, " AND ") + " "
	}
	// Ordering must be stable: created_at DESC with campaign_id as tie-breaker.
	filterQuery += "ORDER BY c.created_at DESC, c.campaign_id DESC LIMIT $" + strconv.Itoa(len(args)+1)
	args = append(args, fetchLimit)

	modelCampaigns, err := r.getCampaigns(ctx, filterQuery, args...)
	if err != nil {
		return nil, nil, err
	}

	var nextTokenVal *string
	results := modelCampaigns
	if len(modelCampaigns) > limit {
		lastCampaign := modelCampaigns[limit-1] // The last item included in this page
		token := pagination.EncodeCursor(lastCampaign.CreatedAt, lastCampaign.CampaignID)
		nextTokenVal = &token
		results = modelCampaigns[:limit]
	}

	return mapping.ToDomainCampaignSlice(results), nextTokenVal, nil
}

// FindDueCampaigns retrieves campaigns the lifecycle pass must act on: locked
// campaigns awaiting confirmation, scheduled campaigns whose start has
// arrived, and scheduled/active campaigns past their deadline.
func (r *PgxCampaignRepository) FindDueCampaigns(ctx context.Context, asOf time.Time, limit int) ([]domain.Campaign, error) {
	if limit <= 0 {
		limit = 100
	}
	filterQuery := `
		WHERE c.status = 'LOCKED'
		   OR (c.status = 'SCHEDULED' AND c.starts_at IS NOT NULL AND c.starts_at <= $1)
		   OR (c.status IN ('SCHEDULED', 'ACTIVE') AND c.deadline <= $1)
		ORDER BY c.deadline ASC
		LIMIT $2
	`
	modelCampaigns, err := r.getCampaigns(ctx, filterQuery, asOf, limit)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainCampaignSlice(modelCampaigns), nil
}

// GetCampaignProgress computes the read-only progress aggregate in a single query.
func (r *PgxCampaignRepository) GetCampaignProgress(ctx context.Context, campaignID string) (*domain.CampaignProgress, error) {
	query := `
		SELECT c.campaign_id, c.status, c.total_slots, c.filled_slots, c.progress_percent, c.deadline,
		       COUNT(p.participant_id) FILTER (WHERE p.status IN ('PENDING_PAYMENT', 'CONFIRMED', 'FULFILLED')) AS participant_count,
		       COALESCE(SUM(p.contribution_amount) FILTER (WHERE p.status IN ('PENDING_PAYMENT', 'CONFIRMED', 'FULFILLED')), 0) AS total_contribution
		FROM campaigns c
		LEFT JOIN participants p ON p.campaign_id = c.campaign_id
		WHERE c.campaign_id = $1
		GROUP BY c.campaign_id, c.status, c.total_slots, c.filled_slots, c.progress_percent, c.deadline;
	`
	var progress domain.CampaignProgress
	err := r.Pool.QueryRow(ctx, query, campaignID).Scan(
		&progress.CampaignID,
		&progress.Status,
		&progress.TotalSlots,
		&progress.FilledSlots,
		&progress.ProgressPercent,
		&progress.Deadline,
		&progress.ParticipantCount,
		&progress.TotalContribution,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to compute progress for campaign "+campaignID, err)
	}
	progress.AvailableSlots = progress.TotalSlots - progress.FilledSlots
	return &progress, nil
}

// findCampaignForUpdate locks the campaign row for the duration of the
// transaction and returns its current state.
func (r *PgxCampaignRepository) findCampaignForUpdate(ctx context.Context, tx pgx.Tx, campaignID string) (*models.Campaign, error) {
	query := FULL_CAMPAIGN_SELECT_QUERY + `WHERE c.campaign_id = $1 FOR UPDATE OF c`
	rows, err := tx.Query(ctx, query, campaignID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock campaign "+campaignID, err)
	}
	modelCampaign, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Campaign])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to scan locked campaign "+campaignID, err)
	}
	return &modelCampaign, nil
}

// updateSlotStateInTx writes the outcome of a reserve/release back to the
// locked row: filled count, recomputed progress, status and locked_at.
func (r *PgxCampaignRepository) updateSlotStateInTx(ctx context.Context, tx pgx.Tx, m *models.Campaign, userID string, now time.Time) error {
	query := `
		UPDATE campaigns
		SET filled_slots = $2, progress_percent = $3, status = $4, locked_at = $5,
		    last_updated_at = $6, last_updated_by = $7, version = version + 1
		WHERE campaign_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.CampaignID,
		m.FilledSlots,
		m.ProgressPercent,
		m.Status,
		m.LockedAt,
		now,
		userID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update slot state for campaign "+m.CampaignID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Row is locked by us, so this should be impossible
		return apperrors.NewAppError(500, "locked campaign "+m.CampaignID+" vanished during update", nil)
	}
	m.LastUpdatedAt = now
	m.LastUpdatedBy = userID
	m.Version++
	return nil
}

// ReserveSlots atomically reserves capacity on a campaign. The check and the
// increment happen under a row lock so no concurrent reservation can observe
// a stale filled_slots value. Filling the last slot flips the campaign to
// LOCKED in the same transaction.
func (r *PgxCampaignRepository) ReserveSlots(ctx context.Context, campaignID string, slotCount int, userID string, now time.Time) (*domain.Campaign, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx) // Ignored once the transaction is committed

	modelCampaign, err := r.findCampaignForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}

	status := domain.CampaignStatus(modelCampaign.Status)
	if !status.AcceptsReservations() {
		return nil, fmt.Errorf("campaign %s is %s and does not accept reservations: %w", campaignID, status, apperrors.ErrCampaignClosed)
	}
	if !modelCampaign.Deadline.After(now) {
		return nil, fmt.Errorf("campaign %s deadline has passed: %w", campaignID, apperrors.ErrCampaignClosed)
	}

	available := modelCampaign.TotalSlots - modelCampaign.FilledSlots
	if slotCount > available {
		return nil, fmt.Errorf("%d of %d slots available, %d requested: %w",
			available, modelCampaign.TotalSlots, slotCount, apperrors.ErrInsufficientSlots)
	}

	modelCampaign.FilledSlots += slotCount
	modelCampaign.ProgressPercent = domain.ComputeProgressPercent(modelCampaign.FilledSlots, modelCampaign.TotalSlots)
	if modelCampaign.FilledSlots == modelCampaign.TotalSlots {
		modelCampaign.Status = models.CampaignLocked
		if modelCampaign.LockedAt == nil {
			lockedAt := now
			modelCampaign.LockedAt = &lockedAt
		}
	}

	if err := r.updateSlotStateInTx(ctx, tx, modelCampaign, userID, now); err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	domainCampaign := mapping.ToDomainCampaign(*modelCampaign)
	return &domainCampaign, nil
}

// ReleaseSlots atomically returns capacity to a campaign, floored at zero.
// A LOCKED campaign with reopened capacity reverts to ACTIVE in the same
// transaction.
func (r *PgxCampaignRepository) ReleaseSlots(ctx context.Context, campaignID string, slotCount int, userID string, now time.Time) (*domain.Campaign, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	modelCampaign, err := r.findCampaignForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}

	// Terminal campaigns keep their slot counts frozen for the audit trail.
	status := domain.CampaignStatus(modelCampaign.Status)
	if status.IsTerminal() {
		return nil, fmt.Errorf("campaign %s is %s, slot counts are frozen: %w", campaignID, status, apperrors.ErrCampaignClosed)
	}

	modelCampaign.FilledSlots -= slotCount
	if modelCampaign.FilledSlots < 0 {
		modelCampaign.FilledSlots = 0
	}
	modelCampaign.ProgressPercent = domain.ComputeProgressPercent(modelCampaign.FilledSlots, modelCampaign.TotalSlots)
	if modelCampaign.Status == models.CampaignLocked && modelCampaign.FilledSlots < modelCampaign.TotalSlots {
		modelCampaign.Status = models.CampaignActive
		modelCampaign.LockedAt = nil
	}

	if err := r.updateSlotStateInTx(ctx, tx, modelCampaign, userID, now); err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	domainCampaign := mapping.ToDomainCampaign(*modelCampaign)
	return &domainCampaign, nil
}

// TransitionCampaignStatus moves a campaign to the target status if its
// current status is one of the expected ones. The no-op result (false) lets
// callers treat repeated transitions as idempotent rather than as errors.
func (r *PgxCampaignRepository) TransitionCampaignStatus(ctx context.Context, campaignID string, from []domain.CampaignStatus, to domain.CampaignStatus, userID string, now time.Time) (*domain.Campaign, bool, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer r.Rollback(ctx, tx)

	modelCampaign, err := r.findCampaignForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, false, err
	}

	current := domain.CampaignStatus(modelCampaign.Status)
	matched := false
	for _, f := range from {
		if current == f {
			matched = true
			break
		}
	}
	if !matched {
		// Idempotent no-op: another writer already moved the campaign on.
		if err := r.Commit(ctx, tx); err != nil {
			return nil, false, err
		}
		domainCampaign := mapping.ToDomainCampaign(*modelCampaign)
		return &domainCampaign, false, nil
	}

	modelCampaign.Status = models.CampaignStatus(to)
	switch to {
	case domain.CampaignLocked:
		if modelCampaign.LockedAt == nil {
			lockedAt := now
			modelCampaign.LockedAt = &lockedAt
		}
	case domain.CampaignActive:
		modelCampaign.LockedAt = nil
	case domain.CampaignFulfilled:
		if modelCampaign.FulfilledAt == nil {
			fulfilledAt := now
			modelCampaign.FulfilledAt = &fulfilledAt
		}
	case domain.CampaignCancelled:
		if modelCampaign.CancelledAt == nil {
			cancelledAt := now
			modelCampaign.CancelledAt = &cancelledAt
		}
	}

	query := `
		UPDATE campaigns
		SET status = $2, locked_at = $3, fulfilled_at = $4, cancelled_at = $5,
		    last_updated_at = $6, last_updated_by = $7, version = version + 1
		WHERE campaign_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		modelCampaign.CampaignID,
		modelCampaign.Status,
		modelCampaign.LockedAt,
		modelCampaign.FulfilledAt,
		modelCampaign.CancelledAt,
		now,
		userID,
	)
	if err != nil {
		return nil, false, apperrors.NewAppError(500, "failed to transition campaign "+campaignID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, false, apperrors.NewAppError(500, "locked campaign "+campaignID+" vanished during transition", nil)
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, false, err
	}

	modelCampaign.LastUpdatedAt = now
	modelCampaign.LastUpdatedBy = userID
	modelCampaign.Version++
	domainCampaign := mapping.ToDomainCampaign(*modelCampaign)
	return &domainCampaign, true, nil
}

func (r *PgxCampaignRepository) SaveParticipant(ctx context.Context, participant domain.Participant) error {
	modelParticipant := mapping.ToModelParticipant(participant)
	query := `
		INSERT INTO participants (
			participant_id, campaign_id, buyer_id, slot_count, contribution_amount,
			currency_code, status, shipping_reference, hold_transaction_id, idempotency_key,
			created_at, created_by, last_updated_at, last_updated_by, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelParticipant.ParticipantID,
		modelParticipant.CampaignID,
		modelParticipant.BuyerID,
		modelParticipant.SlotCount,
		modelParticipant.ContributionAmount,
		modelParticipant.CurrencyCode,
		modelParticipant.Status,
		modelParticipant.ShippingReference,
		modelParticipant.HoldTransactionID,
		modelParticipant.IdempotencyKey,
		modelParticipant.CreatedAt,
		modelParticipant.CreatedBy,
		modelParticipant.LastUpdatedAt,
		modelParticipant.LastUpdatedBy,
		1,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("participant for campaign %s already exists: %w", participant.CampaignID, apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to save participant "+participant.ParticipantID, err)
	}
	return nil
}

func (r *PgxCampaignRepository) FindParticipantByID(ctx context.Context, participantID string) (*domain.Participant, error) {
	participants, err := r.getParticipants(ctx, `WHERE p.participant_id = $1`, participantID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, apperrors.ErrNotFound
	}
	domainParticipant := mapping.ToDomainParticipant(participants[0])
	return &domainParticipant, nil
}

func (r *PgxCampaignRepository) FindParticipantByIdempotencyKey(ctx context.Context, campaignID, idempotencyKey string) (*domain.Participant, error) {
	participants, err := r.getParticipants(ctx, `WHERE p.campaign_id = $1 AND p.idempotency_key = $2`, campaignID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, apperrors.ErrNotFound
	}
	domainParticipant := mapping.ToDomainParticipant(participants[0])
	return &domainParticipant, nil
}

func (r *PgxCampaignRepository) ListParticipantsByCampaign(ctx context.Context, campaignID string) ([]domain.Participant, error) {
	participants, err := r.getParticipants(ctx, `WHERE p.campaign_id = $1 ORDER BY p.created_at`, campaignID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainParticipantSlice(participants), nil
}

func (r *PgxCampaignRepository) ListParticipantsByStatuses(ctx context.Context, campaignID string, statuses []domain.ParticipantStatus) ([]domain.Participant, error) {
	statusStrs := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrs[i] = string(s)
	}
	participants, err := r.getParticipants(ctx, `WHERE p.campaign_id = $1 AND p.status = ANY($2) ORDER BY p.created_at`, campaignID, statusStrs)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainParticipantSlice(participants), nil
}

// UpdateParticipantStatus moves a participant to the target status if its
// current status is one of the expected ones. A single guarded UPDATE keeps
// the check-and-set atomic without an explicit transaction.
func (r *PgxCampaignRepository) UpdateParticipantStatus(ctx context.Context, participantID string, from []domain.ParticipantStatus, to domain.ParticipantStatus, userID string, now time.Time) (bool, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}
	query := `
		UPDATE participants
		SET status = $2, last_updated_at = $3, last_updated_by = $4, version = version + 1
		WHERE participant_id = $1 AND status = ANY($5);
	`
	cmdTag, err := r.Pool.Exec(ctx, query, participantID, string(to), now, userID, fromStrs)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to update status for participant "+participantID, err)
	}
	return cmdTag.RowsAffected() > 0, nil
}
