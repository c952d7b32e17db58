package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	"github.com/groupcart/groupcart_backend/internal/models"
	"github.com/groupcart/groupcart_backend/internal/utils/mapping"
	"github.com/groupcart/groupcart_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAuditRepository struct {
	BaseRepository
}

// newPgxAuditRepository creates a new repository for the audit trail.
func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepositoryFacade {
	return &PgxAuditRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxAuditRepository implements portsrepo.AuditRepositoryFacade
var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

var FULL_AUDIT_EVENT_SELECT_QUERY = `
SELECT
	a.sequence_id, a.campaign_id, a.event_name, a.metadata, a.created_at, a.created_by
FROM audit_events a
`

func (r *PgxAuditRepository) getAuditEvents(ctx context.Context, filterQuery string, args ...any) ([]models.AuditEvent, error) {
	query := FULL_AUDIT_EVENT_SELECT_QUERY + filterQuery
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query audit events", err)
	}
	defer rows.Close()
	modelEvents, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AuditEvent])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.AuditEvent{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect audit event rows", err)
	}
	return modelEvents, nil
}

// SaveAuditEvent appends one event. The sequence id comes back from the
// store so callers observe the trail's total order.
func (r *PgxAuditRepository) SaveAuditEvent(ctx context.Context, event domain.AuditEvent) (*domain.AuditEvent, error) {
	modelEvent, err := mapping.ToModelAuditEvent(event)
	if err != nil {
		return nil, apperrors.NewAppError(400, "failed to serialize audit event metadata", err)
	}

	query := `
		INSERT INTO audit_events (campaign_id, event_name, metadata, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING sequence_id;
	`
	var sequenceID int64
	err = r.Pool.QueryRow(ctx, query,
		modelEvent.CampaignID,
		modelEvent.EventName,
		modelEvent.Metadata,
		modelEvent.CreatedAt,
		modelEvent.CreatedBy,
	).Scan(&sequenceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to save audit event for campaign "+event.CampaignID, err)
	}

	modelEvent.SequenceID = sequenceID
	domainEvent := mapping.ToDomainAuditEvent(modelEvent)
	return &domainEvent, nil
}

// ListAuditEventsByCampaign retrieves a paginated list of a campaign's events,
// newest first. The cursor is the sequence id of the last returned event,
// which totally orders the trail without a timestamp tiebreak.
func (r *PgxAuditRepository) ListAuditEventsByCampaign(ctx context.Context, campaignID string, limit int, nextToken *string) ([]domain.AuditEvent, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	filterQuery := `WHERE a.campaign_id = $1 `
	args := []any{campaignID}

	if nextToken != nil && *nextToken != "" {
		lastSequenceID, decodeErr := decodeSequenceToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastSequenceID)
		filterQuery += `AND a.sequence_id < $2 `
	}

	filterQuery += `ORDER BY a.sequence_id DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, fetchLimit)

	modelEvents, err := r.getAuditEvents(ctx, filterQuery, args...)
	if err != nil {
		return nil, nil, err
	}

	var nextTokenVal *string
	results := modelEvents
	if len(modelEvents) > limit {
		lastEvent := modelEvents[limit-1] // The last item included in this page
		token := pagination.EncodeMultiFieldToken(strconv.FormatInt(lastEvent.SequenceID, 10))
		nextTokenVal = &token
		results = modelEvents[:limit]
	}

	return mapping.ToDomainAuditEventSlice(results), nextTokenVal, nil
}

func decodeSequenceToken(token string) (int64, error) {
	fields, err := pagination.DecodeMultiFieldToken(token)
	if err != nil {
		return 0, err
	}
	if len(fields) != 1 {
		return 0, errors.New("invalid pagination token format (field count)")
	}
	return strconv.ParseInt(fields[0], 10, 64)
}
