package models

import "time"

// AuditEvent is one append-only row of the campaign audit trail.
// SequenceID comes from a BIGSERIAL column, so ordering is assigned by the
// store, not the writer. Metadata is stored as jsonb.
type AuditEvent struct {
	SequenceID int64     `db:"sequence_id"`
	CampaignID string    `db:"campaign_id"`
	EventName  string    `db:"event_name"`
	Metadata   []byte    `db:"metadata"` // jsonb payload
	CreatedAt  time.Time `db:"created_at"`
	CreatedBy  string    `db:"created_by"`
}
