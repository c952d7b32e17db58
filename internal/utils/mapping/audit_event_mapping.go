package mapping

import (
	"encoding/json"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
	"github.com/groupcart/groupcart_backend/internal/models"
)

// ToModelAuditEvent converts a domain AuditEvent to a model AuditEvent,
// serializing the metadata map to jsonb bytes.
func ToModelAuditEvent(d domain.AuditEvent) (models.AuditEvent, error) {
	var metadata []byte
	if d.Metadata != nil {
		var err error
		metadata, err = json.Marshal(d.Metadata)
		if err != nil {
			return models.AuditEvent{}, err
		}
	}
	return models.AuditEvent{
		SequenceID: d.SequenceID,
		CampaignID: d.CampaignID,
		EventName:  d.EventName,
		Metadata:   metadata,
		CreatedAt:  d.CreatedAt,
		CreatedBy:  d.CreatedBy,
	}, nil
}

// ToDomainAuditEvent converts a model AuditEvent to a domain AuditEvent.
// Metadata bytes that fail to parse are surfaced as an empty map rather than
// an error; the trail row itself is still usable.
func ToDomainAuditEvent(m models.AuditEvent) domain.AuditEvent {
	metadata := map[string]any{}
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &metadata)
	}
	return domain.AuditEvent{
		SequenceID: m.SequenceID,
		CampaignID: m.CampaignID,
		EventName:  m.EventName,
		Metadata:   metadata,
		CreatedAt:  m.CreatedAt,
		CreatedBy:  m.CreatedBy,
	}
}

// ToDomainAuditEventSlice converts a slice of model AuditEvents to a slice of domain AuditEvents
func ToDomainAuditEventSlice(ms []models.AuditEvent) []domain.AuditEvent {
	ds := make([]domain.AuditEvent, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAuditEvent(m)
	}
	return ds
}
