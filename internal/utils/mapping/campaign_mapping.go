package mapping

import (
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	"github.com/groupcart/groupcart_backend/internal/models"
)

// ToModelCampaign converts a domain Campaign to a model Campaign
func ToModelCampaign(d domain.Campaign) models.Campaign {
	return models.Campaign{
		CampaignID:      d.CampaignID,
		SellerID:        d.SellerID,
		ProductID:       d.ProductID,
		Title:           d.Title,
		PricePerSlot:    d.PricePerSlot,
		CurrencyCode:    d.CurrencyCode,
		TotalSlots:      d.TotalSlots,
		FilledSlots:     d.FilledSlots,
		ProgressPercent: d.ProgressPercent,
		Status:          models.CampaignStatus(d.Status),
		StartsAt:        d.StartsAt,
		Deadline:        d.Deadline,
		LockedAt:        d.LockedAt,
		FulfilledAt:     d.FulfilledAt,
		CancelledAt:     d.CancelledAt,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCampaign converts a model Campaign to a domain Campaign
func ToDomainCampaign(m models.Campaign) domain.Campaign {
	return domain.Campaign{
		CampaignID:      m.CampaignID,
		SellerID:        m.SellerID,
		ProductID:       m.ProductID,
		Title:           m.Title,
		PricePerSlot:    m.PricePerSlot,
		CurrencyCode:    m.CurrencyCode,
		TotalSlots:      m.TotalSlots,
		FilledSlots:     m.FilledSlots,
		ProgressPercent: m.ProgressPercent,
		Status:          domain.CampaignStatus(m.Status),
		StartsAt:        m.StartsAt,
		Deadline:        m.Deadline,
		LockedAt:        m.LockedAt,
		FulfilledAt:     m.FulfilledAt,
		CancelledAt:     m.CancelledAt,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainCampaignSlice converts a slice of model Campaigns to a slice of domain Campaigns
func ToDomainCampaignSlice(ms []models.Campaign) []domain.Campaign {
	ds := make([]domain.Campaign, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainCampaign(m)
	}
	return ds
}

// ToModelParticipant converts a domain Participant to a model Participant
func ToModelParticipant(d domain.Participant) models.Participant {
	return models.Participant{
		ParticipantID:      d.ParticipantID,
		CampaignID:         d.CampaignID,
		BuyerID:            d.BuyerID,
		SlotCount:          d.SlotCount,
		ContributionAmount: d.ContributionAmount,
		CurrencyCode:       d.CurrencyCode,
		Status:             models.ParticipantStatus(d.Status),
		ShippingReference:  d.ShippingReference,
		HoldTransactionID:  d.HoldTransactionID,
		IdempotencyKey:     d.IdempotencyKey,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainParticipant converts a model Participant to a domain Participant
func ToDomainParticipant(m models.Participant) domain.Participant {
	return domain.Participant{
		ParticipantID:      m.ParticipantID,
		CampaignID:         m.CampaignID,
		BuyerID:            m.BuyerID,
		SlotCount:          m.SlotCount,
		ContributionAmount: m.ContributionAmount,
		CurrencyCode:       m.CurrencyCode,
		Status:             domain.ParticipantStatus(m.Status),
		ShippingReference:  m.ShippingReference,
		HoldTransactionID:  m.HoldTransactionID,
		IdempotencyKey:     m.IdempotencyKey,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainParticipantSlice converts a slice of model Participants to a slice of domain Participants
func ToDomainParticipantSlice(ms []models.Participant) []domain.Participant {
	ds := make([]domain.Participant, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainParticipant(m)
	}
	return ds
}
