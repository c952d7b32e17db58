package dto

import (
	"time"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// --- Campaign DTOs ---

// CreateCampaignRequest defines data for creating a new draft campaign.
// Price and product metadata are snapshots supplied by the caller.
type CreateCampaignRequest struct {
	ProductID    string          `json:"productID" binding:"required"`
	Title        string          `json:"title" binding:"required,max=255"`
	PricePerSlot decimal.Decimal `json:"pricePerSlot" binding:"required"`
	CurrencyCode string          `json:"currencyCode" binding:"required,iso4217"`
	TotalSlots   int             `json:"totalSlots" binding:"required,gt=0"`
	StartsAt     *time.Time      `json:"startsAt,omitempty"` // Omit to go active immediately on activation
	Deadline     time.Time       `json:"deadline" binding:"required"`
}

// CancelCampaignRequest defines data for cancelling a campaign.
type CancelCampaignRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListCampaignsParams defines query parameters for listing campaigns.
// Status may be repeated to filter on several lifecycle states at once.
type ListCampaignsParams struct {
	Status    []string `form:"status"`
	Limit     int      `form:"limit,default=20"`
	NextToken *string  `form:"nextToken"`
}

// CampaignResponse defines data returned for a campaign.
type CampaignResponse struct {
	CampaignID      string                `json:"campaignID"`
	SellerID        string                `json:"sellerID"`
	ProductID       string                `json:"productID"`
	Title           string                `json:"title"`
	PricePerSlot    decimal.Decimal       `json:"pricePerSlot"`
	CurrencyCode    string                `json:"currencyCode"`
	TotalSlots      int                   `json:"totalSlots"`
	FilledSlots     int                   `json:"filledSlots"`
	AvailableSlots  int                   `json:"availableSlots"`
	ProgressPercent decimal.Decimal       `json:"progressPercent"`
	Status          domain.CampaignStatus `json:"status"`
	StartsAt        *time.Time            `json:"startsAt,omitempty"`
	Deadline        time.Time             `json:"deadline"`
	LockedAt        *time.Time            `json:"lockedAt,omitempty"`
	FulfilledAt     *time.Time            `json:"fulfilledAt,omitempty"`
	CancelledAt     *time.Time            `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	CreatedBy       string                `json:"createdBy"`
	LastUpdatedAt   time.Time             `json:"lastUpdatedAt"`
	LastUpdatedBy   string                `json:"lastUpdatedBy"`
}

// ToCampaignResponse converts domain.Campaign to DTO.
func ToCampaignResponse(c *domain.Campaign) CampaignResponse {
	return CampaignResponse{
		CampaignID:      c.CampaignID,
		SellerID:        c.SellerID,
		ProductID:       c.ProductID,
		Title:           c.Title,
		PricePerSlot:    c.PricePerSlot,
		CurrencyCode:    c.CurrencyCode,
		TotalSlots:      c.TotalSlots,
		FilledSlots:     c.FilledSlots,
		AvailableSlots:  c.AvailableSlots(),
		ProgressPercent: c.ProgressPercent,
		Status:          c.Status,
		StartsAt:        c.StartsAt,
		Deadline:        c.Deadline,
		LockedAt:        c.LockedAt,
		FulfilledAt:     c.FulfilledAt,
		CancelledAt:     c.CancelledAt,
		CreatedAt:       c.CreatedAt,
		CreatedBy:       c.CreatedBy,
		LastUpdatedAt:   c.LastUpdatedAt,
		LastUpdatedBy:   c.LastUpdatedBy,
	}
}

// ListCampaignsResponse wraps a paginated list of campaigns.
type ListCampaignsResponse struct {
	Campaigns []CampaignResponse `json:"campaigns"`
	NextToken *string            `json:"nextToken,omitempty"`
}

// ToListCampaignsResponse converts a slice of domain.Campaign to DTO.
func ToListCampaignsResponse(cs []domain.Campaign, nextToken *string) ListCampaignsResponse {
	list := make([]CampaignResponse, len(cs))
	for i, c := range cs {
		list[i] = ToCampaignResponse(&c)
	}
	return ListCampaignsResponse{Campaigns: list, NextToken: nextToken}
}

// CampaignProgressResponse defines the read-only progress aggregate.
type CampaignProgressResponse struct {
	CampaignID        string                `json:"campaignID"`
	Status            domain.CampaignStatus `json:"status"`
	TotalSlots        int                   `json:"totalSlots"`
	FilledSlots       int                   `json:"filledSlots"`
	AvailableSlots    int                   `json:"availableSlots"`
	ProgressPercent   decimal.Decimal       `json:"progressPercent"`
	ParticipantCount  int                   `json:"participantCount"`
	TotalContribution decimal.Decimal       `json:"totalContribution"`
	Deadline          time.Time             `json:"deadline"`
}

// ToCampaignProgressResponse converts domain.CampaignProgress to DTO.
func ToCampaignProgressResponse(p *domain.CampaignProgress) CampaignProgressResponse {
	return CampaignProgressResponse{
		CampaignID:        p.CampaignID,
		Status:            p.Status,
		TotalSlots:        p.TotalSlots,
		FilledSlots:       p.FilledSlots,
		AvailableSlots:    p.AvailableSlots,
		ProgressPercent:   p.ProgressPercent,
		ParticipantCount:  p.ParticipantCount,
		TotalContribution: p.TotalContribution,
		Deadline:          p.Deadline,
	}
}

// --- Participant DTOs ---

// JoinCampaignRequest defines data for joining a campaign.
type JoinCampaignRequest struct {
	SlotCount         int     `json:"slotCount" binding:"required,gt=0"`
	ShippingReference string  `json:"shippingReference" binding:"max=255"`
	IdempotencyKey    *string `json:"idempotencyKey,omitempty" binding:"omitempty,max=128"` // Retry guard; repeats return the original participant
}

// CancelParticipationRequest defines data for cancelling a participation.
type CancelParticipationRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ParticipantResponse defines data returned for a participant.
type ParticipantResponse struct {
	ParticipantID      string                   `json:"participantID"`
	CampaignID         string                   `json:"campaignID"`
	BuyerID            string                   `json:"buyerID"`
	SlotCount          int                      `json:"slotCount"`
	ContributionAmount decimal.Decimal          `json:"contributionAmount"`
	CurrencyCode       string                   `json:"currencyCode"`
	Status             domain.ParticipantStatus `json:"status"`
	ShippingReference  string                   `json:"shippingReference,omitempty"`
	HoldTransactionID  string                   `json:"holdTransactionID"`
	CreatedAt          time.Time                `json:"createdAt"`
	LastUpdatedAt      time.Time                `json:"lastUpdatedAt"`
}

// ToParticipantResponse converts domain.Participant to DTO.
func ToParticipantResponse(p *domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		ParticipantID:      p.ParticipantID,
		CampaignID:         p.CampaignID,
		BuyerID:            p.BuyerID,
		SlotCount:          p.SlotCount,
		ContributionAmount: p.ContributionAmount,
		CurrencyCode:       p.CurrencyCode,
		Status:             p.Status,
		ShippingReference:  p.ShippingReference,
		HoldTransactionID:  p.HoldTransactionID,
		CreatedAt:          p.CreatedAt,
		LastUpdatedAt:      p.LastUpdatedAt,
	}
}

// ListParticipantsResponse wraps a list of participants.
type ListParticipantsResponse struct {
	Participants []ParticipantResponse `json:"participants"`
}

// ToListParticipantsResponse converts a slice of domain.Participant to DTO.
func ToListParticipantsResponse(ps []domain.Participant) ListParticipantsResponse {
	list := make([]ParticipantResponse, len(ps))
	for i, p := range ps {
		list[i] = ToParticipantResponse(&p)
	}
	return ListParticipantsResponse{Participants: list}
}
