package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus indicates where a campaign sits in its lifecycle.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignScheduled CampaignStatus = "SCHEDULED"
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignLocked    CampaignStatus = "LOCKED"
	CampaignFulfilled CampaignStatus = "FULFILLED"
	CampaignExpired   CampaignStatus = "EXPIRED"
	CampaignCancelled CampaignStatus = "CANCELLED"
)

// Campaign represents a time-boxed group-buy offer with fixed slot capacity.
// Price and product fields are snapshots taken at creation time.
type Campaign struct {
	CampaignID      string          `db:"campaign_id"`
	SellerID        string          `db:"seller_id"`
	ProductID       string          `db:"product_id"`
	Title           string          `db:"title"`
	PricePerSlot    decimal.Decimal `db:"price_per_slot"`
	CurrencyCode    string          `db:"currency_code"`
	TotalSlots      int             `db:"total_slots"`
	FilledSlots     int             `db:"filled_slots"`
	ProgressPercent decimal.Decimal `db:"progress_percent"`
	Status          CampaignStatus  `db:"status"`
	StartsAt        *time.Time      `db:"starts_at"` // Nullable
	Deadline        time.Time       `db:"deadline"`
	LockedAt        *time.Time      `db:"locked_at"`    // Nullable
	FulfilledAt     *time.Time      `db:"fulfilled_at"` // Nullable
	CancelledAt     *time.Time      `db:"cancelled_at"` // Nullable
	AuditFields
}
