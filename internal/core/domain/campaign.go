package domain

import (
	"fmt"
	"strings"
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

// campaignTransitions lists the allowed forward edges of the lifecycle.
// Terminal states have no outgoing edges; re-applying a terminal transition
// is treated as a no-op by the controller, not as a valid edge here.
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:     {CampaignScheduled, CampaignActive, CampaignCancelled},
	CampaignScheduled: {CampaignActive, CampaignLocked, CampaignExpired, CampaignCancelled},
	CampaignActive:    {CampaignLocked, CampaignFulfilled, CampaignExpired, CampaignCancelled},
	CampaignLocked:    {CampaignActive, CampaignFulfilled, CampaignCancelled},
}

// IsTerminal reports whether the status permits no further transitions.
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignFulfilled || s == CampaignExpired || s == CampaignCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
func (s CampaignStatus) CanTransitionTo(target CampaignStatus) bool {
	for _, allowed := range campaignTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AcceptsReservations reports whether slot reservations are permitted in this status.
func (s CampaignStatus) AcceptsReservations() bool {
	return s == CampaignActive || s == CampaignScheduled
}

// ParseCampaignStatus converts a raw string (case-insensitive) into a
// CampaignStatus, rejecting anything outside the known lifecycle states.
func ParseCampaignStatus(raw string) (CampaignStatus, error) {
	s := CampaignStatus(strings.ToUpper(raw))
	switch s {
	case CampaignDraft, CampaignScheduled, CampaignActive, CampaignLocked,
		CampaignFulfilled, CampaignExpired, CampaignCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown campaign status %q", raw)
}

// Campaign represents a time-boxed group-buy offer with fixed slot capacity.
// Price and product metadata are snapshots taken from the catalog at creation
// time; later catalog changes never affect an existing campaign.
type Campaign struct {
	CampaignID      string          `json:"campaignID"` // Primary Key (UUID)
	SellerID        string          `json:"sellerID"`   // Actor credited on release
	ProductID       string          `json:"productID"`
	Title           string          `json:"title"`
	PricePerSlot    decimal.Decimal `json:"pricePerSlot"`
	CurrencyCode    string          `json:"currencyCode"`
	TotalSlots      int             `json:"totalSlots"`
	FilledSlots     int             `json:"filledSlots"`
	ProgressPercent decimal.Decimal `json:"progressPercent"` // Recomputed on every slot mutation
	Status          CampaignStatus  `json:"status"`
	StartsAt        *time.Time      `json:"startsAt,omitempty"` // Nil means active immediately on activation
	Deadline        time.Time       `json:"deadline"`           // No reservations accepted after this instant
	LockedAt        *time.Time      `json:"lockedAt,omitempty"`
	FulfilledAt     *time.Time      `json:"fulfilledAt,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
	AuditFields
}

// AvailableSlots returns the remaining capacity.
func (c *Campaign) AvailableSlots() int {
	return c.TotalSlots - c.FilledSlots
}

// ValidateForActivation checks the guards for leaving DRAFT: a deadline in
// the future and at least one slot of capacity.
func (c *Campaign) ValidateForActivation(now time.Time) error {
	if c.Status != CampaignDraft {
		return fmt.Errorf("campaign %s is %s, only draft campaigns can be activated", c.CampaignID, c.Status)
	}
	if c.TotalSlots <= 0 {
		return fmt.Errorf("campaign %s has no capacity (total slots %d)", c.CampaignID, c.TotalSlots)
	}
	if !c.Deadline.After(now) {
		return fmt.Errorf("campaign %s deadline %s is not in the future", c.CampaignID, c.Deadline.Format(time.RFC3339))
	}
	if c.StartsAt != nil && !c.StartsAt.Before(c.Deadline) {
		return fmt.Errorf("campaign %s starts at %s, after its deadline", c.CampaignID, c.StartsAt.Format(time.RFC3339))
	}
	return nil
}

// ComputeProgressPercent returns filled/total as a percentage rounded to two
// decimal places. Zero capacity yields zero rather than dividing by zero.
func ComputeProgressPercent(filled, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(filled)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// ParticipantStatus indicates a buyer's standing within a campaign.
type ParticipantStatus string

const (
	ParticipantPendingPayment ParticipantStatus = "PENDING_PAYMENT"
	ParticipantConfirmed      ParticipantStatus = "CONFIRMED"
	ParticipantCancelled      ParticipantStatus = "CANCELLED"
	ParticipantRefunded       ParticipantStatus = "REFUNDED"
	ParticipantFulfilled      ParticipantStatus = "FULFILLED"
)

// CountsTowardCapacity reports whether the participant's slots are part of
// the campaign's filled count.
func (s ParticipantStatus) CountsTowardCapacity() bool {
	return s == ParticipantPendingPayment || s == ParticipantConfirmed || s == ParticipantFulfilled
}

// Participant records a buyer's commitment to a campaign. ContributionAmount
// is snapshotted at join time: price changes after join never retroactively
// affect an existing participant.
type Participant struct {
	ParticipantID      string            `json:"participantID"` // Primary Key (UUID)
	CampaignID         string            `json:"campaignID"`
	BuyerID            string            `json:"buyerID"`
	SlotCount          int               `json:"slotCount"`
	ContributionAmount decimal.Decimal   `json:"contributionAmount"` // slotCount * pricePerSlot at join
	CurrencyCode       string            `json:"currencyCode"`
	Status             ParticipantStatus `json:"status"`
	ShippingReference  string            `json:"shippingReference"`
	HoldTransactionID  string            `json:"holdTransactionID"`        // Ledger hold backing this commitment
	IdempotencyKey     *string           `json:"idempotencyKey,omitempty"` // Client-supplied join retry guard
	AuditFields
}

// CampaignProgress is the read-only aggregate served by the progress query.
type CampaignProgress struct {
	CampaignID        string          `json:"campaignID"`
	Status            CampaignStatus  `json:"status"`
	TotalSlots        int             `json:"totalSlots"`
	FilledSlots       int             `json:"filledSlots"`
	AvailableSlots    int             `json:"availableSlots"`
	ProgressPercent   decimal.Decimal `json:"progressPercent"`
	ParticipantCount  int             `json:"participantCount"`
	TotalContribution decimal.Decimal `json:"totalContribution"`
	Deadline          time.Time       `json:"deadline"`
}

// LifecycleTransition describes one campaign transition applied by a
// lifecycle pass, with enough detail for callers to surface it.
type LifecycleTransition struct {
	CampaignID            string         `json:"campaignID"`
	FromStatus            CampaignStatus `json:"fromStatus"`
	ToStatus              CampaignStatus `json:"toStatus"`
	ParticipantsConfirmed int            `json:"participantsConfirmed"`
	ParticipantsRefunded  int            `json:"participantsRefunded"`
	OccurredAt            time.Time      `json:"occurredAt"`
}
