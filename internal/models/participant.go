package models

import "github.com/shopspring/decimal"

// ParticipantStatus indicates a buyer's standing within a campaign.
type ParticipantStatus string

const (
	ParticipantPendingPayment ParticipantStatus = "PENDING_PAYMENT"
	ParticipantConfirmed      ParticipantStatus = "CONFIRMED"
	ParticipantCancelled      ParticipantStatus = "CANCELLED"
	ParticipantRefunded       ParticipantStatus = "REFUNDED"
	ParticipantFulfilled      ParticipantStatus = "FULFILLED"
)

// Participant records a buyer's slot commitment to a campaign.
// ContributionAmount is slot_count * price_per_slot frozen at join time.
type Participant struct {
	ParticipantID      string            `db:"participant_id"`
	CampaignID         string            `db:"campaign_id"`
	BuyerID            string            `db:"buyer_id"`
	SlotCount          int               `db:"slot_count"`
	ContributionAmount decimal.Decimal   `db:"contribution_amount"`
	CurrencyCode       string            `db:"currency_code"`
	Status             ParticipantStatus `db:"status"`
	ShippingReference  string            `db:"shipping_reference"`
	HoldTransactionID  string            `db:"hold_transaction_id"`
	IdempotencyKey     *string           `db:"idempotency_key"` // Nullable, unique per campaign when set
	AuditFields
}
