package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryType classifies what a ledger entry records.
type LedgerEntryType string

const (
	EntryHold       LedgerEntryType = "HOLD"
	EntryRelease    LedgerEntryType = "RELEASE"
	EntryRefund     LedgerEntryType = "REFUND"
	EntryCredit     LedgerEntryType = "CREDIT"
	EntryDebit      LedgerEntryType = "DEBIT"
	EntryFeeRevenue LedgerEntryType = "FEE_REVENUE"
)

// LedgerEntryStatus tracks an entry's settlement state. A HOLD entry moves
// out of ON_HOLD exactly once, to either RELEASED or REFUNDED.
type LedgerEntryStatus string

const (
	EntryPending   LedgerEntryStatus = "PENDING"
	EntryOnHold    LedgerEntryStatus = "ON_HOLD"
	EntryCompleted LedgerEntryStatus = "COMPLETED"
	EntryReleased  LedgerEntryStatus = "RELEASED"
	EntryRefunded  LedgerEntryStatus = "REFUNDED"
	EntryFailed    LedgerEntryStatus = "FAILED"
)

// ReferenceType names the kind of record a ledger entry points back to.
type ReferenceType string

const (
	RefCampaign    ReferenceType = "CAMPAIGN"
	RefParticipant ReferenceType = "PARTICIPANT"
	RefTransaction ReferenceType = "TRANSACTION"
)

// EntryReference links a ledger entry back to the record that caused it.
type EntryReference struct {
	Type ReferenceType `json:"type"`
	ID   string        `json:"id"`
}

// LedgerEntry is one append-only row of the escrow ledger. Amounts are
// signed: holds carry the negative balance movement, credits the positive
// one. BalanceBefore/BalanceAfter are captured at write time so the trail
// reconciles without replaying history. FEE_REVENUE entries recognize
// platform revenue without touching any wallet, so their wallet id is empty
// and their balance snapshots are nil.
type LedgerEntry struct {
	TransactionID string            `json:"transactionID"` // Primary Key (UUID)
	WalletID      string            `json:"walletID"`      // Empty for FEE_REVENUE entries
	EntryType     LedgerEntryType   `json:"entryType"`
	Amount        decimal.Decimal   `json:"amount"` // Signed
	CurrencyCode  string            `json:"currencyCode"`
	BalanceBefore *decimal.Decimal  `json:"balanceBefore,omitempty"`
	BalanceAfter  *decimal.Decimal  `json:"balanceAfter,omitempty"`
	Status        LedgerEntryStatus `json:"status"`
	Reference     EntryReference    `json:"reference"`
	Description   string            `json:"description"`
	SettledAt     *time.Time        `json:"settledAt,omitempty"` // Set once, when a hold leaves ON_HOLD
	AuditFields
}

// IsSettled reports whether a hold has already left ON_HOLD.
func (e *LedgerEntry) IsSettled() bool {
	return e.Status == EntryReleased || e.Status == EntryRefunded
}

// EscrowRelease bundles the rows written when a hold is released to the
// seller: the seller's credit entry and the platform's fee-revenue entry.
type EscrowRelease struct {
	SellerEntry LedgerEntry     `json:"sellerEntry"`
	FeeEntry    LedgerEntry     `json:"feeEntry"`
	GrossAmount decimal.Decimal `json:"grossAmount"`
	NetAmount   decimal.Decimal `json:"netAmount"`
	FeeAmount   decimal.Decimal `json:"feeAmount"`
}
