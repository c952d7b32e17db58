package models

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

// LedgerEntryStatus tracks an entry's settlement state.
type LedgerEntryStatus string

const (
	EntryPending   LedgerEntryStatus = "PENDING"
	EntryOnHold    LedgerEntryStatus = "ON_HOLD"
	EntryCompleted LedgerEntryStatus = "COMPLETED"
	EntryReleased  LedgerEntryStatus = "RELEASED"
	EntryRefunded  LedgerEntryStatus = "REFUNDED"
	EntryFailed    LedgerEntryStatus = "FAILED"
)

// LedgerEntry is one append-only row of the escrow ledger. Rows are never
// updated except for the one-shot status flip when a hold settles.
// Note: wallet_id and the balance snapshots are NULL for FEE_REVENUE rows,
// which recognize platform revenue without touching any wallet.
type LedgerEntry struct {
	TransactionID string            `db:"transaction_id"`
	WalletID      *string           `db:"wallet_id"` // Nullable for FEE_REVENUE
	EntryType     LedgerEntryType   `db:"entry_type"`
	Amount        decimal.Decimal   `db:"amount"` // Signed
	CurrencyCode  string            `db:"currency_code"`
	BalanceBefore *decimal.Decimal  `db:"balance_before"` // Nullable
	BalanceAfter  *decimal.Decimal  `db:"balance_after"`  // Nullable
	Status        LedgerEntryStatus `db:"status"`
	ReferenceType string            `db:"reference_type"`
	ReferenceID   string            `db:"reference_id"`
	Description   string            `db:"description"`
	SettledAt     *time.Time        `db:"settled_at"` // Nullable, set once on settlement
	AuditFields
}
