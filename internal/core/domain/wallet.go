package domain

import "github.com/shopspring/decimal"

// Wallet holds an actor's spendable balance. Escrow holds decrement the
// balance at hold time rather than tracking a separate reserved bucket, so a
// hold can never be double-spent and balance never goes negative.
type Wallet struct {
	WalletID     string          `json:"walletID"` // Primary Key (UUID)
	ActorID      string          `json:"actorID"`  // Owning buyer or seller; one wallet per actor
	CurrencyCode string          `json:"currencyCode"`
	Balance      decimal.Decimal `json:"balance"`
	AuditFields
}
