package models

import "github.com/shopspring/decimal"

// Wallet holds an actor's spendable balance.
type Wallet struct {
	WalletID     string          `db:"wallet_id"`
	ActorID      string          `db:"actor_id"` // One wallet per actor
	CurrencyCode string          `db:"currency_code"`
	Balance      decimal.Decimal `db:"balance"`
	AuditFields
}
