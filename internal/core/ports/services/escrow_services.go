package services

import (
	"context"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EscrowReaderSvc defines read operations for wallets and the ledger trail
type EscrowReaderSvc interface {
	// GetWallet retrieves a wallet by its unique identifier.
	GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error)

	// GetWalletByActor retrieves the wallet owned by the given actor.
	GetWalletByActor(ctx context.Context, actorID string) (*domain.Wallet, error)

	// GetLedgerEntry retrieves a ledger entry by transaction id.
	GetLedgerEntry(ctx context.Context, transactionID string) (*domain.LedgerEntry, error)

	// ListWalletEntries retrieves a paginated list of a wallet's ledger
	// entries, newest first.
	ListWalletEntries(ctx context.Context, walletID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)
}

// EscrowWriterSvc defines the escrow mutations. Each is idempotent against
// retries that observe the terminal state of the hold: settling an
// already-settled hold fails fast with apperrors.ErrInvalidHoldState and
// never double-credits.
type EscrowWriterSvc interface {
	// CreateWallet provisions a wallet for an actor.
	CreateWallet(ctx context.Context, actorID string, currencyCode string, userID string) (*domain.Wallet, error)

	// HoldFunds places amount in escrow against the wallet: the spendable
	// balance drops immediately, but nothing is credited to anyone yet.
	HoldFunds(ctx context.Context, walletID string, amount decimal.Decimal, reference domain.EntryReference, description string, userID string) (*domain.LedgerEntry, error)

	// ReleaseHold settles a hold in the seller's favor: net = gross - platform
	// fee is credited to the seller's wallet, and the fee is recognized as
	// platform revenue without being credited to any wallet.
	ReleaseHold(ctx context.Context, holdTransactionID string, sellerWalletID string, userID string) (*domain.EscrowRelease, error)

	// RefundHold settles a hold in the buyer's favor: the full gross amount
	// returns to the original wallet.
	RefundHold(ctx context.Context, holdTransactionID string, reason string, userID string) (*domain.LedgerEntry, error)
}

// FeeCalculatorSvc exposes the platform fee computation
type FeeCalculatorSvc interface {
	// CalculateFee returns the platform fee for the amount at the configured
	// platform-wide rate, rounded to the ledger's minor-currency-unit
	// precision.
	CalculateFee(amount decimal.Decimal) decimal.Decimal
}

// EscrowSvcFacade combines all escrow-related service interfaces
type EscrowSvcFacade interface {
	EscrowReaderSvc
	EscrowWriterSvc
	FeeCalculatorSvc
}
