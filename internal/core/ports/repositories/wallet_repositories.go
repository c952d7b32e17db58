package repositories

import (
	"context"
	"time"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// WalletReader defines read operations for wallet data
type WalletReader interface {
	// FindWalletByID retrieves a specific wallet by its unique identifier.
	FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error)

	// FindWalletByActorID retrieves the wallet owned by the given actor.
	FindWalletByActorID(ctx context.Context, actorID string) (*domain.Wallet, error)
}

// WalletWriter defines write operations for wallet data
type WalletWriter interface {
	// SaveWallet persists a new wallet. A second wallet for the same actor
	// fails with apperrors.ErrDuplicate.
	SaveWallet(ctx context.Context, wallet domain.Wallet) error
}

// LedgerReader defines read operations for ledger entries
type LedgerReader interface {
	// FindLedgerEntryByID retrieves a ledger entry by transaction id.
	FindLedgerEntryByID(ctx context.Context, transactionID string) (*domain.LedgerEntry, error)

	// ListLedgerEntriesByWallet retrieves a paginated list of a wallet's ledger
	// entries, newest first, using token-based pagination.
	ListLedgerEntriesByWallet(ctx context.Context, walletID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// ListLedgerEntriesByReference retrieves all entries referencing the given
	// record, oldest first.
	ListLedgerEntriesByReference(ctx context.Context, refType domain.ReferenceType, refID string) ([]domain.LedgerEntry, error)
}

// LedgerWriter defines the atomic escrow mutations. Each method is a single
// transaction that locks the affected wallet row(s) for the duration of its
// read-check-write sequence.
type LedgerWriter interface {
	// CreateHold verifies balance >= amount under a wallet row lock, decrements
	// the balance, and appends an ON_HOLD entry capturing balance before/after.
	// Fails with apperrors.ErrWalletNotFound or apperrors.ErrInsufficientBalance.
	CreateHold(ctx context.Context, walletID string, amount decimal.Decimal, reference domain.EntryReference, description string, userID string, now time.Time) (*domain.LedgerEntry, error)

	// ReleaseHold marks an ON_HOLD entry RELEASED, credits gross minus fee to the
	// seller's wallet, and appends the fee-revenue recognition entry. Lock
	// order is the hold's wallet first, then the seller's wallet. Fails with
	// apperrors.ErrInvalidHoldState when the hold has already settled.
	ReleaseHold(ctx context.Context, holdTransactionID string, sellerWalletID string, feeAmount decimal.Decimal, userID string, now time.Time) (*domain.EscrowRelease, error)

	// RefundHold marks an ON_HOLD entry REFUNDED and credits the full gross
	// amount back to the original wallet. Fails with
	// apperrors.ErrInvalidHoldState when the hold has already settled.
	RefundHold(ctx context.Context, holdTransactionID string, reason string, userID string, now time.Time) (*domain.LedgerEntry, error)
}

// WalletRepositoryFacade combines all wallet-related repository interfaces
type WalletRepositoryFacade interface {
	WalletReader
	WalletWriter
	LedgerReader
	LedgerWriter
}

// WalletRepositoryWithTx extends WalletRepositoryFacade with transaction capabilities
type WalletRepositoryWithTx interface {
	WalletRepositoryFacade
	TransactionManager
}
