package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/platform/metrics"
	"github.com/groupcart/groupcart_backend/internal/utils/money"
	"github.com/shopspring/decimal"
)

// escrowService implements the EscrowSvcFacade interface
type escrowService struct {
	BaseService
	walletRepo portsrepo.WalletRepositoryFacade
	feePercent decimal.Decimal
	minorUnits int
}

// NewEscrowService creates a new escrow service. feePercent is the
// platform-wide fee rate (e.g. 3 for 3%), minorUnits the rounding precision
// of the ledger currency.
func NewEscrowService(walletRepo portsrepo.WalletRepositoryFacade, feePercent decimal.Decimal, minorUnits int) portssvc.EscrowSvcFacade {
	return &escrowService{
		walletRepo: walletRepo,
		feePercent: feePercent,
		minorUnits: minorUnits,
	}
}

// Ensure escrowService implements the EscrowSvcFacade interface
var _ portssvc.EscrowSvcFacade = (*escrowService)(nil)

func (s *escrowService) GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.FindWalletByID(ctx, walletID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrWalletNotFound) {
			s.LogError(ctx, err, "Failed to find wallet", slog.String("wallet_id", walletID))
		}
		return nil, err
	}
	return wallet, nil
}

func (s *escrowService) GetWalletByActor(ctx context.Context, actorID string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.FindWalletByActorID(ctx, actorID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrWalletNotFound) {
			s.LogError(ctx, err, "Failed to find wallet by actor", slog.String("actor_id", actorID))
		}
		return nil, err
	}
	return wallet, nil
}

func (s *escrowService) GetLedgerEntry(ctx context.Context, transactionID string) (*domain.LedgerEntry, error) {
	entry, err := s.walletRepo.FindLedgerEntryByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find ledger entry", slog.String("transaction_id", transactionID))
		}
		return nil, err
	}
	return entry, nil
}

func (s *escrowService) ListWalletEntries(ctx context.Context, walletID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	entries, newNextToken, err := s.walletRepo.ListLedgerEntriesByWallet(ctx, walletID, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list ledger entries", slog.String("wallet_id", walletID))
		return nil, nil, err
	}
	return entries, newNextToken, nil
}

// CreateWallet provisions a zero-balance wallet for the actor. One wallet
// per actor; a second attempt fails with apperrors.ErrDuplicate.
func (s *escrowService) CreateWallet(ctx context.Context, actorID string, currencyCode string, userID string) (*domain.Wallet, error) {
	if len(currencyCode) != 3 {
		return nil, fmt.Errorf("currency code must be 3 letters, got %q: %w", currencyCode, apperrors.ErrValidation)
	}

	now := time.Now()
	wallet := domain.Wallet{
		WalletID:     uuid.NewString(),
		ActorID:      actorID,
		CurrencyCode: currencyCode,
		Balance:      decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
			Version:       1,
		},
	}

	if err := s.walletRepo.SaveWallet(ctx, wallet); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to create wallet", slog.String("actor_id", actorID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Wallet created",
		slog.String("wallet_id", wallet.WalletID),
		slog.String("actor_id", actorID),
		slog.String("currency_code", currencyCode))
	return &wallet, nil
}

// HoldFunds moves amount from the wallet's spendable balance into escrow.
// Nothing is credited to anyone until the hold settles.
func (s *escrowService) HoldFunds(ctx context.Context, walletID string, amount decimal.Decimal, reference domain.EntryReference, description string, userID string) (*domain.LedgerEntry, error) {
	entry, err := s.walletRepo.CreateHold(ctx, walletID, amount, reference, description, userID, time.Now())
	if err != nil {
		if !errors.Is(err, apperrors.ErrInsufficientBalance) && !errors.Is(err, apperrors.ErrWalletNotFound) {
			s.LogError(ctx, err, "Failed to create hold",
				slog.String("wallet_id", walletID),
				slog.String("amount", amount.String()))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Funds held in escrow",
		slog.String("transaction_id", entry.TransactionID),
		slog.String("wallet_id", walletID),
		slog.String("amount", amount.String()),
		slog.String("reference_type", string(reference.Type)),
		slog.String("reference_id", reference.ID))
	return entry, nil
}

// ReleaseHold settles the hold in the seller's favor. The platform fee is
// computed here from the held gross at the configured rate; the repository
// guarantees the split and the status flip land in one atomic unit.
func (s *escrowService) ReleaseHold(ctx context.Context, holdTransactionID string, sellerWalletID string, userID string) (*domain.EscrowRelease, error) {
	hold, err := s.walletRepo.FindLedgerEntryByID(ctx, holdTransactionID)
	if err != nil {
		return nil, err
	}
	if hold.EntryType != domain.EntryHold {
		return nil, fmt.Errorf("entry %s is a %s, not a hold: %w", holdTransactionID, hold.EntryType, apperrors.ErrInvalidHoldState)
	}

	gross := hold.Amount.Neg()
	fee := s.CalculateFee(gross)

	release, err := s.walletRepo.ReleaseHold(ctx, holdTransactionID, sellerWalletID, fee, userID, time.Now())
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidHoldState) {
			s.LogError(ctx, err, "Failed to release hold",
				slog.String("transaction_id", holdTransactionID),
				slog.String("seller_wallet_id", sellerWalletID))
		}
		return nil, err
	}

	metrics.EscrowSettlementsTotal.WithLabelValues("released").Inc()
	s.LogInfo(ctx, "Hold released to seller",
		slog.String("transaction_id", holdTransactionID),
		slog.String("seller_wallet_id", sellerWalletID),
		slog.String("gross", release.GrossAmount.String()),
		slog.String("net", release.NetAmount.String()),
		slog.String("fee", release.FeeAmount.String()))
	return release, nil
}

// RefundHold settles the hold in the buyer's favor, returning the full gross
// amount. No fee is taken on refunds.
func (s *escrowService) RefundHold(ctx context.Context, holdTransactionID string, reason string, userID string) (*domain.LedgerEntry, error) {
	entry, err := s.walletRepo.RefundHold(ctx, holdTransactionID, reason, userID, time.Now())
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidHoldState) {
			s.LogError(ctx, err, "Failed to refund hold",
				slog.String("transaction_id", holdTransactionID))
		}
		return nil, err
	}

	metrics.EscrowSettlementsTotal.WithLabelValues("refunded").Inc()
	s.LogInfo(ctx, "Hold refunded",
		slog.String("transaction_id", holdTransactionID),
		slog.String("refund_transaction_id", entry.TransactionID),
		slog.String("amount", entry.Amount.String()),
		slog.String("reason", reason))
	return entry, nil
}

// CalculateFee returns the platform fee on amount at the configured rate,
// rounded half-up to the ledger's minor unit. Non-positive amounts carry no
// fee.
func (s *escrowService) CalculateFee(amount decimal.Decimal) decimal.Decimal {
	fee, err := money.CalculateFee(amount, s.feePercent, s.minorUnits)
	if err != nil {
		return decimal.Zero
	}
	return fee
}
