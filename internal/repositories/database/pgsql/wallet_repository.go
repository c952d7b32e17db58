package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	"github.com/groupcart/groupcart_backend/internal/models"
	"github.com/groupcart/groupcart_backend/internal/utils/mapping"
	"github.com/groupcart/groupcart_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxWalletRepository struct {
	BaseRepository
}

// newPgxWalletRepository creates a new repository for wallet and ledger data.
func newPgxWalletRepository(pool *pgxpool.Pool) portsrepo.WalletRepositoryWithTx {
	return &PgxWalletRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxWalletRepository implements portsrepo.WalletRepositoryWithTx
var _ portsrepo.WalletRepositoryWithTx = (*PgxWalletRepository)(nil)

var FULL_WALLET_SELECT_QUERY = `
SELECT
	w.wallet_id, w.actor_id, w.currency_code, w.balance,
	w.created_at, w.created_by, w.last_updated_at, w.last_updated_by, w.version
FROM wallets w
`

var FULL_LEDGER_SELECT_QUERY = `
SELECT
	l.transaction_id, l.wallet_id, l.entry_type, l.amount, l.currency_code,
	l.balance_before, l.balance_after, l.status, l.reference_type, l.reference_id,
	l.description, l.settled_at,
	l.created_at, l.created_by, l.last_updated_at, l.last_updated_by, l.version
FROM ledger_entries l
`

func (r *PgxWalletRepository) getWallets(ctx context.Context, filterQuery string, args ...any) ([]models.Wallet, error) {
	query := FULL_WALLET_SELECT_QUERY + filterQuery
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query wallets", err)
	}
	defer rows.Close()
	modelWallets, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Wallet])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.Wallet{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect wallet rows", err)
	}
	return modelWallets, nil
}

func (r *PgxWalletRepository) getLedgerEntries(ctx context.Context, filterQuery string, args ...any) ([]models.LedgerEntry, error) {
	query := FULL_LEDGER_SELECT_QUERY + filterQuery
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger entries", err)
	}
	defer rows.Close()
	modelEntries, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.LedgerEntry])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.LedgerEntry{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect ledger entry rows", err)
	}
	return modelEntries, nil
}

func (r *PgxWalletRepository) SaveWallet(ctx context.Context, wallet domain.Wallet) error {
	modelWallet := mapping.ToModelWallet(wallet)
	query := `
		INSERT INTO wallets (
			wallet_id, actor_id, currency_code, balance,
			created_at, created_by, last_updated_at, last_updated_by, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelWallet.WalletID,
		modelWallet.ActorID,
		modelWallet.CurrencyCode,
		modelWallet.Balance,
		modelWallet.CreatedAt,
		modelWallet.CreatedBy,
		modelWallet.LastUpdatedAt,
		modelWallet.LastUpdatedBy,
		1,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("wallet for actor %s already exists: %w", wallet.ActorID, apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to save wallet "+wallet.WalletID, err)
	}
	return nil
}

func (r *PgxWalletRepository) FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	wallets, err := r.getWallets(ctx, `WHERE w.wallet_id = $1`, walletID)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, fmt.Errorf("wallet %s: %w", walletID, apperrors.ErrWalletNotFound)
	}
	domainWallet := mapping.ToDomainWallet(wallets[0])
	return &domainWallet, nil
}

func (r *PgxWalletRepository) FindWalletByActorID(ctx context.Context, actorID string) (*domain.Wallet, error) {
	wallets, err := r.getWallets(ctx, `WHERE w.actor_id = $1`, actorID)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, fmt.Errorf("wallet for actor %s: %w", actorID, apperrors.ErrWalletNotFound)
	}
	domainWallet := mapping.ToDomainWallet(wallets[0])
	return &domainWallet, nil
}

func (r *PgxWalletRepository) FindLedgerEntryByID(ctx context.Context, transactionID string) (*domain.LedgerEntry, error) {
	entries, err := r.getLedgerEntries(ctx, `WHERE l.transaction_id = $1`, transactionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperrors.ErrNotFound
	}
	domainEntry := mapping.ToDomainLedgerEntry(entries[0])
	return &domainEntry, nil
}

// ListLedgerEntriesByWallet retrieves a paginated list of a wallet's entries,
// newest first, using token-based pagination.
func (r *PgxWalletRepository) ListLedgerEntriesByWallet(ctx context.Context, walletID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	filterQuery := `WHERE l.wallet_id = $1 `
	args := []any{walletID}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeCursor(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		// Tuple comparison is concise and efficient in Postgres
		args = append(args, lastCreatedAt, lastID)
		filterQuery += `AND (l.created_at, l.transaction_id) < ($2, $3) `
	}

	filterQuery += `ORDER BY l.created_at DESC, l.transaction_id DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, fetchLimit)

	modelEntries, err := r.getLedgerEntries(ctx, filterQuery, args...)
	if err != nil {
		return nil, nil, err
	}

	var nextTokenVal *string
	results := modelEntries
	if len(modelEntries) > limit {
		lastEntry := modelEntries[limit-1] // The last item included in this page
		token := pagination.EncodeCursor(lastEntry.CreatedAt, lastEntry.TransactionID)
		nextTokenVal = &token
		results = modelEntries[:limit]
	}

	return mapping.ToDomainLedgerEntrySlice(results), nextTokenVal, nil
}

func (r *PgxWalletRepository) ListLedgerEntriesByReference(ctx context.Context, refType domain.ReferenceType, refID string) ([]domain.LedgerEntry, error) {
	entries, err := r.getLedgerEntries(ctx,
		`WHERE l.reference_type = $1 AND l.reference_id = $2 ORDER BY l.created_at, l.transaction_id`,
		string(refType), refID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainLedgerEntrySlice(entries), nil
}

// findWalletForUpdate locks the wallet row for the duration of the transaction.
func (r *PgxWalletRepository) findWalletForUpdate(ctx context.Context, tx pgx.Tx, walletID string) (*models.Wallet, error) {
	query := FULL_WALLET_SELECT_QUERY + `WHERE w.wallet_id = $1 FOR UPDATE OF w`
	rows, err := tx.Query(ctx, query, walletID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock wallet "+walletID, err)
	}
	modelWallet, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Wallet])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("wallet %s: %w", walletID, apperrors.ErrWalletNotFound)
		}
		return nil, apperrors.NewAppError(500, "failed to scan locked wallet "+walletID, err)
	}
	return &modelWallet, nil
}

// findLedgerEntryForUpdate locks a ledger entry row for the duration of the
// transaction.
func (r *PgxWalletRepository) findLedgerEntryForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*models.LedgerEntry, error) {
	query := FULL_LEDGER_SELECT_QUERY + `WHERE l.transaction_id = $1 FOR UPDATE OF l`
	rows, err := tx.Query(ctx, query, transactionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock ledger entry "+transactionID, err)
	}
	modelEntry, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.LedgerEntry])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to scan locked ledger entry "+transactionID, err)
	}
	return &modelEntry, nil
}

// updateWalletBalanceInTx writes a new balance to a locked wallet row.
func (r *PgxWalletRepository) updateWalletBalanceInTx(ctx context.Context, tx pgx.Tx, walletID string, balance decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE wallets
		SET balance = $2, last_updated_at = $3, last_updated_by = $4, version = version + 1
		WHERE wallet_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, walletID, balance, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update balance for wallet "+walletID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Row is locked by us, so this should be impossible
		return apperrors.NewAppError(500, "locked wallet "+walletID+" vanished during update", nil)
	}
	return nil
}

// insertLedgerEntryInTx appends a ledger entry row within the transaction.
func (r *PgxWalletRepository) insertLedgerEntryInTx(ctx context.Context, tx pgx.Tx, m models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (
			transaction_id, wallet_id, entry_type, amount, currency_code,
			balance_before, balance_after, status, reference_type, reference_id,
			description, settled_at,
			created_at, created_by, last_updated_at, last_updated_by, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := tx.Exec(ctx, query,
		m.TransactionID,
		m.WalletID,
		m.EntryType,
		m.Amount,
		m.CurrencyCode,
		m.BalanceBefore,
		m.BalanceAfter,
		m.Status,
		m.ReferenceType,
		m.ReferenceID,
		m.Description,
		m.SettledAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		1,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger entry "+m.TransactionID, err)
	}
	return nil
}

// settleHoldInTx flips a hold out of ON_HOLD exactly once. The status guard
// in the WHERE clause backs up the row lock: zero rows affected means the
// hold settled concurrently.
func (r *PgxWalletRepository) settleHoldInTx(ctx context.Context, tx pgx.Tx, transactionID string, to models.LedgerEntryStatus, userID string, now time.Time) error {
	query := `
		UPDATE ledger_entries
		SET status = $2, settled_at = $3, last_updated_at = $3, last_updated_by = $4, version = version + 1
		WHERE transaction_id = $1 AND status = 'ON_HOLD';
	`
	cmdTag, err := tx.Exec(ctx, query, transactionID, to, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to settle hold "+transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("hold %s already settled: %w", transactionID, apperrors.ErrInvalidHoldState)
	}
	return nil
}

// CreateHold atomically checks balance >= amount under a wallet row lock,
// decrements the balance, and appends the ON_HOLD ledger entry with balance
// snapshots captured at write time.
func (r *PgxWalletRepository) CreateHold(ctx context.Context, walletID string, amount decimal.Decimal, reference domain.EntryReference, description string, userID string, now time.Time) (*domain.LedgerEntry, error) {
	if amount.IsNegative() || amount.IsZero() {
		return nil, fmt.Errorf("hold amount must be positive, got %s: %w", amount.String(), apperrors.ErrValidation)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx) // Ignored once the transaction is committed

	wallet, err := r.findWalletForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, err
	}

	if wallet.Balance.LessThan(amount) {
		return nil, fmt.Errorf("balance %s, hold of %s requested: %w",
			wallet.Balance.String(), amount.String(), apperrors.ErrInsufficientBalance)
	}

	balanceBefore := wallet.Balance
	balanceAfter := balanceBefore.Sub(amount)

	if err := r.updateWalletBalanceInTx(ctx, tx, walletID, balanceAfter, userID, now); err != nil {
		return nil, err
	}

	entry := models.LedgerEntry{
		TransactionID: uuid.NewString(),
		WalletID:      &wallet.WalletID,
		EntryType:     models.EntryHold,
		Amount:        amount.Neg(), // Signed: holds move the balance down
		CurrencyCode:  wallet.CurrencyCode,
		BalanceBefore: &balanceBefore,
		BalanceAfter:  &balanceAfter,
		Status:        models.EntryOnHold,
		ReferenceType: string(reference.Type),
		ReferenceID:   reference.ID,
		Description:   description,
		AuditFields: models.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
			Version:       1,
		},
	}
	if err := r.insertLedgerEntryInTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	domainEntry := mapping.ToDomainLedgerEntry(entry)
	return &domainEntry, nil
}

// ReleaseHold settles an ON_HOLD entry to RELEASED and credits gross minus
// fee to the seller's wallet, appending the seller credit and the
// fee-revenue recognition entries. Lock order is the hold's wallet first,
// then the seller's wallet, so this can never deadlock against CreateHold
// or RefundHold.
func (r *PgxWalletRepository) ReleaseHold(ctx context.Context, holdTransactionID string, sellerWalletID string, feeAmount decimal.Decimal, userID string, now time.Time) (*domain.EscrowRelease, error) {
	if feeAmount.IsNegative() {
		return nil, fmt.Errorf("fee must not be negative, got %s: %w", feeAmount.String(), apperrors.ErrValidation)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	hold, err := r.findLedgerEntryForUpdate(ctx, tx, holdTransactionID)
	if err != nil {
		return nil, err
	}
	if hold.EntryType != models.EntryHold {
		return nil, fmt.Errorf("entry %s is a %s, not a hold: %w", holdTransactionID, hold.EntryType, apperrors.ErrInvalidHoldState)
	}
	if hold.Status != models.EntryOnHold {
		return nil, fmt.Errorf("hold %s is %s, expected ON_HOLD: %w", holdTransactionID, hold.Status, apperrors.ErrInvalidHoldState)
	}
	if hold.WalletID == nil {
		return nil, apperrors.NewAppError(500, "hold "+holdTransactionID+" has no wallet", nil)
	}

	gross := hold.Amount.Neg() // Hold amounts are stored negative
	net := gross.Sub(feeAmount)
	if net.IsNegative() {
		return nil, fmt.Errorf("fee %s exceeds held amount %s: %w", feeAmount.String(), gross.String(), apperrors.ErrValidation)
	}

	// Buyer/hold wallet locked before the seller wallet, always.
	if _, err := r.findWalletForUpdate(ctx, tx, *hold.WalletID); err != nil {
		return nil, err
	}
	sellerWallet, err := r.findWalletForUpdate(ctx, tx, sellerWalletID)
	if err != nil {
		return nil, err
	}

	if err := r.settleHoldInTx(ctx, tx, holdTransactionID, models.EntryReleased, userID, now); err != nil {
		return nil, err
	}

	sellerBefore := sellerWallet.Balance
	sellerAfter := sellerBefore.Add(net)
	if err := r.updateWalletBalanceInTx(ctx, tx, sellerWalletID, sellerAfter, userID, now); err != nil {
		return nil, err
	}

	audit := models.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
		Version:       1,
	}
	settledAt := now

	sellerEntry := models.LedgerEntry{
		TransactionID: uuid.NewString(),
		WalletID:      &sellerWallet.WalletID,
		EntryType:     models.EntryRelease,
		Amount:        net,
		CurrencyCode:  hold.CurrencyCode,
		BalanceBefore: &sellerBefore,
		BalanceAfter:  &sellerAfter,
		Status:        models.EntryCompleted,
		ReferenceType: string(domain.RefTransaction),
		ReferenceID:   holdTransactionID,
		Description:   fmt.Sprintf("release of hold %s, net of %s fee", holdTransactionID, feeAmount.String()),
		SettledAt:     &settledAt,
		AuditFields:   audit,
	}
	if err := r.insertLedgerEntryInTx(ctx, tx, sellerEntry); err != nil {
		return nil, err
	}

	// Fee recognition: platform revenue attached to no wallet, so the fee is
	// recognized without being credited anywhere in this operation.
	feeEntry := models.LedgerEntry{
		TransactionID: uuid.NewString(),
		WalletID:      nil,
		EntryType:     models.EntryFeeRevenue,
		Amount:        feeAmount,
		CurrencyCode:  hold.CurrencyCode,
		Status:        models.EntryCompleted,
		ReferenceType: string(domain.RefTransaction),
		ReferenceID:   holdTransactionID,
		Description:   fmt.Sprintf("platform fee on hold %s", holdTransactionID),
		SettledAt:     &settledAt,
		AuditFields:   audit,
	}
	if err := r.insertLedgerEntryInTx(ctx, tx, feeEntry); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	return &domain.EscrowRelease{
		SellerEntry: mapping.ToDomainLedgerEntry(sellerEntry),
		FeeEntry:    mapping.ToDomainLedgerEntry(feeEntry),
		GrossAmount: gross,
		NetAmount:   net,
		FeeAmount:   feeAmount,
	}, nil
}

// RefundHold settles an ON_HOLD entry to REFUNDED and credits the full gross
// amount back to the original wallet.
func (r *PgxWalletRepository) RefundHold(ctx context.Context, holdTransactionID string, reason string, userID string, now time.Time) (*domain.LedgerEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	hold, err := r.findLedgerEntryForUpdate(ctx, tx, holdTransactionID)
	if err != nil {
		return nil, err
	}
	if hold.EntryType != models.EntryHold {
		return nil, fmt.Errorf("entry %s is a %s, not a hold: %w", holdTransactionID, hold.EntryType, apperrors.ErrInvalidHoldState)
	}
	if hold.Status != models.EntryOnHold {
		return nil, fmt.Errorf("hold %s is %s, expected ON_HOLD: %w", holdTransactionID, hold.Status, apperrors.ErrInvalidHoldState)
	}
	if hold.WalletID == nil {
		return nil, apperrors.NewAppError(500, "hold "+holdTransactionID+" has no wallet", nil)
	}

	wallet, err := r.findWalletForUpdate(ctx, tx, *hold.WalletID)
	if err != nil {
		return nil, err
	}

	if err := r.settleHoldInTx(ctx, tx, holdTransactionID, models.EntryRefunded, userID, now); err != nil {
		return nil, err
	}

	gross := hold.Amount.Neg()
	balanceBefore := wallet.Balance
	balanceAfter := balanceBefore.Add(gross)
	if err := r.updateWalletBalanceInTx(ctx, tx, wallet.WalletID, balanceAfter, userID, now); err != nil {
		return nil, err
	}

	settledAt := now
	refundEntry := models.LedgerEntry{
		TransactionID: uuid.NewString(),
		WalletID:      &wallet.WalletID,
		EntryType:     models.EntryRefund,
		Amount:        gross,
		CurrencyCode:  hold.CurrencyCode,
		BalanceBefore: &balanceBefore,
		BalanceAfter:  &balanceAfter,
		Status:        models.EntryCompleted,
		ReferenceType: string(domain.RefTransaction),
		ReferenceID:   holdTransactionID,
		Description:   fmt.Sprintf("refund of hold %s: %s", holdTransactionID, reason),
		SettledAt:     &settledAt,
		AuditFields: models.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
			Version:       1,
		},
	}
	if err := r.insertLedgerEntryInTx(ctx, tx, refundEntry); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	domainEntry := mapping.ToDomainLedgerEntry(refundEntry)
	return &domainEntry, nil
}
