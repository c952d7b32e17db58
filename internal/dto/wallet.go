package dto

import (
	"time"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// --- Wallet DTOs ---

// CreateWalletRequest defines data for provisioning a wallet for an actor.
// Registration provisions buyer wallets automatically; this request covers
// operator-driven provisioning (platform accounts, sellers onboarded out of
// band).
type CreateWalletRequest struct {
	ActorID      string `json:"actorID" binding:"required,max=64"`
	CurrencyCode string `json:"currencyCode" binding:"required,iso4217"`
}

// ListWalletEntriesParams defines query parameters for listing ledger entries.
type ListWalletEntriesParams struct {
	Limit     int     `form:"limit,default=50"`
	NextToken *string `form:"nextToken"`
}

// WalletResponse defines data returned for a wallet.
type WalletResponse struct {
	WalletID      string          `json:"walletID"`
	ActorID       string          `json:"actorID"`
	CurrencyCode  string          `json:"currencyCode"`
	Balance       decimal.Decimal `json:"balance"` // Spendable balance, net of holds
	CreatedAt     time.Time       `json:"createdAt"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// ToWalletResponse converts domain.Wallet to DTO.
func ToWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		WalletID:      w.WalletID,
		ActorID:       w.ActorID,
		CurrencyCode:  w.CurrencyCode,
		Balance:       w.Balance,
		CreatedAt:     w.CreatedAt,
		LastUpdatedAt: w.LastUpdatedAt,
	}
}

// --- Ledger DTOs ---

// LedgerEntryResponse defines data returned for a ledger entry.
type LedgerEntryResponse struct {
	TransactionID string                   `json:"transactionID"`
	WalletID      string                   `json:"walletID,omitempty"` // Empty for fee-revenue entries
	EntryType     domain.LedgerEntryType   `json:"entryType"`
	Amount        decimal.Decimal          `json:"amount"` // Signed
	CurrencyCode  string                   `json:"currencyCode"`
	BalanceBefore *decimal.Decimal         `json:"balanceBefore,omitempty"`
	BalanceAfter  *decimal.Decimal         `json:"balanceAfter,omitempty"`
	Status        domain.LedgerEntryStatus `json:"status"`
	Reference     domain.EntryReference    `json:"reference"`
	Description   string                   `json:"description"`
	SettledAt     *time.Time               `json:"settledAt,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
}

// ToLedgerEntryResponse converts domain.LedgerEntry to DTO.
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		TransactionID: e.TransactionID,
		WalletID:      e.WalletID,
		EntryType:     e.EntryType,
		Amount:        e.Amount,
		CurrencyCode:  e.CurrencyCode,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		Status:        e.Status,
		Reference:     e.Reference,
		Description:   e.Description,
		SettledAt:     e.SettledAt,
		CreatedAt:     e.CreatedAt,
	}
}

// ListLedgerEntriesResponse wraps a paginated list of ledger entries.
type ListLedgerEntriesResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// ToListLedgerEntriesResponse converts a slice of domain.LedgerEntry to DTO.
func ToListLedgerEntriesResponse(es []domain.LedgerEntry, nextToken *string) ListLedgerEntriesResponse {
	list := make([]LedgerEntryResponse, len(es))
	for i, e := range es {
		list[i] = ToLedgerEntryResponse(&e)
	}
	return ListLedgerEntriesResponse{Entries: list, NextToken: nextToken}
}

// EscrowReleaseResponse defines data returned when a hold is released.
type EscrowReleaseResponse struct {
	SellerEntry LedgerEntryResponse `json:"sellerEntry"`
	FeeEntry    LedgerEntryResponse `json:"feeEntry"`
	GrossAmount decimal.Decimal     `json:"grossAmount"`
	NetAmount   decimal.Decimal     `json:"netAmount"`
	FeeAmount   decimal.Decimal     `json:"feeAmount"`
}

// ToEscrowReleaseResponse converts domain.EscrowRelease to DTO.
func ToEscrowReleaseResponse(r *domain.EscrowRelease) EscrowReleaseResponse {
	return EscrowReleaseResponse{
		SellerEntry: ToLedgerEntryResponse(&r.SellerEntry),
		FeeEntry:    ToLedgerEntryResponse(&r.FeeEntry),
		GrossAmount: r.GrossAmount,
		NetAmount:   r.NetAmount,
		FeeAmount:   r.FeeAmount,
	}
}
