package mapping

import (
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	"github.com/groupcart/groupcart_backend/internal/models"
)

// ToModelWallet converts a domain Wallet to a model Wallet
func ToModelWallet(d domain.Wallet) models.Wallet {
	return models.Wallet{
		WalletID:     d.WalletID,
		ActorID:      d.ActorID,
		CurrencyCode: d.CurrencyCode,
		Balance:      d.Balance,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainWallet converts a model Wallet to a domain Wallet
func ToDomainWallet(m models.Wallet) domain.Wallet {
	return domain.Wallet{
		WalletID:     m.WalletID,
		ActorID:      m.ActorID,
		CurrencyCode: m.CurrencyCode,
		Balance:      m.Balance,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry.
// An empty wallet id becomes NULL, which only FEE_REVENUE rows use.
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	m := models.LedgerEntry{
		TransactionID: d.TransactionID,
		EntryType:     models.LedgerEntryType(d.EntryType),
		Amount:        d.Amount,
		CurrencyCode:  d.CurrencyCode,
		BalanceBefore: d.BalanceBefore,
		BalanceAfter:  d.BalanceAfter,
		Status:        models.LedgerEntryStatus(d.Status),
		ReferenceType: string(d.Reference.Type),
		ReferenceID:   d.Reference.ID,
		Description:   d.Description,
		SettledAt:     d.SettledAt,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
	if d.WalletID != "" {
		walletID := d.WalletID
		m.WalletID = &walletID
	}
	return m
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	d := domain.LedgerEntry{
		TransactionID: m.TransactionID,
		EntryType:     domain.LedgerEntryType(m.EntryType),
		Amount:        m.Amount,
		CurrencyCode:  m.CurrencyCode,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Status:        domain.LedgerEntryStatus(m.Status),
		Reference: domain.EntryReference{
			Type: domain.ReferenceType(m.ReferenceType),
			ID:   m.ReferenceID,
		},
		Description: m.Description,
		SettledAt:   m.SettledAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	if m.WalletID != nil {
		d.WalletID = *m.WalletID
	}
	return d
}

// ToDomainLedgerEntrySlice converts a slice of model LedgerEntries to a slice of domain LedgerEntries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
