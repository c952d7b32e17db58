package pgsql

import (
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	campaignRepo := newPgxCampaignRepository(dbPool)
	walletRepo := newPgxWalletRepository(dbPool)
	auditRepo := newPgxAuditRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)

	return portsrepo.RepositoryProvider{
		CampaignRepo: campaignRepo,
		WalletRepo:   walletRepo,
		AuditRepo:    auditRepo,
		UserRepo:     userRepo,
	}
}
