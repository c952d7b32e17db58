package services

import (
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/platform/config"
	"github.com/groupcart/groupcart_backend/internal/utils"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, posthogClient *utils.PosthogClientWrapper) *portssvc.ServiceContainer {
	// Create the container structure first
	container := &portssvc.ServiceContainer{}

	// Leaf services first: everything downstream composes these.
	container.Reservation = NewReservationService(repos.CampaignRepo)
	container.Escrow = NewEscrowService(repos.WalletRepo, cfg.PlatformFeePercent, cfg.CurrencyMinorUnits)
	container.Audit = NewAuditService(repos.AuditRepo)
	container.Notifier = NewLogNotifierService(posthogClient)

	// The campaign service is the single code path for every state
	// transition; the scheduler drives it on a timer.
	container.Campaign = NewCampaignService(
		repos.CampaignRepo,
		container.Reservation,
		container.Escrow,
		container.Audit,
		container.Notifier,
	)
	container.Scheduler = NewSchedulerService(container.Campaign, cfg.SchedulerInterval)

	// User management provisions wallets through the escrow service.
	container.User = NewUserService(repos.UserRepo, container.Escrow, cfg.WalletCurrencyCode)
	container.Token = NewTokenService(cfg, container.User)
	container.GoogleOAuth = NewGoogleOAuthHandlerService(cfg)

	return container
}
