package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/core/services"
	"github.com/groupcart/groupcart_backend/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// The oversell guarantee only shows up under real interleaving, which scripted
// mock expectations cannot produce. These tests run the actual campaign and
// reservation services against mutex-guarded in-memory fakes instead.

// --- Fake campaign store ---

type fakeCampaignStore struct {
	mu            sync.Mutex
	campaign      domain.Campaign
	participants  map[string]domain.Participant
	byIdemKey     map[string]string
	releasedSlots int
}

var _ portsrepo.CampaignRepositoryFacade = (*fakeCampaignStore)(nil)

func newFakeCampaignStore(campaign domain.Campaign) *fakeCampaignStore {
	return &fakeCampaignStore{
		campaign:     campaign,
		participants: make(map[string]domain.Participant),
		byIdemKey:    make(map[string]string),
	}
}

func (f *fakeCampaignStore) FindCampaignByID(_ context.Context, campaignID string) (*domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if campaignID != f.campaign.CampaignID {
		return nil, apperrors.ErrNotFound
	}
	c := f.campaign
	return &c, nil
}

func (f *fakeCampaignStore) ListCampaigns(_ context.Context, _ []domain.CampaignStatus, _ int, _ *string) ([]domain.Campaign, *string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []domain.Campaign{f.campaign}, nil, nil
}

func (f *fakeCampaignStore) FindDueCampaigns(_ context.Context, _ time.Time, _ int) ([]domain.Campaign, error) {
	return nil, nil
}

func (f *fakeCampaignStore) GetCampaignProgress(_ context.Context, campaignID string) (*domain.CampaignProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if campaignID != f.campaign.CampaignID {
		return nil, apperrors.ErrNotFound
	}
	total := decimal.Zero
	for _, p := range f.participants {
		total = total.Add(p.ContributionAmount)
	}
	return &domain.CampaignProgress{
		CampaignID:        f.campaign.CampaignID,
		Status:            f.campaign.Status,
		TotalSlots:        f.campaign.TotalSlots,
		FilledSlots:       f.campaign.FilledSlots,
		AvailableSlots:    f.campaign.TotalSlots - f.campaign.FilledSlots,
		ProgressPercent:   f.campaign.ProgressPercent,
		ParticipantCount:  len(f.participants),
		TotalContribution: total,
		Deadline:          f.campaign.Deadline,
	}, nil
}

func (f *fakeCampaignStore) SaveCampaign(_ context.Context, campaign domain.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaign = campaign
	return nil
}

func (f *fakeCampaignStore) ReserveSlots(_ context.Context, campaignID string, slotCount int, _ string, now time.Time) (*domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if campaignID != f.campaign.CampaignID {
		return nil, apperrors.ErrNotFound
	}
	if !f.campaign.Status.AcceptsReservations() {
		return nil, fmt.Errorf("campaign is %s: %w", f.campaign.Status, apperrors.ErrCampaignClosed)
	}
	available := f.campaign.TotalSlots - f.campaign.FilledSlots
	if slotCount > available {
		return nil, fmt.Errorf("%d available, %d requested: %w", available, slotCount, apperrors.ErrInsufficientSlots)
	}
	f.campaign.FilledSlots += slotCount
	f.campaign.ProgressPercent = domain.ComputeProgressPercent(f.campaign.FilledSlots, f.campaign.TotalSlots)
	if f.campaign.FilledSlots == f.campaign.TotalSlots {
		f.campaign.Status = domain.CampaignLocked
		if f.campaign.LockedAt == nil {
			lockedAt := now
			f.campaign.LockedAt = &lockedAt
		}
	}
	c := f.campaign
	return &c, nil
}

func (f *fakeCampaignStore) ReleaseSlots(_ context.Context, campaignID string, slotCount int, _ string, _ time.Time) (*domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if campaignID != f.campaign.CampaignID {
		return nil, apperrors.ErrNotFound
	}
	if f.campaign.Status.IsTerminal() {
		return nil, fmt.Errorf("campaign is %s: %w", f.campaign.Status, apperrors.ErrCampaignClosed)
	}
	f.campaign.FilledSlots -= slotCount
	if f.campaign.FilledSlots < 0 {
		f.campaign.FilledSlots = 0
	}
	f.campaign.ProgressPercent = domain.ComputeProgressPercent(f.campaign.FilledSlots, f.campaign.TotalSlots)
	if f.campaign.Status == domain.CampaignLocked && f.campaign.FilledSlots < f.campaign.TotalSlots {
		f.campaign.Status = domain.CampaignActive
		f.campaign.LockedAt = nil
	}
	f.releasedSlots += slotCount
	c := f.campaign
	return &c, nil
}

func (f *fakeCampaignStore) TransitionCampaignStatus(_ context.Context, campaignID string, from []domain.CampaignStatus, to domain.CampaignStatus, _ string, _ time.Time) (*domain.Campaign, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if campaignID != f.campaign.CampaignID {
		return nil, false, apperrors.ErrNotFound
	}
	for _, s := range from {
		if f.campaign.Status == s {
			f.campaign.Status = to
			c := f.campaign
			return &c, true, nil
		}
	}
	c := f.campaign
	return &c, false, nil
}

func (f *fakeCampaignStore) FindParticipantByID(_ context.Context, participantID string) (*domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participants[participantID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (f *fakeCampaignStore) FindParticipantByIdempotencyKey(_ context.Context, campaignID, idempotencyKey string) (*domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byIdemKey[campaignID+"/"+idempotencyKey]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p := f.participants[id]
	return &p, nil
}

func (f *fakeCampaignStore) ListParticipantsByCampaign(_ context.Context, campaignID string) ([]domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Participant
	for _, p := range f.participants {
		if p.CampaignID == campaignID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCampaignStore) ListParticipantsByStatuses(_ context.Context, campaignID string, statuses []domain.ParticipantStatus) ([]domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Participant
	for _, p := range f.participants {
		if p.CampaignID != campaignID {
			continue
		}
		for _, s := range statuses {
			if p.Status == s {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeCampaignStore) SaveParticipant(_ context.Context, participant domain.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if participant.IdempotencyKey != nil && *participant.IdempotencyKey != "" {
		key := participant.CampaignID + "/" + *participant.IdempotencyKey
		if _, taken := f.byIdemKey[key]; taken {
			return fmt.Errorf("idempotency key already used: %w", apperrors.ErrDuplicate)
		}
		f.byIdemKey[key] = participant.ParticipantID
	}
	f.participants[participant.ParticipantID] = participant
	return nil
}

func (f *fakeCampaignStore) UpdateParticipantStatus(_ context.Context, participantID string, from []domain.ParticipantStatus, to domain.ParticipantStatus, userID string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participants[participantID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	for _, s := range from {
		if p.Status == s {
			p.Status = to
			p.LastUpdatedAt = now
			p.LastUpdatedBy = userID
			f.participants[participantID] = p
			return true, nil
		}
	}
	return false, nil
}

// snapshot returns a copy of the campaign and participant set.
func (f *fakeCampaignStore) snapshot() (domain.Campaign, []domain.Participant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ps := make([]domain.Participant, 0, len(f.participants))
	for _, p := range f.participants {
		ps = append(ps, p)
	}
	return f.campaign, ps
}

// --- Fake escrow service ---

type fakeEscrowService struct {
	mu          sync.Mutex
	wallets     map[string]domain.Wallet // keyed by actor ID
	liveHolds   map[string]decimal.Decimal
	failHoldFor map[string]bool // buyer IDs whose holds error out
	holdsPlaced int
	refunds     int
}

var _ portssvc.EscrowSvcFacade = (*fakeEscrowService)(nil)

func newFakeEscrowService() *fakeEscrowService {
	return &fakeEscrowService{
		wallets:     make(map[string]domain.Wallet),
		liveHolds:   make(map[string]decimal.Decimal),
		failHoldFor: make(map[string]bool),
	}
}

func (f *fakeEscrowService) addWallet(actorID, currencyCode string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wallets[actorID] = domain.Wallet{
		WalletID:     uuid.NewString(),
		ActorID:      actorID,
		CurrencyCode: currencyCode,
		Balance:      decimal.NewFromInt(1_000_000),
	}
}

func (f *fakeEscrowService) GetWallet(_ context.Context, walletID string) (*domain.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.wallets {
		if w.WalletID == walletID {
			return &w, nil
		}
	}
	return nil, apperrors.ErrWalletNotFound
}

func (f *fakeEscrowService) GetWalletByActor(_ context.Context, actorID string) (*domain.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[actorID]
	if !ok {
		return nil, apperrors.ErrWalletNotFound
	}
	return &w, nil
}

func (f *fakeEscrowService) GetLedgerEntry(_ context.Context, transactionID string) (*domain.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	amount, ok := f.liveHolds[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &domain.LedgerEntry{
		TransactionID: transactionID,
		EntryType:     domain.EntryHold,
		Amount:        amount.Neg(),
		Status:        domain.EntryOnHold,
	}, nil
}

func (f *fakeEscrowService) ListWalletEntries(_ context.Context, _ string, _ int, _ *string) ([]domain.LedgerEntry, *string, error) {
	return nil, nil, nil
}

func (f *fakeEscrowService) CreateWallet(_ context.Context, actorID string, currencyCode string, _ string) (*domain.Wallet, error) {
	f.addWallet(actorID, currencyCode)
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.wallets[actorID]
	return &w, nil
}

func (f *fakeEscrowService) HoldFunds(_ context.Context, walletID string, amount decimal.Decimal, reference domain.EntryReference, description string, userID string) (*domain.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHoldFor[userID] {
		return nil, assert.AnError
	}
	txnID := uuid.NewString()
	f.liveHolds[txnID] = amount
	f.holdsPlaced++
	return &domain.LedgerEntry{
		TransactionID: txnID,
		WalletID:      walletID,
		EntryType:     domain.EntryHold,
		Amount:        amount.Neg(),
		Status:        domain.EntryOnHold,
		Reference:     reference,
		Description:   description,
	}, nil
}

func (f *fakeEscrowService) ReleaseHold(_ context.Context, holdTransactionID string, _ string, _ string) (*domain.EscrowRelease, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.liveHolds[holdTransactionID]; !ok {
		return nil, apperrors.ErrInvalidHoldState
	}
	delete(f.liveHolds, holdTransactionID)
	return &domain.EscrowRelease{}, nil
}

func (f *fakeEscrowService) RefundHold(_ context.Context, holdTransactionID string, _ string, _ string) (*domain.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	amount, ok := f.liveHolds[holdTransactionID]
	if !ok {
		return nil, apperrors.ErrInvalidHoldState
	}
	delete(f.liveHolds, holdTransactionID)
	f.refunds++
	return &domain.LedgerEntry{
		TransactionID: uuid.NewString(),
		EntryType:     domain.EntryRefund,
		Amount:        amount,
		Status:        domain.EntryRefunded,
	}, nil
}

func (f *fakeEscrowService) CalculateFee(_ decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

func (f *fakeEscrowService) counts() (holdsPlaced, liveHolds, refunds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holdsPlaced, len(f.liveHolds), f.refunds
}

// --- Fake audit trail ---

type fakeAuditTrail struct {
	mu     sync.Mutex
	events map[string]int
}

var _ portssvc.AuditSvcFacade = (*fakeAuditTrail)(nil)

func newFakeAuditTrail() *fakeAuditTrail {
	return &fakeAuditTrail{events: make(map[string]int)}
}

func (f *fakeAuditTrail) RecordEvent(_ context.Context, _ string, eventName string, _ map[string]any, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[eventName]++
	return nil
}

func (f *fakeAuditTrail) ListCampaignEvents(_ context.Context, _ string, _ int, _ *string) ([]domain.AuditEvent, *string, error) {
	return nil, nil, nil
}

func (f *fakeAuditTrail) count(eventName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[eventName]
}

// --- Fake notifier ---

type fakeNotifier struct{}

var _ portssvc.CampaignNotifierSvc = (*fakeNotifier)(nil)

func (fakeNotifier) NotifyFulfilled(context.Context, domain.Campaign, []domain.Participant) {}
func (fakeNotifier) NotifyExpired(context.Context, domain.Campaign, []domain.Participant)   {}
func (fakeNotifier) NotifyCancelled(context.Context, domain.Campaign, []domain.Participant) {}

// --- Test Suite Setup ---

type CampaignConcurrencyTestSuite struct {
	suite.Suite
	store    *fakeCampaignStore
	escrow   *fakeEscrowService
	audit    *fakeAuditTrail
	service  portssvc.CampaignSvcFacade
	campaign domain.Campaign
}

func (suite *CampaignConcurrencyTestSuite) SetupTest() {
	sellerID := uuid.NewString()
	now := time.Now()
	suite.campaign = domain.Campaign{
		CampaignID:      uuid.NewString(),
		SellerID:        sellerID,
		ProductID:       uuid.NewString(),
		Title:           "Bulk Coffee Beans",
		PricePerSlot:    decimal.NewFromInt(25),
		CurrencyCode:    "USD",
		TotalSlots:      10,
		FilledSlots:     0,
		ProgressPercent: decimal.Zero,
		Status:          domain.CampaignActive,
		Deadline:        now.Add(48 * time.Hour),
		AuditFields: domain.AuditFields{
			CreatedAt:     now.Add(-time.Hour),
			CreatedBy:     sellerID,
			LastUpdatedAt: now.Add(-time.Hour),
			LastUpdatedBy: sellerID,
			Version:       1,
		},
	}

	suite.store = newFakeCampaignStore(suite.campaign)
	suite.escrow = newFakeEscrowService()
	suite.audit = newFakeAuditTrail()

	reservation := services.NewReservationService(suite.store)
	suite.service = services.NewCampaignService(suite.store, reservation, suite.escrow, suite.audit, fakeNotifier{})
}

// --- Test Cases ---

func (suite *CampaignConcurrencyTestSuite) TestConcurrentJoins_NeverOversell() {
	ctx := context.Background()
	const joiners = 25

	buyers := make([]string, joiners)
	for i := range buyers {
		buyers[i] = uuid.NewString()
		suite.escrow.addWallet(buyers[i], "USD")
	}

	errs := make([]error, joiners)
	var wg sync.WaitGroup
	wg.Add(joiners)
	for i := 0; i < joiners; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.service.JoinCampaign(ctx, suite.campaign.CampaignID, dto.JoinCampaignRequest{SlotCount: 1}, buyers[i])
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		// Latecomers fail on capacity, or on the closed state once the fill locked it
		suite.True(errors.Is(err, apperrors.ErrInsufficientSlots) || errors.Is(err, apperrors.ErrCampaignClosed),
			"unexpected join error: %v", err)
	}
	suite.Equal(10, successes)

	campaign, participants := suite.store.snapshot()
	suite.Equal(10, campaign.FilledSlots)
	suite.Equal(domain.CampaignLocked, campaign.Status)
	suite.Require().NotNil(campaign.LockedAt)
	suite.Len(participants, 10)
	for _, p := range participants {
		suite.Equal(1, p.SlotCount)
		suite.True(p.ContributionAmount.Equal(decimal.NewFromInt(25)))
		suite.Equal(domain.ParticipantPendingPayment, p.Status)
	}

	holdsPlaced, liveHolds, refunds := suite.escrow.counts()
	suite.Equal(10, holdsPlaced)
	suite.Equal(10, liveHolds)
	suite.Zero(refunds)
	suite.Zero(suite.store.releasedSlots)

	suite.Equal(10, suite.audit.count(domain.EventParticipantJoined))
	suite.Equal(1, suite.audit.count(domain.EventCampaignLocked))
}

func (suite *CampaignConcurrencyTestSuite) TestConcurrentJoins_TwoOversizedRequestsOnlyOneFits() {
	ctx := context.Background()

	buyerA := uuid.NewString()
	buyerB := uuid.NewString()
	suite.escrow.addWallet(buyerA, "USD")
	suite.escrow.addWallet(buyerB, "USD")

	var errA, errB error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errA = suite.service.JoinCampaign(ctx, suite.campaign.CampaignID, dto.JoinCampaignRequest{SlotCount: 7}, buyerA)
	}()
	go func() {
		defer wg.Done()
		_, errB = suite.service.JoinCampaign(ctx, suite.campaign.CampaignID, dto.JoinCampaignRequest{SlotCount: 5}, buyerB)
	}()
	wg.Wait()

	// 7+5 exceeds the 10-slot capacity, so whichever commits second must fail
	// on capacity. Neither request fills the campaign, so it never locks.
	if errA == nil {
		suite.ErrorIs(errB, apperrors.ErrInsufficientSlots)
	} else {
		suite.NoError(errB)
		suite.ErrorIs(errA, apperrors.ErrInsufficientSlots)
	}

	campaign, participants := suite.store.snapshot()
	suite.Require().Len(participants, 1)
	var winner domain.Participant
	for _, p := range participants {
		winner = p
	}
	suite.Equal(winner.SlotCount, campaign.FilledSlots)
	expectedContribution := decimal.NewFromInt(25).Mul(decimal.NewFromInt(int64(winner.SlotCount)))
	suite.True(winner.ContributionAmount.Equal(expectedContribution))
	suite.Equal(domain.CampaignActive, campaign.Status)
	suite.Nil(campaign.LockedAt)

	holdsPlaced, liveHolds, refunds := suite.escrow.counts()
	suite.Equal(1, holdsPlaced)
	suite.Equal(1, liveHolds)
	suite.Zero(refunds)
	suite.Zero(suite.store.releasedSlots)

	suite.Equal(1, suite.audit.count(domain.EventParticipantJoined))
	suite.Zero(suite.audit.count(domain.EventCampaignLocked))
}

func (suite *CampaignConcurrencyTestSuite) TestConcurrentJoins_MixedSlotCountsConserveCapacity() {
	ctx := context.Background()
	const joiners = 20

	buyers := make([]string, joiners)
	for i := range buyers {
		buyers[i] = uuid.NewString()
		suite.escrow.addWallet(buyers[i], "USD")
	}

	var wg sync.WaitGroup
	wg.Add(joiners)
	for i := 0; i < joiners; i++ {
		go func(i int) {
			defer wg.Done()
			slots := 1 + i%3
			_, _ = suite.service.JoinCampaign(ctx, suite.campaign.CampaignID, dto.JoinCampaignRequest{SlotCount: slots}, buyers[i])
		}(i)
	}
	wg.Wait()

	campaign, participants := suite.store.snapshot()
	reserved := 0
	for _, p := range participants {
		reserved += p.SlotCount
	}
	// Exactly the surviving participants' slots are held, never more than capacity
	suite.Equal(reserved, campaign.FilledSlots)
	suite.LessOrEqual(campaign.FilledSlots, campaign.TotalSlots)

	holdsPlaced, liveHolds, _ := suite.escrow.counts()
	suite.Equal(len(participants), holdsPlaced)
	suite.Equal(len(participants), liveHolds)
}

func (suite *CampaignConcurrencyTestSuite) TestConcurrentJoins_HoldFailureReturnsSlots() {
	ctx := context.Background()
	const joiners = 12
	const failing = 4

	buyers := make([]string, joiners)
	for i := range buyers {
		buyers[i] = uuid.NewString()
		suite.escrow.addWallet(buyers[i], "USD")
		if i < failing {
			suite.escrow.failHoldFor[buyers[i]] = true
		}
	}

	errs := make([]error, joiners)
	var wg sync.WaitGroup
	wg.Add(joiners)
	for i := 0; i < joiners; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.service.JoinCampaign(ctx, suite.campaign.CampaignID, dto.JoinCampaignRequest{SlotCount: 1}, buyers[i])
		}(i)
	}
	wg.Wait()

	for i := 0; i < failing; i++ {
		suite.Error(errs[i], "buyer with failing escrow must not join")
	}

	campaign, participants := suite.store.snapshot()
	for _, p := range participants {
		for i := 0; i < failing; i++ {
			suite.NotEqual(buyers[i], p.BuyerID)
		}
	}
	// Compensation returned every slot whose hold failed; occupancy matches
	// surviving participants exactly
	suite.Equal(len(participants), campaign.FilledSlots)

	holdsPlaced, liveHolds, refunds := suite.escrow.counts()
	suite.Equal(len(participants), holdsPlaced)
	suite.Equal(len(participants), liveHolds)
	suite.Zero(refunds)
}

func (suite *CampaignConcurrencyTestSuite) TestConcurrentIdempotentJoins_SingleParticipant() {
	ctx := context.Background()
	// Kept below half capacity so every retry either wins the insert or loses
	// to the unique key, never to an exhausted campaign.
	const attempts = 4

	buyerID := uuid.NewString()
	suite.escrow.addWallet(buyerID, "USD")
	idemKey := uuid.NewString()

	results := make([]*domain.Participant, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = suite.service.JoinCampaign(ctx, suite.campaign.CampaignID,
				dto.JoinCampaignRequest{SlotCount: 2, IdempotencyKey: &idemKey}, buyerID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < attempts; i++ {
		suite.Require().NoError(errs[i])
		suite.Require().NotNil(results[i])
	}
	winnerID := results[0].ParticipantID
	for _, p := range results {
		suite.Equal(winnerID, p.ParticipantID)
	}

	campaign, participants := suite.store.snapshot()
	suite.Require().Len(participants, 1)
	suite.Equal(2, participants[0].SlotCount)
	suite.Equal(2, campaign.FilledSlots)

	// Losing retries unwound their reservation and hold; exactly one hold
	// survives and it belongs to the winner
	_, liveHolds, _ := suite.escrow.counts()
	suite.Equal(1, liveHolds)
	entry, err := suite.escrow.GetLedgerEntry(ctx, participants[0].HoldTransactionID)
	suite.Require().NoError(err)
	suite.Equal(domain.EntryOnHold, entry.Status)
}

func TestCampaignConcurrency(t *testing.T) {
	suite.Run(t, new(CampaignConcurrencyTestSuite))
}
