package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/core/services"
	"github.com/groupcart/groupcart_backend/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock CampaignLifecycleSvc ---
type MockLifecycleService struct {
	mock.Mock
}

var _ portssvc.CampaignLifecycleSvc = (*MockLifecycleService)(nil)

func (m *MockLifecycleService) JoinCampaign(ctx context.Context, campaignID string, req dto.JoinCampaignRequest, buyerID string) (*domain.Participant, error) {
	args := m.Called(ctx, campaignID, req, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participant), args.Error(1)
}

func (m *MockLifecycleService) CancelParticipation(ctx context.Context, participantID string, reason string, userID string) (*domain.Participant, error) {
	args := m.Called(ctx, participantID, reason, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participant), args.Error(1)
}

func (m *MockLifecycleService) RunLifecycle(ctx context.Context) ([]domain.LifecycleTransition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LifecycleTransition), args.Error(1)
}

// --- Test Suite Setup ---
type SchedulerServiceTestSuite struct {
	suite.Suite
	mockLifecycle *MockLifecycleService
	service       portssvc.SchedulerSvc
}

func (suite *SchedulerServiceTestSuite) SetupTest() {
	suite.mockLifecycle = new(MockLifecycleService)
	// An hour-long interval keeps the timer from firing during tests; every
	// pass below goes through TriggerNow.
	suite.service = services.NewSchedulerService(suite.mockLifecycle, time.Hour)
}

// --- Test Cases ---

func (suite *SchedulerServiceTestSuite) TestTriggerNow_AppliesTransitions() {
	ctx := context.Background()
	transitions := []domain.LifecycleTransition{
		{CampaignID: "c1", FromStatus: domain.CampaignScheduled, ToStatus: domain.CampaignActive},
		{CampaignID: "c2", FromStatus: domain.CampaignLocked, ToStatus: domain.CampaignFulfilled, ParticipantsConfirmed: 3},
	}
	suite.mockLifecycle.On("RunLifecycle", ctx).Return(transitions, nil).Once()

	result, err := suite.service.TriggerNow(ctx)

	suite.Require().NoError(err)
	suite.Len(result, 2)

	status := suite.service.Status()
	suite.Equal(uint64(1), status.RunsTotal)
	suite.Equal(uint64(2), status.TransitionsTotal)
	suite.Empty(status.LastError)
	suite.Require().NotNil(status.LastRunAt)
	suite.Require().NotNil(status.LastSuccessAt)
	suite.False(status.InFlight)
	suite.mockLifecycle.AssertExpectations(suite.T())
}

func (suite *SchedulerServiceTestSuite) TestTriggerNow_PropagatesLifecycleError() {
	ctx := context.Background()
	suite.mockLifecycle.On("RunLifecycle", ctx).Return(nil, assert.AnError).Once()

	_, err := suite.service.TriggerNow(ctx)

	suite.Require().Error(err)
	suite.ErrorIs(err, assert.AnError)

	status := suite.service.Status()
	suite.Equal(uint64(1), status.RunsTotal)
	suite.Equal(assert.AnError.Error(), status.LastError)
	suite.Nil(status.LastSuccessAt)
	suite.mockLifecycle.AssertExpectations(suite.T())
}

func (suite *SchedulerServiceTestSuite) TestTriggerNow_OverlapSkipped() {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)

	suite.mockLifecycle.On("RunLifecycle", ctx).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return([]domain.LifecycleTransition{}, nil).Once()

	go func() {
		_, err := suite.service.TriggerNow(ctx)
		firstDone <- err
	}()
	<-started

	// The gate is held by the first pass; a second trigger must be refused,
	// not queued.
	_, err := suite.service.TriggerNow(ctx)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)

	status := suite.service.Status()
	suite.True(status.InFlight)
	suite.Equal(uint64(1), status.OverlapsSkipped)

	close(release)
	suite.Require().NoError(<-firstDone)

	status = suite.service.Status()
	suite.False(status.InFlight)
	suite.Equal(uint64(1), status.RunsTotal)
	suite.mockLifecycle.AssertExpectations(suite.T())
}

func (suite *SchedulerServiceTestSuite) TestStartAndStop_Idempotent() {
	ctx := context.Background()

	suite.service.Start(ctx)
	status := suite.service.Status()
	suite.True(status.Running)
	suite.Require().NotNil(status.NextRunAt)
	suite.True(status.NextRunAt.After(time.Now()))

	// A second Start must not spawn a second loop.
	suite.service.Start(ctx)
	suite.True(suite.service.Status().Running)

	suite.Require().NoError(suite.service.Stop(ctx))
	suite.False(suite.service.Status().Running)

	// Stopping again is a no-op.
	suite.Require().NoError(suite.service.Stop(ctx))
	suite.mockLifecycle.AssertNotCalled(suite.T(), "RunLifecycle", mock.Anything)
}

func (suite *SchedulerServiceTestSuite) TestStop_WaitsForInFlightPass() {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	triggerDone := make(chan struct{})
	stopDone := make(chan error, 1)

	suite.mockLifecycle.On("RunLifecycle", ctx).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return([]domain.LifecycleTransition{}, nil).Once()

	suite.service.Start(ctx)
	go func() {
		_, _ = suite.service.TriggerNow(ctx)
		close(triggerDone)
	}()
	<-started

	go func() {
		stopDone <- suite.service.Stop(context.Background())
	}()

	select {
	case <-stopDone:
		suite.Fail("Stop returned while a pass was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-triggerDone
	suite.Require().NoError(<-stopDone)
	suite.False(suite.service.Status().Running)
}

func (suite *SchedulerServiceTestSuite) TestStatus_IdleDefaults() {
	status := suite.service.Status()

	suite.False(status.Running)
	suite.False(status.InFlight)
	suite.Equal(time.Hour, status.Interval)
	suite.Equal(uint64(0), status.RunsTotal)
	suite.Nil(status.LastRunAt)
	suite.Nil(status.NextRunAt)
	suite.False(status.Healthy())
}

func (suite *SchedulerServiceTestSuite) TestStatus_HealthyTracksLastError() {
	ctx := context.Background()
	suite.service.Start(ctx)
	defer func() { _ = suite.service.Stop(ctx) }()

	suite.mockLifecycle.On("RunLifecycle", ctx).Return([]domain.LifecycleTransition{}, nil).Once()
	_, err := suite.service.TriggerNow(ctx)
	suite.Require().NoError(err)
	suite.True(suite.service.Status().Healthy())

	suite.mockLifecycle.On("RunLifecycle", ctx).Return(nil, assert.AnError).Once()
	_, err = suite.service.TriggerNow(ctx)
	suite.Require().Error(err)
	suite.False(suite.service.Status().Healthy())
}

func TestSchedulerService(t *testing.T) {
	suite.Run(t, new(SchedulerServiceTestSuite))
}
