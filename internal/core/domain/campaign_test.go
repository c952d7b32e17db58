package domain_test

import (
	"testing"
	"time"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCampaignStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from domain.CampaignStatus
		to   domain.CampaignStatus
		want bool
	}{
		{name: "draft to active", from: domain.CampaignDraft, to: domain.CampaignActive, want: true},
		{name: "draft to scheduled", from: domain.CampaignDraft, to: domain.CampaignScheduled, want: true},
		{name: "draft to fulfilled", from: domain.CampaignDraft, to: domain.CampaignFulfilled, want: false},
		{name: "scheduled to active", from: domain.CampaignScheduled, to: domain.CampaignActive, want: true},
		{name: "scheduled to expired", from: domain.CampaignScheduled, to: domain.CampaignExpired, want: true},
		{name: "active to locked", from: domain.CampaignActive, to: domain.CampaignLocked, want: true},
		{name: "active to fulfilled", from: domain.CampaignActive, to: domain.CampaignFulfilled, want: true},
		{name: "active to expired", from: domain.CampaignActive, to: domain.CampaignExpired, want: true},
		{name: "locked reverts to active on release", from: domain.CampaignLocked, to: domain.CampaignActive, want: true},
		{name: "locked to fulfilled", from: domain.CampaignLocked, to: domain.CampaignFulfilled, want: true},
		{name: "locked to expired", from: domain.CampaignLocked, to: domain.CampaignExpired, want: false},
		{name: "any non-terminal to cancelled", from: domain.CampaignLocked, to: domain.CampaignCancelled, want: true},
		{name: "fulfilled is terminal", from: domain.CampaignFulfilled, to: domain.CampaignCancelled, want: false},
		{name: "expired is terminal", from: domain.CampaignExpired, to: domain.CampaignActive, want: false},
		{name: "cancelled is terminal", from: domain.CampaignCancelled, to: domain.CampaignActive, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestCampaignStatus_IsTerminal(t *testing.T) {
	assert.True(t, domain.CampaignFulfilled.IsTerminal())
	assert.True(t, domain.CampaignExpired.IsTerminal())
	assert.True(t, domain.CampaignCancelled.IsTerminal())
	assert.False(t, domain.CampaignDraft.IsTerminal())
	assert.False(t, domain.CampaignScheduled.IsTerminal())
	assert.False(t, domain.CampaignActive.IsTerminal())
	assert.False(t, domain.CampaignLocked.IsTerminal())
}

func TestCampaignStatus_AcceptsReservations(t *testing.T) {
	assert.True(t, domain.CampaignActive.AcceptsReservations())
	assert.True(t, domain.CampaignScheduled.AcceptsReservations())
	assert.False(t, domain.CampaignDraft.AcceptsReservations())
	assert.False(t, domain.CampaignLocked.AcceptsReservations())
	assert.False(t, domain.CampaignFulfilled.AcceptsReservations())
	assert.False(t, domain.CampaignExpired.AcceptsReservations())
	assert.False(t, domain.CampaignCancelled.AcceptsReservations())
}

func TestCampaign_ValidateForActivation(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-time.Hour)
	lateStart := future.Add(time.Hour)

	tests := []struct {
		name     string
		campaign domain.Campaign
		wantErr  bool
		errMsg   string
	}{
		{
			name: "valid draft campaign",
			campaign: domain.Campaign{
				CampaignID: "cmp_1",
				Status:     domain.CampaignDraft,
				TotalSlots: 10,
				Deadline:   future,
			},
			wantErr: false,
		},
		{
			name: "valid with future start before deadline",
			campaign: domain.Campaign{
				CampaignID: "cmp_2",
				Status:     domain.CampaignDraft,
				TotalSlots: 5,
				StartsAt:   &now,
				Deadline:   future,
			},
			wantErr: false,
		},
		{
			name: "not a draft",
			campaign: domain.Campaign{
				CampaignID: "cmp_3",
				Status:     domain.CampaignActive,
				TotalSlots: 10,
				Deadline:   future,
			},
			wantErr: true,
			errMsg:  "only draft campaigns can be activated",
		},
		{
			name: "no capacity",
			campaign: domain.Campaign{
				CampaignID: "cmp_4",
				Status:     domain.CampaignDraft,
				TotalSlots: 0,
				Deadline:   future,
			},
			wantErr: true,
			errMsg:  "no capacity",
		},
		{
			name: "deadline already passed",
			campaign: domain.Campaign{
				CampaignID: "cmp_5",
				Status:     domain.CampaignDraft,
				TotalSlots: 10,
				Deadline:   past,
			},
			wantErr: true,
			errMsg:  "not in the future",
		},
		{
			name: "start after deadline",
			campaign: domain.Campaign{
				CampaignID: "cmp_6",
				Status:     domain.CampaignDraft,
				TotalSlots: 10,
				StartsAt:   &lateStart,
				Deadline:   future,
			},
			wantErr: true,
			errMsg:  "after its deadline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.campaign.ValidateForActivation(now)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestComputeProgressPercent(t *testing.T) {
	tests := []struct {
		name   string
		filled int
		total  int
		want   string
	}{
		{name: "empty", filled: 0, total: 10, want: "0"},
		{name: "partial", filled: 4, total: 10, want: "40"},
		{name: "full", filled: 10, total: 10, want: "100"},
		{name: "rounds to two places", filled: 1, total: 3, want: "33.33"},
		{name: "two thirds", filled: 2, total: 3, want: "66.67"},
		{name: "zero capacity yields zero", filled: 0, total: 0, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := decimal.NewFromString(tt.want)
			assert.NoError(t, err)
			assert.True(t, want.Equal(domain.ComputeProgressPercent(tt.filled, tt.total)),
				"got %s, want %s", domain.ComputeProgressPercent(tt.filled, tt.total), tt.want)
		})
	}
}

func TestLedgerEntry_IsSettled(t *testing.T) {
	assert.True(t, (&domain.LedgerEntry{Status: domain.EntryReleased}).IsSettled())
	assert.True(t, (&domain.LedgerEntry{Status: domain.EntryRefunded}).IsSettled())
	assert.False(t, (&domain.LedgerEntry{Status: domain.EntryOnHold}).IsSettled())
	assert.False(t, (&domain.LedgerEntry{Status: domain.EntryCompleted}).IsSettled())
}

func TestParticipantStatus_CountsTowardCapacity(t *testing.T) {
	assert.True(t, domain.ParticipantPendingPayment.CountsTowardCapacity())
	assert.True(t, domain.ParticipantConfirmed.CountsTowardCapacity())
	assert.True(t, domain.ParticipantFulfilled.CountsTowardCapacity())
	assert.False(t, domain.ParticipantCancelled.CountsTowardCapacity())
	assert.False(t, domain.ParticipantRefunded.CountsTowardCapacity())
}
