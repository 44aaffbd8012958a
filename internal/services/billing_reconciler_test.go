package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/parlour/internal/domain/billing"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/repository/memory"
	"github.com/pratik-mahalle/parlour/internal/testutil"
)

func newReconcilerFixture(t *testing.T) (*BillingReconciler, *memory.Store, *user.User) {
	t.Helper()
	store := memory.New(time.Now)
	now := time.Now()
	customerID := "cus_123"
	u := &user.User{
		ID:         "user-1",
		Email:      "billing@example.com",
		Tier:       user.TierFree,
		CustomerID: &customerID,
		Usage:      user.Usage{LastResetAt: now},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, store.Create(context.Background(), u))
	return NewBillingReconciler(store, store, testutil.NewLogger()), store, u
}

func TestBillingReconciler_ApplyEvent(t *testing.T) {
	tests := []struct {
		name     string
		start    user.Tier
		event    billing.Event
		wantTier user.Tier
	}{
		{
			name:     "subscription active",
			start:    user.TierFree,
			event:    billing.Event{Type: billing.SubscriptionChanged, CustomerID: "cus_123", SubscriptionID: "sub_1", Status: "active"},
			wantTier: user.TierActive,
		},
		{
			name:     "subscription trialing",
			start:    user.TierFree,
			event:    billing.Event{Type: billing.SubscriptionChanged, CustomerID: "cus_123", SubscriptionID: "sub_1", Status: "trialing"},
			wantTier: user.TierActive,
		},
		{
			name:     "subscription unpaid",
			start:    user.TierActive,
			event:    billing.Event{Type: billing.SubscriptionChanged, CustomerID: "cus_123", SubscriptionID: "sub_1", Status: "unpaid"},
			wantTier: user.TierPastDue,
		},
		{
			name:     "unmapped status keeps tier",
			start:    user.TierActive,
			event:    billing.Event{Type: billing.SubscriptionChanged, CustomerID: "cus_123", SubscriptionID: "sub_1", Status: "mystery"},
			wantTier: user.TierActive,
		},
		{
			name:     "subscription deleted",
			start:    user.TierActive,
			event:    billing.Event{Type: billing.SubscriptionCancelled, CustomerID: "cus_123", SubscriptionID: "sub_1", Status: "canceled"},
			wantTier: user.TierCancelled,
		},
		{
			name:     "payment succeeded",
			start:    user.TierPastDue,
			event:    billing.Event{Type: billing.PaymentSucceeded, CustomerID: "cus_123"},
			wantTier: user.TierActive,
		},
		{
			name:     "payment failed",
			start:    user.TierActive,
			event:    billing.Event{Type: billing.PaymentFailed, CustomerID: "cus_123"},
			wantTier: user.TierPastDue,
		},
		{
			name:     "ignored event",
			start:    user.TierFree,
			event:    billing.Event{ProviderType: "customer.created", CustomerID: "cus_123"},
			wantTier: user.TierFree,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, store, u := newReconcilerFixture(t)
			ctx := context.Background()
			start := tt.start
			_, err := store.Update(ctx, u.ID, user.Update{Tier: &start})
			require.NoError(t, err)

			require.NoError(t, r.ApplyEvent(ctx, tt.event))

			got, err := store.GetByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTier, got.Tier)
		})
	}
}

func TestBillingReconciler_Idempotent(t *testing.T) {
	r, store, u := newReconcilerFixture(t)
	ctx := context.Background()
	ev := billing.Event{
		ID:             "evt_1",
		Type:           billing.SubscriptionChanged,
		CustomerID:     "cus_123",
		SubscriptionID: "sub_9",
		Status:         "active",
		PeriodStart:    time.Unix(1_700_000_000, 0).UTC(),
		PeriodEnd:      time.Unix(1_702_592_000, 0).UTC(),
	}

	require.NoError(t, r.ApplyEvent(ctx, ev))
	first, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, r.ApplyEvent(ctx, ev))
	second, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Tier, second.Tier)
	require.NotNil(t, second.SubscriptionID)
	assert.Equal(t, "sub_9", *second.SubscriptionID)

	sub, err := store.GetSubscription(ctx, "sub_9")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sub.UserID)
	assert.Equal(t, "active", sub.Status)
	assert.True(t, ev.PeriodEnd.Equal(sub.CurrentPeriodEnd))
}

func TestBillingReconciler_UnknownCustomer(t *testing.T) {
	r, store, u := newReconcilerFixture(t)
	ctx := context.Background()

	err := r.ApplyEvent(ctx, billing.Event{Type: billing.PaymentFailed, CustomerID: "cus_other"})
	require.NoError(t, err)

	got, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, user.TierFree, got.Tier)
}

func TestBillingReconciler_PreservesUsage(t *testing.T) {
	r, store, u := newReconcilerFixture(t)
	ctx := context.Background()

	_, err := store.MutateUsage(ctx, u.ID, func(us *user.Usage) error {
		us.Messages = 42
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, r.ApplyEvent(ctx, billing.Event{Type: billing.PaymentFailed, CustomerID: "cus_123"}))

	got, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, user.TierPastDue, got.Tier)
	assert.EqualValues(t, 42, got.Usage.Messages)
}
