package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/parlour/internal/config"
	"github.com/pratik-mahalle/parlour/internal/domain/billing"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/testutil"
)

var testBillingConfig = config.BillingConfig{
	MonthlyPriceID: "price_m",
	YearlyPriceID:  "price_y",
	SuccessPath:    "/success?session_id={CHECKOUT_SESSION_ID}",
	CancelPath:     "/cancel",
}

func newBillingFixture(t *testing.T, provider billing.Provider) (*BillingService, *AccountService) {
	t.Helper()
	var opts []AccountOption
	if provider != nil {
		opts = append(opts, WithCustomerProvisioning(provider))
	}
	accounts, store, _ := newAccountFixture(t, opts...)
	reconciler := NewBillingReconciler(store, store, testutil.NewLogger())
	return NewBillingService(accounts, provider, reconciler, testBillingConfig, testutil.NewLogger()), accounts
}

func TestBillingService_Pricing(t *testing.T) {
	svc, _ := newBillingFixture(t, nil)

	p := svc.Pricing()
	assert.Equal(t, "price_m", p.Monthly.ID)
	assert.Equal(t, "price_y", p.Yearly.ID)
	assert.True(t, p.Has("price_y"))
	assert.False(t, p.Has("price_other"))
}

func TestBillingService_CreateCheckout(t *testing.T) {
	fake := testutil.NewFakeBilling("whsec")
	svc, accounts := newBillingFixture(t, fake)
	ctx := context.Background()

	u, err := accounts.CreateUser(ctx, "checkout@example.com", "")
	require.NoError(t, err)

	t.Run("unknown price", func(t *testing.T) {
		_, err := svc.CreateCheckout(ctx, u.ID, "price_nope", "https://app.example.com")
		assert.Equal(t, http.StatusBadRequest, errors.As(err).StatusCode)
	})

	t.Run("known price", func(t *testing.T) {
		sess, err := svc.CreateCheckout(ctx, u.ID, "price_m", "https://app.example.com/")
		require.NoError(t, err)
		assert.Equal(t, "cs_test_cus_"+u.ID, sess.ID)
		assert.NotEmpty(t, sess.URL)
	})
}

func TestBillingService_NotConfigured(t *testing.T) {
	svc, accounts := newBillingFixture(t, nil)
	ctx := context.Background()
	u, err := accounts.CreateUser(ctx, "plain@example.com", "")
	require.NoError(t, err)

	_, err = svc.CreateCheckout(ctx, u.ID, "price_m", "")
	assert.ErrorIs(t, err, billing.ErrNotConfigured)

	err = svc.CancelSubscription(ctx, u.ID)
	assert.ErrorIs(t, err, billing.ErrNotConfigured)

	err = svc.HandleWebhook(ctx, []byte("{}"), "sig")
	assert.ErrorIs(t, err, billing.ErrNotConfigured)
}

func TestBillingService_CancelSubscription(t *testing.T) {
	fake := testutil.NewFakeBilling("whsec")
	svc, accounts := newBillingFixture(t, fake)
	ctx := context.Background()
	u, err := accounts.CreateUser(ctx, "cancel@example.com", "")
	require.NoError(t, err)

	err = svc.CancelSubscription(ctx, u.ID)
	assert.Equal(t, http.StatusNotFound, errors.As(err).StatusCode)

	subID := "sub_42"
	_, err = accounts.UpdateUser(ctx, u.ID, user.Update{SubscriptionID: &subID})
	require.NoError(t, err)

	require.NoError(t, svc.CancelSubscription(ctx, u.ID))
	assert.Equal(t, []string{"sub_42"}, fake.Cancelled)

	got, err := accounts.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, user.TierFree, got.Tier, "tier waits for the provider event")
}

func TestBillingService_HandleWebhook(t *testing.T) {
	fake := testutil.NewFakeBilling("whsec")
	svc, accounts := newBillingFixture(t, fake)
	ctx := context.Background()

	reg, err := accounts.Register(ctx, "hook@example.com", "")
	require.NoError(t, err)

	fake.AddEvent(`{"id":"evt_1"}`, billing.Event{
		ID:         "evt_1",
		Type:       billing.PaymentFailed,
		CustomerID: *reg.User.CustomerID,
	})

	t.Run("bad signature", func(t *testing.T) {
		err := svc.HandleWebhook(ctx, []byte(`{"id":"evt_1"}`), "forged")
		require.Error(t, err)
		appErr := errors.As(err)
		assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
		assert.Equal(t, errors.ErrCodeWebhookVerification, appErr.Code)
	})

	t.Run("applied", func(t *testing.T) {
		require.NoError(t, svc.HandleWebhook(ctx, []byte(`{"id":"evt_1"}`), "whsec"))

		got, err := accounts.GetUser(ctx, reg.User.ID)
		require.NoError(t, err)
		assert.Equal(t, user.TierPastDue, got.Tier)
	})
}
