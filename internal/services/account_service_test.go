package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/parlour/internal/auth"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/repository/memory"
	"github.com/pratik-mahalle/parlour/internal/testutil"
)

func newAccountFixture(t *testing.T, opts ...AccountOption) (*AccountService, *memory.Store, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock(time.Date(2026, time.May, 2, 12, 0, 0, 0, time.UTC))
	store := memory.New(clock.Now)
	issuer := auth.NewIssuer("test-secret", 24*time.Hour, auth.WithClock(clock.Now))
	opts = append([]AccountOption{WithAccountClock(clock.Now)}, opts...)
	svc := NewAccountService(store, store, issuer, 24*time.Hour, testutil.NewLogger(), opts...)
	return svc, store, clock
}

func TestAccountService_CreateUser(t *testing.T) {
	svc, _, clock := newAccountFixture(t)

	tests := []struct {
		name      string
		email     string
		wantEmail string
		wantErr   bool
	}{
		{name: "plain address", email: "ada@example.com", wantEmail: "ada@example.com"},
		{name: "normalized address", email: "  Grace@Example.COM ", wantEmail: "grace@example.com"},
		{name: "blank address", email: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.CreateUser(context.Background(), tt.email, "Someone")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, u.ID)
			assert.Equal(t, tt.wantEmail, u.Email)
			assert.Equal(t, user.TierFree, u.Tier)
			assert.Zero(t, u.Usage.Messages)
			assert.Equal(t, clock.Now(), u.Usage.LastResetAt)
		})
	}
}

func TestAccountService_CreateUserDuplicate(t *testing.T) {
	svc, _, _ := newAccountFixture(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "dup@example.com", "")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "DUP@example.com", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, user.ErrEmailTaken)
	assert.Equal(t, http.StatusConflict, errors.As(err).StatusCode)
}

func TestAccountService_SessionExpiry(t *testing.T) {
	svc, _, clock := newAccountFixture(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "session@example.com", "")
	require.NoError(t, err)

	sess, err := svc.CreateAccountSession(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(24*time.Hour), sess.ExpiresAt)

	got, err := svc.GetAccountSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	clock.Advance(24*time.Hour + time.Second)

	_, err = svc.GetAccountSession(ctx, sess.ID)
	assert.ErrorIs(t, err, user.ErrSessionNotFound)

	// the expired record is gone, not just hidden
	clock.Set(sess.CreatedAt)
	_, err = svc.GetAccountSession(ctx, sess.ID)
	assert.ErrorIs(t, err, user.ErrSessionNotFound)
}

func TestAccountService_Register(t *testing.T) {
	fake := testutil.NewFakeBilling("whsec")
	svc, store, _ := newAccountFixture(t, WithCustomerProvisioning(fake))
	ctx := context.Background()

	reg, err := svc.Register(ctx, "reg@example.com", "Reg")
	require.NoError(t, err)
	require.NotNil(t, reg.User.CustomerID)
	assert.Equal(t, "cus_"+reg.User.ID, *reg.User.CustomerID)
	assert.NotEmpty(t, reg.Token.Token)

	stored, err := store.GetByCustomerID(ctx, "cus_"+reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, stored.ID)

	issuer := auth.NewIssuer("test-secret", 24*time.Hour, auth.WithClock(func() time.Time { return reg.Session.CreatedAt }))
	claims, err := issuer.Verify(reg.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, reg.Session.ID, claims.SessionID())
}

func TestAccountService_Login(t *testing.T) {
	svc, _, clock := newAccountFixture(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "back@example.com", "Back")
	require.NoError(t, err)

	t.Run("resumes a live session", func(t *testing.T) {
		got, err := svc.Login(ctx, "BACK@example.com", reg.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, got.User.ID)
		assert.Equal(t, reg.Session.ID, got.Session.ID)
		assert.NotEmpty(t, got.Token.Token)
	})

	t.Run("opens a new session once the old one expired", func(t *testing.T) {
		clock.Advance(25 * time.Hour)

		got, err := svc.Login(ctx, "back@example.com", reg.Session.ID)
		require.NoError(t, err)
		assert.NotEqual(t, reg.Session.ID, got.Session.ID)
		assert.Equal(t, clock.Now().Add(24*time.Hour), got.Session.ExpiresAt)

		issuer := auth.NewIssuer("test-secret", 24*time.Hour, auth.WithClock(clock.Now))
		claims, err := issuer.Verify(got.Token.Token)
		require.NoError(t, err)
		assert.Equal(t, got.Session.ID, claims.SessionID())
	})

	t.Run("ignores another user's session", func(t *testing.T) {
		other, err := svc.Register(ctx, "other@example.com", "Other")
		require.NoError(t, err)

		got, err := svc.Login(ctx, "back@example.com", other.Session.ID)
		require.NoError(t, err)
		assert.NotEqual(t, other.Session.ID, got.Session.ID)
		assert.Equal(t, reg.User.ID, got.User.ID)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "")
		assert.ErrorIs(t, err, user.ErrNotFound)
		assert.Equal(t, http.StatusNotFound, errors.As(err).StatusCode)
	})
}

func TestAccountService_RegisterSurvivesBillingOutage(t *testing.T) {
	fake := testutil.NewFakeBilling("whsec")
	fake.Err = assert.AnError
	svc, _, _ := newAccountFixture(t, WithCustomerProvisioning(fake))

	reg, err := svc.Register(context.Background(), "outage@example.com", "")
	require.NoError(t, err)
	assert.Nil(t, reg.User.CustomerID)
	assert.NotEmpty(t, reg.Token.Token)
}

func TestAccountService_EnsureCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("without provider", func(t *testing.T) {
		svc, _, _ := newAccountFixture(t)
		u, err := svc.CreateUser(ctx, "nobill@example.com", "")
		require.NoError(t, err)

		_, err = svc.EnsureCustomer(ctx, u.ID)
		assert.Equal(t, http.StatusServiceUnavailable, errors.As(err).StatusCode)
	})

	t.Run("creates once", func(t *testing.T) {
		fake := testutil.NewFakeBilling("whsec")
		svc, _, _ := newAccountFixture(t, WithCustomerProvisioning(fake))
		u, err := svc.CreateUser(ctx, "bill@example.com", "")
		require.NoError(t, err)

		first, err := svc.EnsureCustomer(ctx, u.ID)
		require.NoError(t, err)
		second, err := svc.EnsureCustomer(ctx, u.ID)
		require.NoError(t, err)

		assert.Equal(t, *first.CustomerID, *second.CustomerID)
		assert.Len(t, fake.Customers, 1)
	})
}
