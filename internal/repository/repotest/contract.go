// Package repotest holds behaviour checks shared by every repository backend.
package repotest

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/parlour/internal/domain/billing"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
)

// Store is everything a backend must provide
type Store interface {
	user.Repository
	user.SessionRepository
	billing.Repository
}

// Factory returns a fresh, empty store for one subtest
type Factory func(t *testing.T) Store

func newUser(email string) *user.User {
	now := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	return &user.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      "Ada",
		Tier:      user.TierFree,
		Usage:     user.Usage{LastResetAt: now},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Run exercises a backend against the repository contracts
func Run(t *testing.T, factory Factory) {
	t.Run("CreateAndGet", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		u := newUser("Ada@Example.com")
		require.NoError(t, s.Create(ctx, u))

		byID, err := s.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", byID.Email)
		assert.Equal(t, user.TierFree, byID.Tier)
		assert.Nil(t, byID.CustomerID)

		byEmail, err := s.GetByEmail(ctx, "ADA@example.com ")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, newUser("a@b.com")))

		err := s.Create(ctx, newUser("A@B.com"))
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, user.ErrEmailTaken), "got %v", err)
	})

	t.Run("NotFound", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		_, err := s.GetByID(ctx, "missing")
		assert.True(t, stderrors.Is(err, user.ErrNotFound), "got %v", err)
		_, err = s.GetByEmail(ctx, "nobody@example.com")
		assert.True(t, stderrors.Is(err, user.ErrNotFound), "got %v", err)
		_, err = s.GetByCustomerID(ctx, "cus_missing")
		assert.True(t, stderrors.Is(err, user.ErrNotFound), "got %v", err)
		_, err = s.Update(ctx, "missing", user.Update{})
		assert.True(t, stderrors.Is(err, user.ErrNotFound), "got %v", err)
	})

	t.Run("UpdateAndCustomerLookup", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		u := newUser("c@d.com")
		require.NoError(t, s.Create(ctx, u))

		cust := "cus_123"
		sub := "sub_123"
		tier := user.TierActive
		updated, err := s.Update(ctx, u.ID, user.Update{CustomerID: &cust, SubscriptionID: &sub, Tier: &tier})
		require.NoError(t, err)
		assert.Equal(t, user.TierActive, updated.Tier)
		require.NotNil(t, updated.SubscriptionID)
		assert.Equal(t, "sub_123", *updated.SubscriptionID)

		found, err := s.GetByCustomerID(ctx, "cus_123")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)
		assert.Equal(t, "Ada", found.Name)
	})

	t.Run("MutateUsage", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		u := newUser("m@n.com")
		require.NoError(t, s.Create(ctx, u))

		got, err := s.MutateUsage(ctx, u.ID, func(us *user.Usage) error {
			us.Messages += 2
			us.Tokens += 40
			return nil
		})
		require.NoError(t, err)
		assert.EqualValues(t, 2, got.Usage.Messages)
		assert.EqualValues(t, 40, got.Usage.Tokens)

		boom := stderrors.New("boom")
		_, err = s.MutateUsage(ctx, u.ID, func(us *user.Usage) error {
			us.Messages = 999
			return boom
		})
		assert.ErrorIs(t, err, boom)

		after, err := s.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, after.Usage.Messages, "failed mutation must not persist")
		assert.True(t, after.Usage.LastResetAt.Equal(u.Usage.LastResetAt))
	})

	t.Run("MutateUsageConcurrent", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		u := newUser("p@q.com")
		require.NoError(t, s.Create(ctx, u))

		const workers = 8
		const perWorker = 10
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					_, err := s.MutateUsage(ctx, u.ID, func(us *user.Usage) error {
						us.Messages++
						return nil
					})
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()

		after, err := s.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.EqualValues(t, workers*perWorker, after.Usage.Messages)
	})

	t.Run("CountByTier", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		a, b := newUser("1@x.com"), newUser("2@x.com")
		b.Tier = user.TierPastDue
		require.NoError(t, s.Create(ctx, a))
		require.NoError(t, s.Create(ctx, b))

		counts, err := s.CountByTier(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, counts[user.TierFree])
		assert.EqualValues(t, 1, counts[user.TierPastDue])
		assert.EqualValues(t, 0, counts[user.TierActive])
	})

	t.Run("Sessions", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		now := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
		sess := &user.AccountSession{ID: uuid.NewString(), UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
		require.NoError(t, s.CreateSession(ctx, sess))

		got, err := s.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UserID)
		assert.True(t, got.ExpiresAt.Equal(sess.ExpiresAt))

		require.NoError(t, s.DeleteSession(ctx, sess.ID))
		_, err = s.GetSession(ctx, sess.ID)
		assert.True(t, stderrors.Is(err, user.ErrSessionNotFound), "got %v", err)
		assert.NoError(t, s.DeleteSession(ctx, sess.ID))
	})

	t.Run("UpsertSubscription", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()
		start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

		first, err := s.UpsertSubscription(ctx, &billing.Subscription{
			UserID:                 "u1",
			ProviderSubscriptionID: "sub_1",
			Status:                 "active",
			CurrentPeriodStart:     start,
			CurrentPeriodEnd:       start.AddDate(0, 1, 0),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)

		second, err := s.UpsertSubscription(ctx, &billing.Subscription{
			UserID:                 "u1",
			ProviderSubscriptionID: "sub_1",
			Status:                 "past_due",
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "past_due", second.Status)
		assert.True(t, second.CurrentPeriodStart.Equal(start), "zero period should keep the stored value")

		got, err := s.GetSubscription(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, "past_due", got.Status)

		_, err = s.GetSubscription(ctx, "sub_missing")
		assert.True(t, stderrors.Is(err, billing.ErrSubscriptionNotFound), "got %v", err)
	})
}
