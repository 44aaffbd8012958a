package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/parlour/internal/domain/billing"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
)

// UpsertSubscription inserts or updates by provider subscription id. A zero
// period bound keeps the stored value.
func (s *Store) UpsertSubscription(ctx context.Context, sub *billing.Subscription) (*billing.Subscription, error) {
	id := sub.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now().Unix()

	query := `
		INSERT INTO subscriptions (
			id, user_id, provider_subscription_id, status,
			current_period_start, current_period_end, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider_subscription_id) DO UPDATE SET
			user_id = excluded.user_id,
			status = excluded.status,
			current_period_start = CASE WHEN excluded.current_period_start = 0
				THEN subscriptions.current_period_start ELSE excluded.current_period_start END,
			current_period_end = CASE WHEN excluded.current_period_end = 0
				THEN subscriptions.current_period_end ELSE excluded.current_period_end END,
			updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, s.q(query),
		id, sub.UserID, sub.ProviderSubscriptionID, sub.Status,
		toUnix(sub.CurrentPeriodStart), toUnix(sub.CurrentPeriodEnd), now, now,
	); err != nil {
		return nil, errors.DatabaseError("Failed to upsert subscription", err)
	}

	return s.GetSubscription(ctx, sub.ProviderSubscriptionID)
}

// GetSubscription finds a subscription by provider id
func (s *Store) GetSubscription(ctx context.Context, providerSubscriptionID string) (*billing.Subscription, error) {
	query := `
		SELECT id, user_id, provider_subscription_id, status,
			current_period_start, current_period_end, created_at, updated_at
		FROM subscriptions WHERE provider_subscription_id = ?`

	var sub billing.Subscription
	var start, end, createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, s.q(query), providerSubscriptionID).Scan(
		&sub.ID, &sub.UserID, &sub.ProviderSubscriptionID, &sub.Status,
		&start, &end, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Subscription").WithInternal(billing.ErrSubscriptionNotFound)
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get subscription", err)
	}

	sub.CurrentPeriodStart = fromUnix(start)
	sub.CurrentPeriodEnd = fromUnix(end)
	sub.CreatedAt = fromUnix(createdAt)
	sub.UpdatedAt = fromUnix(updatedAt)
	return &sub, nil
}
