package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/pratik-mahalle/parlour/internal/domain/billing"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/metrics"
)

// BillingReconciler applies billing events to accounts. Every branch sets
// absolute values, so replaying an event changes nothing.
type BillingReconciler struct {
	users         user.Repository
	subscriptions billing.Repository
	now           func() time.Time
	logger        *logger.Logger
}

// NewBillingReconciler creates a reconciler
func NewBillingReconciler(users user.Repository, subs billing.Repository, log *logger.Logger) *BillingReconciler {
	return &BillingReconciler{
		users:         users,
		subscriptions: subs,
		now:           time.Now,
		logger:        log.WithComponent("billing"),
	}
}

// ApplyEvent reconciles one event. Events for customers with no local user
// are dropped without error.
func (r *BillingReconciler) ApplyEvent(ctx context.Context, ev billing.Event) error {
	log := r.logger.WithFields(map[string]interface{}{
		"event_id":      ev.ID,
		"event_type":    ev.Type,
		"provider_type": ev.ProviderType,
		"customer_id":   ev.CustomerID,
	})

	if ev.Type == "" {
		log.Debug("Ignoring unhandled billing event")
		metrics.RecordBillingEvent(ev.ProviderType, "ignored")
		return nil
	}

	u, err := r.users.GetByCustomerID(ctx, ev.CustomerID)
	if err != nil {
		if stderrors.Is(err, user.ErrNotFound) {
			log.Warn("No user for billing customer, skipping event")
			metrics.RecordBillingEvent(string(ev.Type), "unmatched")
			return nil
		}
		metrics.RecordBillingEvent(string(ev.Type), "error")
		return err
	}

	var up user.Update
	switch ev.Type {
	case billing.SubscriptionChanged:
		if tier, ok := billing.TierForStatus(ev.Status); ok {
			up.Tier = &tier
		} else {
			log.With("status", ev.Status).Warn("Unmapped subscription status, tier unchanged")
		}
		if ev.SubscriptionID != "" {
			subID := ev.SubscriptionID
			up.SubscriptionID = &subID
		}
	case billing.SubscriptionCancelled:
		tier := user.TierCancelled
		up.Tier = &tier
	case billing.PaymentSucceeded:
		tier := user.TierActive
		up.Tier = &tier
	case billing.PaymentFailed:
		tier := user.TierPastDue
		up.Tier = &tier
	default:
		log.Warn("Unknown billing event type")
		metrics.RecordBillingEvent(string(ev.Type), "ignored")
		return nil
	}

	if err := r.recordSubscription(ctx, u.ID, ev); err != nil {
		metrics.RecordBillingEvent(string(ev.Type), "error")
		return err
	}

	updated, err := r.users.Update(ctx, u.ID, up)
	if err != nil {
		metrics.RecordBillingEvent(string(ev.Type), "error")
		return err
	}

	log.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"tier":    updated.Tier,
	}).Info("Billing event applied")
	metrics.RecordBillingEvent(string(ev.Type), "applied")
	return nil
}

func (r *BillingReconciler) recordSubscription(ctx context.Context, userID string, ev billing.Event) error {
	if ev.SubscriptionID == "" || ev.Status == "" {
		return nil
	}
	_, err := r.subscriptions.UpsertSubscription(ctx, &billing.Subscription{
		UserID:                 userID,
		ProviderSubscriptionID: ev.SubscriptionID,
		Status:                 ev.Status,
		CurrentPeriodStart:     ev.PeriodStart,
		CurrentPeriodEnd:       ev.PeriodEnd,
	})
	return err
}
