// Package billing describes subscription lifecycle events and the provider
// that emits them.
package billing

import (
	"context"
	"errors"
	"time"

	"github.com/pratik-mahalle/parlour/internal/domain/user"
)

// EventType is a normalized billing event kind
type EventType string

// Billing event kinds understood by the reconciler
const (
	SubscriptionChanged   EventType = "subscription.changed"
	SubscriptionCancelled EventType = "subscription.cancelled"
	PaymentSucceeded      EventType = "payment.succeeded"
	PaymentFailed         EventType = "payment.failed"
)

// Event is a billing provider notification reduced to what the reconciler
// needs. Type is empty for provider events nobody handles.
type Event struct {
	ID             string
	Type           EventType
	ProviderType   string
	CustomerID     string
	SubscriptionID string
	Status         string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// Subscription is the local record of a provider subscription
type Subscription struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"userId"`
	ProviderSubscriptionID string    `json:"stripeSubscriptionId"`
	Status                 string    `json:"status"`
	CurrentPeriodStart     time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd       time.Time `json:"currentPeriodEnd"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// Repository stores subscription records
type Repository interface {
	// UpsertSubscription inserts or updates by ProviderSubscriptionID
	UpsertSubscription(ctx context.Context, s *Subscription) (*Subscription, error)

	// GetSubscription finds a record by provider subscription id
	GetSubscription(ctx context.Context, providerSubscriptionID string) (*Subscription, error)
}

// ErrSubscriptionNotFound is returned when no subscription record matches
var ErrSubscriptionNotFound = errors.New("subscription not found")

// ErrWebhookVerification is returned for payloads whose signature is invalid
var ErrWebhookVerification = errors.New("webhook signature verification failed")

// ErrNotConfigured is returned by operations that need a billing provider
// when none is configured
var ErrNotConfigured = errors.New("billing provider not configured")

// CheckoutSession is a hosted checkout page for a price
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// CheckoutRequest describes a checkout session to open
type CheckoutRequest struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	UserID     string
}

// Provider is the outbound side of the billing integration
type Provider interface {
	CreateCustomer(ctx context.Context, email, name, userID string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	// ParseWebhook verifies signature against payload and normalizes the event
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// Reconciler applies billing events to accounts
type Reconciler interface {
	ApplyEvent(ctx context.Context, ev Event) error
}

// TierForStatus maps a provider subscription status onto a tier. ok is false
// for statuses that should leave the tier unchanged.
func TierForStatus(status string) (tier user.Tier, ok bool) {
	switch status {
	case "active", "trialing":
		return user.TierActive, true
	case "past_due", "unpaid", "incomplete":
		return user.TierPastDue, true
	case "canceled", "cancelled", "incomplete_expired", "paused":
		return user.TierCancelled, true
	}
	return "", false
}
