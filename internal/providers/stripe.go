package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/pratik-mahalle/parlour/internal/domain/billing"
)

// StripeBilling implements billing.Provider against the Stripe API
type StripeBilling struct {
	api           *client.API
	webhookSecret string
}

// ErrMissingWebhookSecret is returned when billing is configured without a
// webhook signing secret. An empty HMAC key would accept forged events.
var ErrMissingWebhookSecret = errors.New("stripe webhook secret is required")

// NewStripeBilling creates a Stripe-backed provider
func NewStripeBilling(apiKey, webhookSecret string) (*StripeBilling, error) {
	if webhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeBilling{api: api, webhookSecret: webhookSecret}, nil
}

// CreateCustomer creates a customer tagged with the local user id
func (s *StripeBilling) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Context = ctx
	params.AddMetadata("source", "parlour")
	params.AddMetadata("user_id", userID)

	c, err := s.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

// CreateCheckoutSession opens a hosted subscription checkout
func (s *StripeBilling) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(req.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(req.SuccessURL),
		CancelURL:           stripe.String(req.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
		ClientReferenceID:   stripe.String(req.UserID),
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return &billing.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// CancelSubscription cancels immediately
func (s *StripeBilling) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := s.api.Subscriptions.Cancel(subscriptionID, params); err != nil {
		return fmt.Errorf("stripe cancel subscription: %w", err)
	}
	return nil
}

// ParseWebhook verifies the Stripe-Signature header and reduces the event to
// a billing.Event. Event types nobody handles come back with an empty Type.
func (s *StripeBilling) ParseWebhook(payload []byte, signature string) (*billing.Event, error) {
	if s.webhookSecret == "" {
		return nil, fmt.Errorf("%w: %v", billing.ErrWebhookVerification, ErrMissingWebhookSecret)
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrWebhookVerification, err)
	}
	return normalizeStripeEvent(ev)
}

func normalizeStripeEvent(ev stripe.Event) (*billing.Event, error) {
	out := &billing.Event{ID: ev.ID, ProviderType: string(ev.Type)}

	switch string(ev.Type) {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		out.Type = billing.SubscriptionChanged
		if string(ev.Type) == "customer.subscription.deleted" {
			out.Type = billing.SubscriptionCancelled
		}
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		out.SubscriptionID = sub.ID
		out.Status = string(sub.Status)
		out.PeriodStart = unixOrZero(sub.CurrentPeriodStart)
		out.PeriodEnd = unixOrZero(sub.CurrentPeriodEnd)

	case "invoice.payment_succeeded", "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		out.Type = billing.PaymentSucceeded
		if string(ev.Type) == "invoice.payment_failed" {
			out.Type = billing.PaymentFailed
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
	}

	return out, nil
}

func unixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
