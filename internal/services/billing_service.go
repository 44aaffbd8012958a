package services

import (
	"context"
	"strings"

	"github.com/pratik-mahalle/parlour/internal/config"
	"github.com/pratik-mahalle/parlour/internal/domain/billing"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
)

// BillingService is the customer-facing side of billing: prices, checkout,
// cancellation and webhook intake
type BillingService struct {
	accounts   *AccountService
	provider   billing.Provider
	reconciler billing.Reconciler
	pricing    billing.Pricing
	cfg        config.BillingConfig
	logger     *logger.Logger
}

// NewBillingService creates a billing service. provider may be nil when
// billing is not configured; only Pricing works then.
func NewBillingService(
	accounts *AccountService,
	provider billing.Provider,
	reconciler billing.Reconciler,
	cfg config.BillingConfig,
	log *logger.Logger,
) *BillingService {
	return &BillingService{
		accounts:   accounts,
		provider:   provider,
		reconciler: reconciler,
		pricing:    billing.DefaultPricing(cfg.MonthlyPriceID, cfg.YearlyPriceID),
		cfg:        cfg,
		logger:     log.WithComponent("billing"),
	}
}

// Pricing returns the price table
func (s *BillingService) Pricing() billing.Pricing {
	return s.pricing
}

func (s *BillingService) requireProvider() error {
	if s.provider == nil {
		return errors.ServiceUnavailable("Billing is not configured").WithInternal(billing.ErrNotConfigured)
	}
	return nil
}

// CreateCheckout opens a hosted checkout for priceID. origin is the base URL
// the provider redirects back to.
func (s *BillingService) CreateCheckout(ctx context.Context, userID, priceID, origin string) (*billing.CheckoutSession, error) {
	if err := s.requireProvider(); err != nil {
		return nil, err
	}
	if !s.pricing.Has(priceID) {
		return nil, errors.BadRequest("Unknown price")
	}

	u, err := s.accounts.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	origin = strings.TrimRight(origin, "/")
	session, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		CustomerID: *u.CustomerID,
		PriceID:    priceID,
		SuccessURL: origin + s.cfg.SuccessPath,
		CancelURL:  origin + s.cfg.CancelPath,
		UserID:     u.ID,
	})
	if err != nil {
		return nil, errors.UpstreamFailure("Failed to create checkout session", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  u.ID,
		"price_id": priceID,
	}).Info("Checkout session created")
	return session, nil
}

// CancelSubscription cancels the user's subscription with the provider. The
// tier changes when the provider's cancellation event arrives.
func (s *BillingService) CancelSubscription(ctx context.Context, userID string) error {
	if err := s.requireProvider(); err != nil {
		return err
	}

	u, err := s.accounts.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.SubscriptionID == nil || *u.SubscriptionID == "" {
		return errors.NotFound("Active subscription")
	}

	if err := s.provider.CancelSubscription(ctx, *u.SubscriptionID); err != nil {
		return errors.UpstreamFailure("Failed to cancel subscription", err)
	}

	s.logger.With("user_id", userID).Info("Subscription cancellation requested")
	return nil
}

// HandleWebhook verifies and applies a provider webhook
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := s.requireProvider(); err != nil {
		return err
	}

	ev, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.WithError(err).Warn("Rejected billing webhook")
		return errors.WebhookVerification(err)
	}

	if err := s.reconciler.ApplyEvent(ctx, *ev); err != nil {
		return errors.BadRequest("Webhook processing failed").WithInternal(err)
	}
	return nil
}
