package client

import "context"

// BillingService handles subscription calls
type BillingService struct {
	client *Client
}

// Pricing returns the public price table
func (s *BillingService) Pricing(ctx context.Context) (*Pricing, error) {
	var p Pricing
	if err := s.client.doRequest(ctx, "GET", "/pricing", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Checkout opens a hosted checkout session for priceID
func (s *BillingService) Checkout(ctx context.Context, priceID string) (*CheckoutSession, error) {
	var sess CheckoutSession
	req := map[string]string{"priceId": priceID}
	if err := s.client.doRequest(ctx, "POST", "/create-checkout-session", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Cancel asks the billing provider to cancel the caller's subscription
func (s *BillingService) Cancel(ctx context.Context) error {
	return s.client.doRequest(ctx, "POST", "/cancel-subscription", nil, nil)
}
