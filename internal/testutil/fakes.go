package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/pratik-mahalle/parlour/internal/domain/billing"
	"github.com/pratik-mahalle/parlour/internal/domain/character"
	"github.com/pratik-mahalle/parlour/internal/domain/speech"
)

// FakeGenerator answers every prompt with Reply, or fails with Err
type FakeGenerator struct {
	mu    sync.Mutex
	Reply string
	Err   error
	Calls [][]character.Message
}

// Generate records the call and returns the canned reply
func (g *FakeGenerator) Generate(ctx context.Context, characterID string, messages []character.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, messages)
	if g.Err != nil {
		return "", g.Err
	}
	if g.Reply == "" {
		return fmt.Sprintf("Good day to you, from %s.", characterID), nil
	}
	return g.Reply, nil
}

// Health reports a healthy fake
func (g *FakeGenerator) Health(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"status": "ok", "provider": "fake"}, g.Err
}

// CallCount returns how many generations were requested
func (g *FakeGenerator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Calls)
}

// FakeSynthesizer returns Audio for every request
type FakeSynthesizer struct {
	Audio []byte
	Err   error
}

// Synthesize returns the canned audio
func (s *FakeSynthesizer) Synthesize(ctx context.Context, text, voice string) (*speech.Audio, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	data := s.Audio
	if data == nil {
		data = []byte("ID3-fake-mp3")
	}
	return &speech.Audio{Data: data, ContentType: "audio/mpeg"}, nil
}

// FakeBilling is an in-memory billing provider. Webhooks are accepted when
// the signature equals Secret and are decoded from Events by payload.
type FakeBilling struct {
	mu        sync.Mutex
	Secret    string
	Events    map[string]*billing.Event
	Customers []string
	Cancelled []string
	Err       error
}

// NewFakeBilling creates a fake with the given webhook secret
func NewFakeBilling(secret string) *FakeBilling {
	return &FakeBilling{Secret: secret, Events: make(map[string]*billing.Event)}
}

// CreateCustomer returns a deterministic customer id
func (f *FakeBilling) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	id := "cus_" + userID
	f.Customers = append(f.Customers, id)
	return id, nil
}

// CreateCheckoutSession returns a fake hosted page
func (f *FakeBilling) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &billing.CheckoutSession{
		ID:  "cs_test_" + req.CustomerID,
		URL: "https://checkout.example.com/" + req.PriceID,
	}, nil
}

// CancelSubscription records the cancellation
func (f *FakeBilling) CancelSubscription(ctx context.Context, subscriptionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Cancelled = append(f.Cancelled, subscriptionID)
	return nil
}

// ParseWebhook looks the payload up in Events after checking the signature
func (f *FakeBilling) ParseWebhook(payload []byte, signature string) (*billing.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if signature != f.Secret {
		return nil, billing.ErrWebhookVerification
	}
	ev, ok := f.Events[string(payload)]
	if !ok {
		return nil, fmt.Errorf("unknown payload %q", payload)
	}
	c := *ev
	return &c, nil
}

// AddEvent registers the event returned for payload
func (f *FakeBilling) AddEvent(payload string, ev billing.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events[payload] = &ev
}
