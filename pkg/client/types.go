package client

import "time"

// User is a registered account
type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name,omitempty"`
	SubscriptionStatus string    `json:"subscriptionStatus"` // free, active, cancelled, past_due
	CreatedAt          time.Time `json:"createdAt"`
}

// Usage holds the monthly counters
type Usage struct {
	MessagesThisMonth    int64     `json:"messagesThisMonth"`
	ComputeTimeThisMonth int64     `json:"computeTimeThisMonth"`
	TokensThisMonth      int64     `json:"tokensThisMonth"`
	LastResetDate        time.Time `json:"lastResetDate"`
}

// Quotas are the limits of a tier. -1 means unlimited.
type Quotas struct {
	MessagesPerMonth      int64 `json:"messagesPerMonth"`
	ComputeTimePerMonth   int64 `json:"computeTimePerMonth"`
	TokensPerMonth        int64 `json:"tokensPerMonth"`
	MaxConcurrentSessions int64 `json:"maxConcurrentSessions"`
}

// UsageStatus is the caller's usage against their tier
type UsageStatus struct {
	SubscriptionStatus string          `json:"subscriptionStatus"`
	Usage              Usage           `json:"usage"`
	Limits             Quotas          `json:"limits"`
	NearLimit          map[string]bool `json:"nearLimit"`
	Features           map[string]bool `json:"features"`
}

// Status is the response of GET /auth/status
type Status struct {
	User  User        `json:"user"`
	Usage UsageStatus `json:"usage"`
}

// Registration is the response of POST /auth/register
type Registration struct {
	Success   bool      `json:"success"`
	User      User      `json:"user"`
	Token     string    `json:"token"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Character is a catalogue character
type Character struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Avatar        string `json:"avatar"`
	TypingMessage string `json:"typingMessage,omitempty"`
	Voice         string `json:"voice,omitempty"`
}

// Reply is a character's answer
type Reply struct {
	Response      string `json:"response"`
	Character     string `json:"character"`
	TypingMessage string `json:"typingMessage"`
	Avatar        string `json:"avatar"`
	Usage         struct {
		Remaining int64 `json:"remaining"`
		Limit     int64 `json:"limit"`
	} `json:"usage"`
}

// Audio is synthesized speech
type Audio struct {
	Data        []byte
	ContentType string
}

// Price is one entry of the price table
type Price struct {
	PriceID  string `json:"priceId"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Interval string `json:"interval"`
}

// Pricing is the public price table
type Pricing struct {
	Monthly Price `json:"monthly"`
	Yearly  Price `json:"yearly"`
}

// CheckoutSession is a hosted checkout page
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// Analytics is the response of GET /analytics
type Analytics struct {
	User            User               `json:"user"`
	Usage           Usage              `json:"usage"`
	Limits          Quotas             `json:"limits"`
	UsagePercentage map[string]float64 `json:"usagePercentage"`
}

// HealthResponse is the response of GET /health
type HealthResponse struct {
	Status         string                 `json:"status"`
	Timestamp      string                 `json:"timestamp"`
	LLMProvider    string                 `json:"llm_provider"`
	ProviderStatus map[string]interface{} `json:"provider_status,omitempty"`
}
