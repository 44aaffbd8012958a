package dto

import (
	"time"

	"github.com/pratik-mahalle/parlour/internal/domain/entitlement"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
)

// CheckoutRequest opens a checkout for one of the advertised prices
type CheckoutRequest struct {
	PriceID string `json:"priceId" validate:"required,notblank"`
}

// WebhookResponse acknowledges a processed webhook
type WebhookResponse struct {
	Received bool `json:"received"`
}

// AnalyticsUserDTO is the user block of the analytics response
type AnalyticsUserDTO struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	SubscriptionStatus user.Tier `json:"subscriptionStatus"`
	CreatedAt          time.Time `json:"createdAt"`
}

// AnalyticsResponse reports usage as a percentage of each quota
type AnalyticsResponse struct {
	User            AnalyticsUserDTO   `json:"user"`
	Usage           user.Usage         `json:"usage"`
	Limits          entitlement.Quotas `json:"limits"`
	UsagePercentage map[string]float64 `json:"usagePercentage"`
}
