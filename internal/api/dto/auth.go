package dto

import (
	"time"

	"github.com/pratik-mahalle/parlour/internal/domain/entitlement"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name" validate:"required,notblank,max=100"`
}

// LoginRequest asks for a new token for an existing account
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	SessionID string `json:"sessionId,omitempty" validate:"omitempty,max=64"`
}

// UserDTO is the public view of an account
type UserDTO struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name,omitempty"`
	SubscriptionStatus user.Tier `json:"subscriptionStatus"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ToUserDTO converts a user to its public view
func ToUserDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		SubscriptionStatus: u.Tier,
		CreatedAt:          u.CreatedAt,
	}
}

// RegisterResponse carries the new account and its bearer token
type RegisterResponse struct {
	Success   bool      `json:"success"`
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UsageStatusDTO is usage against quotas with per-resource near-limit flags
type UsageStatusDTO struct {
	SubscriptionStatus user.Tier                    `json:"subscriptionStatus"`
	Usage              user.Usage                   `json:"usage"`
	Limits             entitlement.Quotas           `json:"limits"`
	NearLimit          map[string]bool              `json:"nearLimit"`
	Features           map[entitlement.Feature]bool `json:"features"`
}

// StatusResponse is the body of GET /auth/status
type StatusResponse struct {
	User  UserDTO        `json:"user"`
	Usage UsageStatusDTO `json:"usage"`
}
