package user

import (
	"strings"
	"time"
)

// Tier is the subscription tier that selects a user's entitlements
type Tier string

// Subscription tiers
const (
	TierFree      Tier = "free"
	TierActive    Tier = "active"
	TierCancelled Tier = "cancelled"
	TierPastDue   Tier = "past_due"
)

// Valid reports whether t is one of the known tiers
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierActive, TierCancelled, TierPastDue:
		return true
	}
	return false
}

// User is an account and its current month's usage counters
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name,omitempty"`
	Tier           Tier      `json:"subscriptionStatus"`
	CustomerID     *string   `json:"stripeCustomerId,omitempty"`
	SubscriptionID *string   `json:"subscriptionId,omitempty"`
	Usage          Usage     `json:"usage"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of u
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.CustomerID != nil {
		v := *u.CustomerID
		c.CustomerID = &v
	}
	if u.SubscriptionID != nil {
		v := *u.SubscriptionID
		c.SubscriptionID = &v
	}
	return &c
}

// Update is a partial change to a user. Nil fields are left alone.
type Update struct {
	Name           *string
	Tier           *Tier
	CustomerID     *string
	SubscriptionID *string
}

// Apply merges up into u and bumps UpdatedAt
func (u *User) Apply(up Update, now time.Time) {
	if up.Name != nil {
		u.Name = *up.Name
	}
	if up.Tier != nil {
		u.Tier = *up.Tier
	}
	if up.CustomerID != nil {
		v := *up.CustomerID
		u.CustomerID = &v
	}
	if up.SubscriptionID != nil {
		v := *up.SubscriptionID
		u.SubscriptionID = &v
	}
	u.UpdatedAt = now
}

// Usage holds the counters for the calendar month that LastResetAt falls in
type Usage struct {
	Messages       int64     `json:"messagesThisMonth"`
	ComputeSeconds int64     `json:"computeTimeThisMonth"`
	Tokens         int64     `json:"tokensThisMonth"`
	LastResetAt    time.Time `json:"lastResetDate"`
}

// UsageDelta is the amount a single request adds to the counters
type UsageDelta struct {
	Messages       int64 `json:"messages"`
	ComputeSeconds int64 `json:"computeSeconds"`
	Tokens         int64 `json:"tokens"`
}

// IsZero reports whether d would change nothing
func (d UsageDelta) IsZero() bool {
	return d.Messages == 0 && d.ComputeSeconds == 0 && d.Tokens == 0
}

// NeedsReset reports whether now falls in a different calendar month (UTC)
// than the last reset.
func (u Usage) NeedsReset(now time.Time) bool {
	ly, lm, _ := u.LastResetAt.UTC().Date()
	ny, nm, _ := now.UTC().Date()
	return ly != ny || lm != nm
}

// Effective returns the counters as they stand at now. A month rollover reads
// as zero without touching the stored value.
func (u Usage) Effective(now time.Time) Usage {
	if u.NeedsReset(now) {
		return Usage{LastResetAt: now}
	}
	return u
}

// Commit applies any pending monthly reset, then adds d
func (u *Usage) Commit(d UsageDelta, now time.Time) {
	*u = u.Effective(now)
	u.Messages += d.Messages
	u.ComputeSeconds += d.ComputeSeconds
	u.Tokens += d.Tokens
}

// AccountSession is a login record. Expiry is checked lazily on read.
type AccountSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired reports whether the session has passed its expiry
func (s *AccountSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// NormalizeEmail lowercases and trims an address for uniqueness checks
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
