// Package usage defines metered resources and the admission decision made
// against a tier's quotas.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pratik-mahalle/parlour/internal/domain/entitlement"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
)

// Resource is a metered quantity
type Resource string

// Metered resources
const (
	Messages    Resource = "messages"
	ComputeTime Resource = "computeTime"
	Tokens      Resource = "tokens"
)

// Resources lists every metered resource
var Resources = []Resource{Messages, ComputeTime, Tokens}

// ErrInvalidResource is returned for a resource name outside Resources
var ErrInvalidResource = errors.New("invalid resource type")

// ParseResource validates a resource name
func ParseResource(s string) (Resource, error) {
	for _, r := range Resources {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidResource, s)
}

// Limit returns the quota for r
func Limit(q entitlement.Quotas, r Resource) int64 {
	switch r {
	case Messages:
		return q.MessagesPerMonth
	case ComputeTime:
		return q.ComputeSecondsPerMonth
	case Tokens:
		return q.TokensPerMonth
	}
	return 0
}

// Counter returns the counter in u that r is measured against
func Counter(u user.Usage, r Resource) int64 {
	switch r {
	case Messages:
		return u.Messages
	case ComputeTime:
		return u.ComputeSeconds
	case Tokens:
		return u.Tokens
	}
	return 0
}

// DeltaFor builds a delta that charges amount to r only
func DeltaFor(r Resource, amount int64) user.UsageDelta {
	switch r {
	case Messages:
		return user.UsageDelta{Messages: amount}
	case ComputeTime:
		return user.UsageDelta{ComputeSeconds: amount}
	case Tokens:
		return user.UsageDelta{Tokens: amount}
	}
	return user.UsageDelta{}
}

// Decision is the outcome of an admission check
type Decision struct {
	Allowed   bool     `json:"allowed"`
	Reason    string   `json:"reason,omitempty"`
	Resource  Resource `json:"resource"`
	Current   int64    `json:"current"`
	Limit     int64    `json:"limit"`
	Remaining int64    `json:"remaining"`
}

// Evaluate decides whether amount more of r fits within q given the
// effective counters in u. Remaining is -1 for unlimited quotas.
func Evaluate(q entitlement.Quotas, u user.Usage, r Resource, amount int64) (Decision, error) {
	if _, err := ParseResource(string(r)); err != nil {
		return Decision{}, err
	}
	if amount < 0 {
		return Decision{}, fmt.Errorf("requested amount must not be negative: %d", amount)
	}

	limit := Limit(q, r)
	current := Counter(u, r)

	if limit == entitlement.Unlimited {
		return Decision{Allowed: true, Resource: r, Current: current, Limit: limit, Remaining: entitlement.Unlimited}, nil
	}

	if current+amount > limit {
		return Decision{
			Allowed:   false,
			Reason:    fmt.Sprintf("%s limit exceeded", r),
			Resource:  r,
			Current:   current,
			Limit:     limit,
			Remaining: max(0, limit-current),
		}, nil
	}

	return Decision{
		Allowed:   true,
		Resource:  r,
		Current:   current,
		Limit:     limit,
		Remaining: limit - current - amount,
	}, nil
}

// Snapshot is a user's effective usage against their quotas at a point in time
type Snapshot struct {
	UserID  string             `json:"userId"`
	Tier    user.Tier          `json:"subscriptionStatus"`
	Usage   user.Usage         `json:"usage"`
	Limits  entitlement.Quotas `json:"limits"`
	TakenAt time.Time          `json:"takenAt"`
}

// Percentage returns how much of r's quota is used, 0 for unlimited quotas
func (s Snapshot) Percentage(r Resource) float64 {
	limit := Limit(s.Limits, r)
	if limit <= 0 {
		return 0
	}
	return float64(Counter(s.Usage, r)) * 100 / float64(limit)
}

// NearLimit reports whether more than 80% of r's quota is used
func (s Snapshot) NearLimit(r Resource) bool {
	return s.Percentage(r) > 80
}

// Ledger decides admission and commits consumption
type Ledger interface {
	// CheckLimit decides whether amount more of r is within quota. It never
	// writes.
	CheckLimit(ctx context.Context, userID string, r Resource, amount int64) (Decision, error)

	// Reserve checks and, when allowed, commits amount of r in one step.
	Reserve(ctx context.Context, userID string, r Resource, amount int64) (Decision, error)

	// RecordUsage commits a delta, applying any pending monthly reset first
	RecordUsage(ctx context.Context, userID string, d user.UsageDelta) error

	// Snapshot returns the user's effective usage and quotas
	Snapshot(ctx context.Context, userID string) (*Snapshot, error)
}
