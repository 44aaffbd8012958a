// Package entitlement maps subscription tiers to their monthly quotas.
package entitlement

import "github.com/pratik-mahalle/parlour/internal/domain/user"

// Unlimited marks a quota with no ceiling
const Unlimited int64 = -1

// Quotas are the per-month ceilings granted by a tier
type Quotas struct {
	MessagesPerMonth       int64 `json:"messagesPerMonth"`
	ComputeSecondsPerMonth int64 `json:"computeTimePerMonth"`
	TokensPerMonth         int64 `json:"tokensPerMonth"`
	MaxConcurrentSessions  int   `json:"maxConcurrentSessions"`
}

// Feature is a named capability derived from quotas
type Feature string

// Features a client can ask about
const (
	FeatureUnlimitedMessages Feature = "unlimited_messages"
	FeatureUnlimitedCompute  Feature = "unlimited_compute"
	FeatureMultipleSessions  Feature = "multiple_sessions"
)

// Features lists every known feature
var Features = []Feature{FeatureUnlimitedMessages, FeatureUnlimitedCompute, FeatureMultipleSessions}

var table = map[user.Tier]Quotas{
	user.TierFree: {
		MessagesPerMonth:       50,
		ComputeSecondsPerMonth: 300,
		TokensPerMonth:         10000,
		MaxConcurrentSessions:  1,
	},
	user.TierActive: {
		MessagesPerMonth:       Unlimited,
		ComputeSecondsPerMonth: Unlimited,
		TokensPerMonth:         Unlimited,
		MaxConcurrentSessions:  5,
	},
	user.TierCancelled: {
		MessagesPerMonth:       10,
		ComputeSecondsPerMonth: 60,
		TokensPerMonth:         2000,
		MaxConcurrentSessions:  1,
	},
	user.TierPastDue: {
		MessagesPerMonth:       10,
		ComputeSecondsPerMonth: 60,
		TokensPerMonth:         2000,
		MaxConcurrentSessions:  1,
	},
}

// For returns the quotas of tier. Unknown tiers get the free quotas.
func For(tier user.Tier) Quotas {
	if q, ok := table[tier]; ok {
		return q
	}
	return table[user.TierFree]
}

// Allows reports whether the quotas grant feature
func (q Quotas) Allows(feature Feature) bool {
	switch feature {
	case FeatureUnlimitedMessages:
		return q.MessagesPerMonth == Unlimited
	case FeatureUnlimitedCompute:
		return q.ComputeSecondsPerMonth == Unlimited
	case FeatureMultipleSessions:
		return q.MaxConcurrentSessions > 1
	}
	return false
}

// FeatureSet evaluates every known feature
func (q Quotas) FeatureSet() map[Feature]bool {
	out := make(map[Feature]bool, len(Features))
	for _, f := range Features {
		out[f] = q.Allows(f)
	}
	return out
}
