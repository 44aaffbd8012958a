package entitlement

import (
	"testing"

	"github.com/pratik-mahalle/parlour/internal/domain/user"
)

func TestFor(t *testing.T) {
	tests := []struct {
		tier user.Tier
		want Quotas
	}{
		{tier: user.TierFree, want: Quotas{50, 300, 10000, 1}},
		{tier: user.TierActive, want: Quotas{Unlimited, Unlimited, Unlimited, 5}},
		{tier: user.TierCancelled, want: Quotas{10, 60, 2000, 1}},
		{tier: user.TierPastDue, want: Quotas{10, 60, 2000, 1}},
		{tier: user.Tier("platinum"), want: Quotas{50, 300, 10000, 1}},
		{tier: user.Tier(""), want: Quotas{50, 300, 10000, 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			if got := For(tt.tier); got != tt.want {
				t.Errorf("For(%q) = %+v, want %+v", tt.tier, got, tt.want)
			}
		})
	}
}

func TestAllows(t *testing.T) {
	active := For(user.TierActive)
	free := For(user.TierFree)

	for _, f := range Features {
		if !active.Allows(f) {
			t.Errorf("active should allow %s", f)
		}
		if free.Allows(f) {
			t.Errorf("free should not allow %s", f)
		}
	}

	if free.Allows(Feature("teleport")) {
		t.Error("unknown feature should not be allowed")
	}
}

func TestFeatureSet(t *testing.T) {
	set := For(user.TierPastDue).FeatureSet()
	if len(set) != len(Features) {
		t.Fatalf("FeatureSet() has %d entries, want %d", len(set), len(Features))
	}
	if set[FeatureMultipleSessions] {
		t.Error("past_due should not have multiple sessions")
	}
}
