package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/pratik-mahalle/parlour/internal/domain/entitlement"
	"github.com/pratik-mahalle/parlour/internal/domain/usage"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/metrics"
)

// errDenied aborts a reservation without writing
var errDenied = stderrors.New("reservation denied")

// UsageLedger implements usage.Ledger on top of the account store
type UsageLedger struct {
	users  user.Repository
	now    func() time.Time
	logger *logger.Logger
}

// LedgerOption configures a UsageLedger
type LedgerOption func(*UsageLedger)

// WithLedgerClock overrides the time source
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *UsageLedger) { l.now = now }
}

var _ usage.Ledger = (*UsageLedger)(nil)

// NewUsageLedger creates a ledger over users
func NewUsageLedger(users user.Repository, log *logger.Logger, opts ...LedgerOption) *UsageLedger {
	l := &UsageLedger{
		users:  users,
		now:    time.Now,
		logger: log.WithComponent("ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func invalidResource(err error) error {
	return errors.Internal("Invalid resource type", err)
}

// CheckLimit decides admission against the user's effective counters. A
// pending monthly reset is taken into account but not written.
func (l *UsageLedger) CheckLimit(ctx context.Context, userID string, r usage.Resource, amount int64) (usage.Decision, error) {
	u, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return usage.Decision{}, err
	}

	d, err := usage.Evaluate(entitlement.For(u.Tier), u.Usage.Effective(l.now()), r, amount)
	if err != nil {
		return usage.Decision{}, invalidResource(err)
	}

	metrics.RecordQuotaDecision(string(r), d.Allowed)
	if !d.Allowed {
		l.logger.WithFields(map[string]interface{}{
			"user_id":  userID,
			"resource": r,
			"current":  d.Current,
			"limit":    d.Limit,
		}).Info("Usage limit reached")
	}
	return d, nil
}

// Reserve evaluates and commits amount of r in one serialized step, so
// concurrent requests from the same user can never overshoot a quota
func (l *UsageLedger) Reserve(ctx context.Context, userID string, r usage.Resource, amount int64) (usage.Decision, error) {
	u, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return usage.Decision{}, err
	}
	quotas := entitlement.For(u.Tier)

	var d usage.Decision
	_, err = l.users.MutateUsage(ctx, userID, func(us *user.Usage) error {
		now := l.now()
		var evalErr error
		d, evalErr = usage.Evaluate(quotas, us.Effective(now), r, amount)
		if evalErr != nil {
			return invalidResource(evalErr)
		}
		if !d.Allowed {
			return errDenied
		}
		us.Commit(usage.DeltaFor(r, amount), now)
		return nil
	})
	if err != nil && !stderrors.Is(err, errDenied) {
		return usage.Decision{}, err
	}

	metrics.RecordQuotaDecision(string(r), d.Allowed)
	return d, nil
}

// RecordUsage commits a delta, first zeroing the counters if a new calendar
// month has begun
func (l *UsageLedger) RecordUsage(ctx context.Context, userID string, delta user.UsageDelta) error {
	if delta.Messages < 0 || delta.ComputeSeconds < 0 || delta.Tokens < 0 {
		return errors.BadRequest(fmt.Sprintf("usage delta must not be negative: %+v", delta))
	}

	_, err := l.users.MutateUsage(ctx, userID, func(us *user.Usage) error {
		us.Commit(delta, l.now())
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordUsage(delta.Messages, delta.ComputeSeconds, delta.Tokens)
	return nil
}

// Snapshot returns the user's effective usage against their quotas
func (l *UsageLedger) Snapshot(ctx context.Context, userID string) (*usage.Snapshot, error) {
	u, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := l.now()
	return &usage.Snapshot{
		UserID:  u.ID,
		Tier:    u.Tier,
		Usage:   u.Usage.Effective(now),
		Limits:  entitlement.For(u.Tier),
		TakenAt: now,
	}, nil
}

// AccountStatus is a user together with their usage standing
type AccountStatus struct {
	User      *user.User
	Snapshot  *usage.Snapshot
	NearLimit map[usage.Resource]bool
	Features  map[entitlement.Feature]bool
}

// Status reports effective usage, quotas, near-limit flags and feature access
func (l *UsageLedger) Status(ctx context.Context, userID string) (*AccountStatus, error) {
	u, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := l.now()
	u.Usage = u.Usage.Effective(now)

	snap := &usage.Snapshot{
		UserID:  u.ID,
		Tier:    u.Tier,
		Usage:   u.Usage,
		Limits:  entitlement.For(u.Tier),
		TakenAt: now,
	}

	near := make(map[usage.Resource]bool, len(usage.Resources))
	for _, r := range usage.Resources {
		near[r] = snap.NearLimit(r)
	}

	return &AccountStatus{
		User:      u,
		Snapshot:  snap,
		NearLimit: near,
		Features:  snap.Limits.FeatureSet(),
	}, nil
}

// Analytics is usage as a share of each quota
type Analytics struct {
	Snapshot    *usage.Snapshot
	Percentages map[usage.Resource]float64
}

// Analytics reports the percentage of each quota used, 0 for unlimited ones
func (l *UsageLedger) Analytics(ctx context.Context, userID string) (*Analytics, error) {
	snap, err := l.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	pct := make(map[usage.Resource]float64, len(usage.Resources))
	for _, r := range usage.Resources {
		pct[r] = snap.Percentage(r)
	}
	return &Analytics{Snapshot: snap, Percentages: pct}, nil
}
