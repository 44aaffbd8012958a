package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/metrics"
)

var allTiers = []user.Tier{user.TierFree, user.TierActive, user.TierPastDue, user.TierCancelled}

// TierCounter counts accounts per subscription tier
type TierCounter interface {
	CountByTier(ctx context.Context) (map[user.Tier]int64, error)
}

// UsageSnapshot periodically publishes the number of users in each tier
type UsageSnapshot struct {
	users    TierCounter
	schedule string
	logger   *logger.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
	cancel    context.CancelFunc
}

// NewUsageSnapshot creates a snapshot worker running on a standard cron
// schedule or a descriptor such as "@every 5m"
func NewUsageSnapshot(users TierCounter, schedule string, log *logger.Logger) *UsageSnapshot {
	return &UsageSnapshot{
		users:    users,
		schedule: schedule,
		logger:   log.WithComponent("usage_snapshot"),
	}
}

// Start takes an initial snapshot and schedules the rest
func (s *UsageSnapshot) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return fmt.Errorf("usage snapshot worker is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(s.schedule, func() { s.Run(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid snapshot schedule %q: %w", s.schedule, err)
	}

	s.Run(ctx)
	scheduler.Start()
	s.scheduler = scheduler
	s.cancel = cancel

	s.logger.With("schedule", s.schedule).Info("Usage snapshot worker started")
	return nil
}

// Stop halts the schedule and waits for a running snapshot to finish
func (s *UsageSnapshot) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return
	}
	s.cancel()
	<-s.scheduler.Stop().Done()
	s.scheduler = nil
	s.logger.Info("Usage snapshot worker stopped")
}

// Run takes one snapshot
func (s *UsageSnapshot) Run(ctx context.Context) map[user.Tier]int64 {
	counts, err := s.users.CountByTier(ctx)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to count users by tier")
		return nil
	}

	fields := make(map[string]interface{}, len(allTiers))
	for _, tier := range allTiers {
		metrics.SetUsersByTier(string(tier), float64(counts[tier]))
		fields[string(tier)] = counts[tier]
	}
	s.logger.WithFields(fields).Info("Usage snapshot")
	return counts
}
