// Package memory is a process-local implementation of the account, session
// and subscription repositories.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/parlour/internal/domain/billing"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
)

// Store keeps everything in maps guarded by one lock. Returned values are
// copies, so callers never share state with the store.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users         map[string]*user.User
	byEmail       map[string]string
	byCustomer    map[string]string
	sessions      map[string]*user.AccountSession
	subscriptions map[string]*billing.Subscription
}

// New creates an empty store
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:           now,
		users:         make(map[string]*user.User),
		byEmail:       make(map[string]string),
		byCustomer:    make(map[string]string),
		sessions:      make(map[string]*user.AccountSession),
		subscriptions: make(map[string]*billing.Subscription),
	}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func userNotFound() error {
	return errors.NotFound("User").WithInternal(user.ErrNotFound)
}

// Create stores a new user
func (s *Store) Create(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := user.NormalizeEmail(u.Email)
	if _, exists := s.byEmail[email]; exists {
		return errors.Conflict("Email already registered").WithInternal(user.ErrEmailTaken)
	}
	if u.CustomerID != nil {
		if _, exists := s.byCustomer[*u.CustomerID]; exists {
			return errors.Conflict("Billing customer already linked")
		}
	}

	stored := u.Clone()
	stored.Email = email
	s.users[stored.ID] = stored
	s.byEmail[email] = stored.ID
	if stored.CustomerID != nil {
		s.byCustomer[*stored.CustomerID] = stored.ID
	}
	return nil
}

// GetByID retrieves a user by ID
func (s *Store) GetByID(ctx context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, userNotFound()
	}
	return u.Clone(), nil
}

// GetByEmail retrieves a user by email
func (s *Store) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return nil, userNotFound()
	}
	return s.users[id].Clone(), nil
}

// GetByCustomerID retrieves a user by billing customer id
func (s *Store) GetByCustomerID(ctx context.Context, customerID string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCustomer[customerID]
	if !ok {
		return nil, userNotFound()
	}
	return s.users[id].Clone(), nil
}

// Update applies a partial update
func (s *Store) Update(ctx context.Context, id string, up user.Update) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, userNotFound()
	}

	if up.CustomerID != nil {
		if owner, exists := s.byCustomer[*up.CustomerID]; exists && owner != id {
			return nil, errors.Conflict("Billing customer already linked")
		}
		if u.CustomerID != nil {
			delete(s.byCustomer, *u.CustomerID)
		}
		s.byCustomer[*up.CustomerID] = id
	}

	u.Apply(up, s.now())
	return u.Clone(), nil
}

// MutateUsage runs fn on the stored usage under the write lock
func (s *Store) MutateUsage(ctx context.Context, id string, fn func(*user.Usage) error) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, userNotFound()
	}

	next := u.Usage
	if err := fn(&next); err != nil {
		return nil, err
	}
	u.Usage = next
	u.UpdatedAt = s.now()
	return u.Clone(), nil
}

// CountByTier returns the number of users in each tier
func (s *Store) CountByTier(ctx context.Context) (map[user.Tier]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[user.Tier]int64)
	for _, u := range s.users {
		counts[u.Tier]++
	}
	return counts, nil
}

// CreateSession stores a session
func (s *Store) CreateSession(ctx context.Context, sess *user.AccountSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *sess
	s.sessions[sess.ID] = &c
	return nil
}

// GetSession retrieves a session, expired or not
func (s *Store) GetSession(ctx context.Context, id string) (*user.AccountSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.NotFound("Session").WithInternal(user.ErrSessionNotFound)
	}
	c := *sess
	return &c, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// UpsertSubscription inserts or updates by provider subscription id
func (s *Store) UpsertSubscription(ctx context.Context, sub *billing.Subscription) (*billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.subscriptions[sub.ProviderSubscriptionID]
	if !ok {
		c := *sub
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.CreatedAt = now
		c.UpdatedAt = now
		s.subscriptions[c.ProviderSubscriptionID] = &c
		out := c
		return &out, nil
	}

	existing.UserID = sub.UserID
	existing.Status = sub.Status
	if !sub.CurrentPeriodStart.IsZero() {
		existing.CurrentPeriodStart = sub.CurrentPeriodStart
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
	}
	existing.UpdatedAt = now
	out := *existing
	return &out, nil
}

// GetSubscription finds a subscription by provider id
func (s *Store) GetSubscription(ctx context.Context, providerSubscriptionID string) (*billing.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[providerSubscriptionID]
	if !ok {
		return nil, errors.NotFound("Subscription").WithInternal(billing.ErrSubscriptionNotFound)
	}
	out := *sub
	return &out, nil
}
