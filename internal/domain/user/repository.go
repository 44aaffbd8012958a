package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	// Create stores a new user. Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by normalized email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByCustomerID retrieves a user by billing customer id
	GetByCustomerID(ctx context.Context, customerID string) (*User, error)

	// Update applies a partial update and returns the stored result
	Update(ctx context.Context, id string, up Update) (*User, error)

	// MutateUsage loads the user's usage, lets fn change it and persists the
	// result as one step. Calls for the same user never interleave. If fn
	// returns an error nothing is written.
	MutateUsage(ctx context.Context, id string, fn func(*Usage) error) (*User, error)

	// CountByTier returns the number of users in each tier
	CountByTier(ctx context.Context) (map[Tier]int64, error)
}

// SessionRepository stores account sessions
type SessionRepository interface {
	CreateSession(ctx context.Context, s *AccountSession) error
	GetSession(ctx context.Context, id string) (*AccountSession, error)
	DeleteSession(ctx context.Context, id string) error
}
