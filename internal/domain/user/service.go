package user

import "context"

// Service is the account store: user records and login sessions
type Service interface {
	// CreateUser registers a new free-tier user
	CreateUser(ctx context.Context, email, name string) (*User, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByEmail retrieves a user by email
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateUser applies a partial update
	UpdateUser(ctx context.Context, id string, up Update) (*User, error)

	// CreateAccountSession opens a session for the user
	CreateAccountSession(ctx context.Context, userID string) (*AccountSession, error)

	// GetAccountSession returns a live session. Expired sessions are removed
	// and reported as not found.
	GetAccountSession(ctx context.Context, id string) (*AccountSession, error)
}
