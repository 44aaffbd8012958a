package user

import "errors"

var (
	// ErrNotFound is returned when no user matches the lookup
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when creating a user whose email is already registered
	ErrEmailTaken = errors.New("email already registered")
	// ErrSessionNotFound is returned for unknown or expired account sessions
	ErrSessionNotFound = errors.New("session not found")
)
