package postgres

import (
	"context"
	"database/sql"

	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
)

// CreateSession stores a session
func (s *Store) CreateSession(ctx context.Context, sess *user.AccountSession) error {
	query := `INSERT INTO account_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, s.q(query),
		sess.ID, sess.UserID, toUnix(sess.CreatedAt), toUnix(sess.ExpiresAt),
	); err != nil {
		return errors.DatabaseError("Failed to create session", err)
	}
	return nil
}

// GetSession retrieves a session, expired or not
func (s *Store) GetSession(ctx context.Context, id string) (*user.AccountSession, error) {
	query := `SELECT id, user_id, created_at, expires_at FROM account_sessions WHERE id = ?`

	var sess user.AccountSession
	var createdAt, expiresAt int64
	err := s.db.QueryRowContext(ctx, s.q(query), id).Scan(&sess.ID, &sess.UserID, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Session").WithInternal(user.ErrSessionNotFound)
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get session", err)
	}

	sess.CreatedAt = fromUnix(createdAt)
	sess.ExpiresAt = fromUnix(expiresAt)
	return &sess, nil
}

// DeleteSession removes a session
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM account_sessions WHERE id = ?`), id); err != nil {
		return errors.DatabaseError("Failed to delete session", err)
	}
	return nil
}
