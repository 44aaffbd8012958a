package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/lib/pq"

	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
)

const userColumns = `id, email, name, tier, customer_id, subscription_id,
	messages_used, compute_seconds_used, tokens_used, usage_reset_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var tier string
	var customerID, subscriptionID sql.NullString
	var resetAt, createdAt, updatedAt int64

	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &tier, &customerID, &subscriptionID,
		&u.Usage.Messages, &u.Usage.ComputeSeconds, &u.Usage.Tokens, &resetAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Tier = user.Tier(tier)
	u.CustomerID = stringPtr(customerID)
	u.SubscriptionID = stringPtr(subscriptionID)
	u.Usage.LastResetAt = fromUnix(resetAt)
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func userNotFound() error {
	return errors.NotFound("User").WithInternal(user.ErrNotFound)
}

// Create inserts a new user
func (s *Store) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, s.q(query),
		u.ID, user.NormalizeEmail(u.Email), u.Name, string(u.Tier),
		nullString(u.CustomerID), nullString(u.SubscriptionID),
		u.Usage.Messages, u.Usage.ComputeSeconds, u.Usage.Tokens, toUnix(u.Usage.LastResetAt),
		toUnix(u.CreatedAt), toUnix(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("Email already registered").WithInternal(user.ErrEmailTaken)
		}
		return errors.DatabaseError("Failed to create user", err)
	}
	return nil
}

func (s *Store) getOne(ctx context.Context, where string, arg interface{}) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = ?`
	u, err := scanUser(s.db.QueryRowContext(ctx, s.q(query), arg))
	if err == sql.ErrNoRows {
		return nil, userNotFound()
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (s *Store) GetByID(ctx context.Context, id string) (*user.User, error) {
	return s.getOne(ctx, "id", id)
}

// GetByEmail retrieves a user by email
func (s *Store) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getOne(ctx, "email", user.NormalizeEmail(email))
}

// GetByCustomerID retrieves a user by billing customer id
func (s *Store) GetByCustomerID(ctx context.Context, customerID string) (*user.User, error) {
	return s.getOne(ctx, "customer_id", customerID)
}

// Update applies a partial update. Nil fields keep their stored value.
func (s *Store) Update(ctx context.Context, id string, up user.Update) (*user.User, error) {
	var tier sql.NullString
	if up.Tier != nil {
		tier = sql.NullString{String: string(*up.Tier), Valid: true}
	}

	query := `
		UPDATE users SET
			name = COALESCE(?, name),
			tier = COALESCE(?, tier),
			customer_id = COALESCE(?, customer_id),
			subscription_id = COALESCE(?, subscription_id),
			updated_at = ?
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, s.q(query),
		nullString(up.Name), tier, nullString(up.CustomerID), nullString(up.SubscriptionID),
		s.now().Unix(), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Conflict("Billing customer already linked")
		}
		return nil, errors.DatabaseError("Failed to update user", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, errors.DatabaseError("Failed to update user", err)
	}
	if n == 0 {
		return nil, userNotFound()
	}

	return s.GetByID(ctx, id)
}

// MutateUsage reads, changes and writes the usage counters inside one
// transaction. On postgres the row is locked with FOR UPDATE; sqlite runs on a
// single connection so transactions never overlap.
func (s *Store) MutateUsage(ctx context.Context, id string, fn func(*user.Usage) error) (*user.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.DatabaseError("Failed to begin usage transaction", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	if s.driver == "postgres" {
		query += ` FOR UPDATE`
	}

	u, err := scanUser(tx.QueryRowContext(ctx, s.q(query), id))
	if err == sql.ErrNoRows {
		return nil, userNotFound()
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to load usage", err)
	}

	next := u.Usage
	if err := fn(&next); err != nil {
		return nil, err
	}

	now := s.now()
	update := `
		UPDATE users SET
			messages_used = ?,
			compute_seconds_used = ?,
			tokens_used = ?,
			usage_reset_at = ?,
			updated_at = ?
		WHERE id = ?`
	if _, err := tx.ExecContext(ctx, s.q(update),
		next.Messages, next.ComputeSeconds, next.Tokens, toUnix(next.LastResetAt), now.Unix(), id,
	); err != nil {
		return nil, errors.DatabaseError("Failed to store usage", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.DatabaseError("Failed to commit usage", err)
	}

	u.Usage = next
	u.UpdatedAt = fromUnix(now.Unix())
	return u, nil
}

// CountByTier returns the number of users in each tier
func (s *Store) CountByTier(ctx context.Context) (map[user.Tier]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tier, COUNT(*) FROM users GROUP BY tier`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count users", err)
	}
	defer rows.Close()

	counts := make(map[user.Tier]int64)
	for rows.Next() {
		var tier string
		var n int64
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan user count", err)
		}
		counts[user.Tier(tier)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to count users", err)
	}
	return counts, nil
}
