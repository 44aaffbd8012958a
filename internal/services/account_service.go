package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/parlour/internal/auth"
	"github.com/pratik-mahalle/parlour/internal/domain/billing"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
)

// AccountService implements user.Service and the registration flow
type AccountService struct {
	users      user.Repository
	sessions   user.SessionRepository
	issuer     *auth.Issuer
	billing    billing.Provider
	sessionTTL time.Duration
	now        func() time.Time
	logger     *logger.Logger
}

// AccountOption configures an AccountService
type AccountOption func(*AccountService)

// WithAccountClock overrides the time source
func WithAccountClock(now func() time.Time) AccountOption {
	return func(s *AccountService) { s.now = now }
}

// WithCustomerProvisioning creates a billing customer for each new user
func WithCustomerProvisioning(p billing.Provider) AccountOption {
	return func(s *AccountService) { s.billing = p }
}

// NewAccountService creates a new account service
func NewAccountService(
	users user.Repository,
	sessions user.SessionRepository,
	issuer *auth.Issuer,
	sessionTTL time.Duration,
	log *logger.Logger,
	opts ...AccountOption,
) *AccountService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	s := &AccountService{
		users:      users,
		sessions:   sessions,
		issuer:     issuer,
		sessionTTL: sessionTTL,
		now:        time.Now,
		logger:     log.WithComponent("account"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ user.Service = (*AccountService)(nil)

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// CreateUser registers a new free-tier user
func (s *AccountService) CreateUser(ctx context.Context, email, name string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return nil, errors.BadRequest("Email is required")
	}

	now := s.now()
	u := &user.User{
		ID:        newID(),
		Email:     email,
		Name:      name,
		Tier:      user.TierFree,
		Usage:     user.Usage{LastResetAt: now},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		if !stderrors.Is(err, user.ErrEmailTaken) {
			s.logger.ErrorWithErr(err, "Failed to create user")
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("User created")

	return u, nil
}

// GetUser retrieves a user by ID
func (s *AccountService) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetUserByEmail retrieves a user by email
func (s *AccountService) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.users.GetByEmail(ctx, email)
}

// UpdateUser applies a partial update
func (s *AccountService) UpdateUser(ctx context.Context, id string, up user.Update) (*user.User, error) {
	u, err := s.users.Update(ctx, id, up)
	if err != nil {
		return nil, err
	}
	s.logger.With("user_id", id).Debug("User updated")
	return u, nil
}

// CreateAccountSession opens a session that expires after the session TTL
func (s *AccountService) CreateAccountSession(ctx context.Context, userID string) (*user.AccountSession, error) {
	now := s.now()
	sess := &user.AccountSession{
		ID:        newID(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetAccountSession returns a live session. An expired one is deleted on the
// way out and reported as not found.
func (s *AccountService) GetAccountSession(ctx context.Context, id string) (*user.AccountSession, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired(s.now()) {
		if err := s.sessions.DeleteSession(ctx, id); err != nil {
			s.logger.ErrorWithErr(err, "Failed to delete expired session")
		}
		return nil, errors.NotFound("Session").WithInternal(user.ErrSessionNotFound)
	}
	return sess, nil
}

// Registration is the result of a successful sign-up
type Registration struct {
	User    *user.User
	Session *user.AccountSession
	Token   auth.IssuedToken
}

// Register creates the user, provisions a billing customer when a provider
// is configured, opens a session and issues a token bound to it
func (s *AccountService) Register(ctx context.Context, email, name string) (*Registration, error) {
	u, err := s.CreateUser(ctx, email, name)
	if err != nil {
		return nil, err
	}

	if s.billing != nil {
		if updated, err := s.provisionCustomer(ctx, u); err != nil {
			s.logger.WithError(err).With("user_id", u.ID).Warn("Billing customer not created, continuing registration")
		} else {
			u = updated
		}
	}

	sess, err := s.CreateAccountSession(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return s.issue(u, sess)
}

// Login issues a fresh token for an existing account. A still-live session
// named by sessionID is resumed; otherwise a new session is opened.
func (s *AccountService) Login(ctx context.Context, email, sessionID string) (*Registration, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	var sess *user.AccountSession
	if sessionID != "" {
		live, err := s.GetAccountSession(ctx, sessionID)
		switch {
		case err == nil && live.UserID == u.ID:
			sess = live
		case err != nil && !stderrors.Is(err, user.ErrSessionNotFound):
			return nil, err
		}
	}
	if sess == nil {
		if sess, err = s.CreateAccountSession(ctx, u.ID); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":    u.ID,
		"session_id": sess.ID,
	}).Info("User logged in")

	return s.issue(u, sess)
}

func (s *AccountService) issue(u *user.User, sess *user.AccountSession) (*Registration, error) {
	tok, err := s.issuer.Issue(u.ID, sess.ID)
	if err != nil {
		return nil, errors.Internal("Failed to issue token", err)
	}
	return &Registration{User: u, Session: sess, Token: tok}, nil
}

// EnsureCustomer returns the user's billing customer id, creating one first
// if needed
func (s *AccountService) EnsureCustomer(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.CustomerID != nil {
		return u, nil
	}
	if s.billing == nil {
		return nil, errors.ServiceUnavailable("Billing is not configured").WithInternal(billing.ErrNotConfigured)
	}
	return s.provisionCustomer(ctx, u)
}

func (s *AccountService) provisionCustomer(ctx context.Context, u *user.User) (*user.User, error) {
	customerID, err := s.billing.CreateCustomer(ctx, u.Email, u.Name, u.ID)
	if err != nil {
		return nil, errors.UpstreamFailure("Failed to create billing customer", err)
	}
	return s.users.Update(ctx, u.ID, user.Update{CustomerID: &customerID})
}
