package service

import (
	"context"
	"errors"
	"time"

	"accounts_backend/internal/auth/password"
	"accounts_backend/internal/auth/token"
	"accounts_backend/internal/users/domain"
	"accounts_backend/internal/users/repository"
	"accounts_backend/platform/apperr"
	"accounts_backend/platform/config"
	"accounts_backend/platform/logger"
)

const (
	msgUsernameTaken = "Username already exists"
	msgInvalidCreds  = "Invalid credentials"
	msgInvalidToken  = "Invalid or expired token"
	msgTokenExpired  = "Token has expired"
	msgResetIssued   = "If the user exists, a reset token has been generated"
)

// dummyHash is a well-formed bcrypt hash verified when the username does not
// exist, so the login path costs the same with and without a matching row.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// MsgResetIssued is the uniform reset-request message, identical whether or
// not the username exists.
const MsgResetIssued = msgResetIssued

// Service orchestrates the identity lifecycle: registration, login, and the
// password-reset request/redeem pair.
type Service struct {
	store repository.Store
	codec *token.Codec
	cfg   config.AuthServiceConfig
	log   *logger.Logger
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for reset-token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store repository.Store, codec *token.Codec, cfg config.AuthServiceConfig, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		codec: codec,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with the given role. Only the seeding path passes
// a non-default role; the HTTP handler always registers plain users.
func (s *Service) Register(ctx context.Context, username, plainPassword string, role domain.Role) (domain.User, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return domain.User{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	user, err := s.store.Create(ctx, username, hash, role)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			s.log.AuthEvent("register", username, false, "duplicate username")
			return domain.User{}, apperr.Conflict(msgUsernameTaken)
		}
		return domain.User{}, apperr.Wrap(apperr.KindInternal, "failed to create user", err)
	}

	s.log.AuthEvent("register", username, true, "")
	return user, nil
}

// Login verifies credentials and issues a session token. An unknown username
// and a wrong password produce byte-identical failures so the endpoint leaks
// no account-existence signal.
func (s *Service) Login(ctx context.Context, username, plainPassword string) (string, domain.User, error) {
	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn the same hashing cost as the found-user path.
			password.Verify(plainPassword, dummyHash)
			s.log.AuthEvent("login", username, false, "unknown username")
			return "", domain.User{}, apperr.Unauthorized(msgInvalidCreds)
		}
		return "", domain.User{}, apperr.Wrap(apperr.KindInternal, "failed to look up user", err)
	}

	if !password.Verify(plainPassword, user.PasswordHash) {
		s.log.AuthEvent("login", username, false, "password mismatch")
		return "", domain.User{}, apperr.Unauthorized(msgInvalidCreds)
	}

	sessionToken, err := s.codec.SignSession(user.ID, string(user.Role), s.cfg.GetSessionTokenTTL())
	if err != nil {
		return "", domain.User{}, apperr.Wrap(apperr.KindInternal, "failed to sign session token", err)
	}

	s.log.AuthEvent("login", username, true, "")
	return sessionToken, user, nil
}

// RequestPasswordReset mints a short-lived reset token and persists it
// verbatim on the user row, superseding any outstanding token. For unknown
// usernames it returns a freshly signed token bound to an id that cannot
// exist, structurally indistinguishable from the real thing, and persists
// nothing.
func (s *Service) RequestPasswordReset(ctx context.Context, username string) (string, error) {
	ttl := s.cfg.GetResetTokenTTL()

	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			decoy, signErr := s.codec.SignReset(0, ttl)
			if signErr != nil {
				return "", apperr.Wrap(apperr.KindInternal, "failed to sign reset token", signErr)
			}
			s.log.AuthEvent("reset_request", username, false, "unknown username")
			return decoy, nil
		}
		return "", apperr.Wrap(apperr.KindInternal, "failed to look up user", err)
	}

	resetToken, err := s.codec.SignReset(user.ID, ttl)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to sign reset token", err)
	}

	if err := s.store.SetResetToken(ctx, user.ID, resetToken, s.now().Add(ttl)); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to persist reset token", err)
	}

	s.log.AuthEvent("reset_request", username, true, "")
	return resetToken, nil
}

// ResetPassword redeems a reset token. Redemption requires both cryptographic
// validity and an exact byte match against the stored token, so issuing a new
// token or consuming this one invalidates every outstanding copy. The stored
// expiry is rechecked even though the signature carried its own TTL.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	claims, err := s.codec.Verify(rawToken, token.KindReset)
	if err != nil {
		return apperr.BadRequest(msgInvalidToken)
	}

	user, err := s.store.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.BadRequest(msgInvalidToken)
		}
		return apperr.Wrap(apperr.KindInternal, "failed to look up user", err)
	}

	if user.ResetToken == nil || user.ResetTokenExpires == nil || *user.ResetToken != rawToken {
		return apperr.BadRequest(msgInvalidToken)
	}

	if s.now().After(*user.ResetTokenExpires) {
		return apperr.BadRequest(msgTokenExpired)
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	if err := s.store.ResetPassword(ctx, user.ID, hash); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update password", err)
	}

	s.log.AuthEvent("reset_password", user.Username, true, "")
	return nil
}
