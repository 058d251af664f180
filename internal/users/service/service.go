package service

import (
	"context"
	"errors"

	"accounts_backend/internal/auth/password"
	"accounts_backend/internal/users/domain"
	"accounts_backend/internal/users/repository"
	"accounts_backend/platform/apperr"
)

const msgUserNotFound = "User not found"

// Service is the CRUD façade over the user store. Every read path returns
// the redacted projection; password hashes and reset-token state never cross
// this boundary.
type Service struct {
	store repository.Store
}

func New(store repository.Store) *Service {
	return &Service{store: store}
}

// List returns all users, redacted.
func (s *Service) List(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list users", err)
	}

	out := make([]domain.PublicUser, 0, len(users))
	for _, user := range users {
		out = append(out, user.Public())
	}
	return out, nil
}

// GetByID returns a single user, redacted.
func (s *Service) GetByID(ctx context.Context, id int64) (domain.PublicUser, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.PublicUser{}, apperr.NotFound(msgUserNotFound)
		}
		return domain.PublicUser{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}
	return user.Public(), nil
}

// Update applies the given fields to a user. A plaintext password is
// re-hashed before it reaches the store, and a role change is stripped
// unless the caller is an admin.
func (s *Service) Update(ctx context.Context, id int64, fields domain.UpdateFields, callerRole domain.Role) (domain.PublicUser, error) {
	fields = domain.StripRoleUnlessAdmin(fields, callerRole)

	var passwordHash *string
	if fields.Password != nil {
		hashed, err := password.Hash(*fields.Password)
		if err != nil {
			return domain.PublicUser{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
		}
		passwordHash = &hashed
	}

	user, err := s.store.Update(ctx, id, fields.Username, passwordHash, fields.Role)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.PublicUser{}, apperr.NotFound(msgUserNotFound)
		case errors.Is(err, repository.ErrDuplicateUsername):
			return domain.PublicUser{}, apperr.Conflict("Username already exists")
		default:
			return domain.PublicUser{}, apperr.Wrap(apperr.KindInternal, "failed to update user", err)
		}
	}
	return user.Public(), nil
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Wrap(apperr.KindInternal, "failed to delete user", err)
	}
	return nil
}
