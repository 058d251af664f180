package repository

import (
	"context"
	"time"

	"accounts_backend/internal/users/domain"
)

// Store is the persistence contract for user records. The auth and user
// services depend on this interface, not on the pgx implementation, so tests
// can run against an in-memory substitute.
type Store interface {
	Create(ctx context.Context, username, passwordHash string, role domain.Role) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id int64, username, passwordHash *string, role *domain.Role) (domain.User, error)
	Delete(ctx context.Context, id int64) error
	SetResetToken(ctx context.Context, id int64, token string, expires time.Time) error
	ResetPassword(ctx context.Context, id int64, passwordHash string) error
}

// Compile-time check that Repository implements Store
var _ Store = (*Repository)(nil)
