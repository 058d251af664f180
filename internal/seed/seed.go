// Package seed populates a fresh database with initial accounts.
package seed

import (
	"context"

	authservice "accounts_backend/internal/auth/service"
	"accounts_backend/internal/users/domain"
	"accounts_backend/internal/users/repository"
	"accounts_backend/platform/logger"
)

// Run registers the initial accounts when the user table is empty. This is
// the only path allowed to assign the admin role at registration time.
// Running against a non-empty table is a no-op.
func Run(ctx context.Context, store repository.Store, auth *authservice.Service, log *logger.Logger) error {
	existing, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	log.Info("seeding database with initial data")

	accounts := []struct {
		username string
		password string
		role     domain.Role
	}{
		{"admin", "admin123", domain.RoleAdmin},
		{"user1", "password1", domain.RoleUser},
		{"user2", "password2", domain.RoleUser},
		{"user3", "password3", domain.RoleUser},
	}

	for _, account := range accounts {
		if _, err := auth.Register(ctx, account.username, account.password, account.role); err != nil {
			return err
		}
	}

	log.Info("database seeded", "accounts", len(accounts))
	return nil
}
