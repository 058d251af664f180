// Package domain defines the user entity and role model shared by the auth
// and user-management modules.
package domain

import (
	"fmt"
	"time"
)

// Role is the closed set of user roles. Modeled as a distinct type so an
// invalid role is a construction-time error, not a runtime surprise.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("invalid role %q", raw)
	}
}

// IsValid reports whether the role is a member of the closed set.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the persisted user row. PasswordHash, ResetToken and
// ResetTokenExpires never leave the service boundary; Public strips them.
type User struct {
	ID                int64
	Username          string
	PasswordHash      string
	Role              Role
	ResetToken        *string
	ResetTokenExpires *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PublicUser is the externally visible projection of a user.
type PublicUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public returns the redacted projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UpdateFields carries the optional fields of a user update. Password holds
// plaintext on the way into the service and is re-hashed before it reaches
// the store.
type UpdateFields struct {
	Username *string
	Password *string
	Role     *Role
}

// IsEmpty reports whether the update carries no changes.
func (f UpdateFields) IsEmpty() bool {
	return f.Username == nil && f.Password == nil && f.Role == nil
}

// StripRoleUnlessAdmin returns a copy of fields with the role change removed
// when the caller is not an admin. Privilege stripping is a pure function so
// it can be tested without a request in flight.
func StripRoleUnlessAdmin(fields UpdateFields, callerRole Role) UpdateFields {
	if callerRole != RoleAdmin {
		fields.Role = nil
	}
	return fields
}
