package transport

import "accounts_backend/internal/users/domain"

type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=20"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Fields converts the request into domain update fields. The role value has
// already passed the oneof check, so the parse cannot fail here.
func (r UpdateUserRequest) Fields() domain.UpdateFields {
	fields := domain.UpdateFields{
		Username: r.Username,
		Password: r.Password,
	}
	if r.Role != nil {
		if role, err := domain.ParseRole(*r.Role); err == nil {
			fields.Role = &role
		}
	}
	return fields
}
