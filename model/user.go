package model

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a stored role string onto the closed enum. Unknown values
// are rejected rather than treated as a plain user.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleLibrarian, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Staff reports whether the role may act on other users' loans and fines.
func (r Role) Staff() bool { return r == RoleLibrarian || r == RoleAdmin }

type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	Phone        *string   `json:"phone,omitempty"`
	Address      *string   `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterReq represents user registration payload
// swagger:model RegisterReq
type RegisterReq struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginReq represents login payload
// swagger:model LoginReq
type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateUserReq is the admin payload for provisioning an account directly.
// Admin accounts are never created this way.
// swagger:model CreateUserReq
type CreateUserReq struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=user librarian"`
}

// UpdateProfileReq carries the fields a user may edit on their own account.
// Pointer fields distinguish "leave unchanged" from "clear".
// swagger:model UpdateProfileReq
type UpdateProfileReq struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=255"`
}

// ChangePasswordReq requires the current password before setting a new one.
// swagger:model ChangePasswordReq
type ChangePasswordReq struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}
