package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleRenter Role = "renter"
	RoleAdmin  Role = "admin"
)

// Profile mirrors an auth provider user. The ID is the token subject.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"size:254;index" json:"email"`
	FullName  string    `gorm:"size:120" json:"full_name"`
	Phone     string    `gorm:"size:32" json:"phone,omitempty"`
	Role      Role      `gorm:"size:16;not null;default:renter" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SignupInput is the registration payload. Admins are never self-registered.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Phone    string `json:"phone" validate:"omitempty,min=8,max=16,numeric"`
	Role     string `json:"role" validate:"required,oneof=owner renter"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Actor is the authenticated caller as seen by services.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) CanManageVenues() bool {
	return a.Role == RoleOwner || a.Role == RoleAdmin
}
