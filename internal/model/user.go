package model

import (
	"github.com/google/uuid"
)

type Role string

const (
	RolePatient  Role = "patient"
	RoleDoctor   Role = "doctor"
	RolePharmacy Role = "pharmacy"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RolePharmacy, RoleAdmin:
		return true
	}
	return false
}

// User is the identity record. Phone is the immutable natural key.
type User struct {
	Base
	Phone        string  `json:"phone" db:"phone"`
	Email        *string `json:"email,omitempty" db:"email"`
	Name         string  `json:"name" db:"name"`
	Role         Role    `json:"role" db:"role"`
	IsVerified   bool    `json:"isVerified" db:"is_verified"`
	IsActive     bool    `json:"isActive" db:"is_active"`
	Language     string  `json:"language" db:"language"`
	Address      *string `json:"address,omitempty" db:"address"`
	ProfileImage *string `json:"profileImage,omitempty" db:"profile_image"`
	RefreshToken *string `json:"-" db:"refresh_token"`
}

// UserSummary is the embedded view of a user on appointments and catalog entries.
type UserSummary struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Phone        string    `json:"phone" db:"phone"`
	Email        *string   `json:"email,omitempty" db:"email"`
	ProfileImage *string   `json:"profileImage,omitempty" db:"profile_image"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:           u.ID,
		Name:         u.Name,
		Phone:        u.Phone,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
	}
}

const DefaultLanguage = "English"

type UpdateUserRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Address      *string `json:"address" binding:"omitempty,max=500"`
	Language     *string `json:"language" binding:"omitempty,min=1,max=50"`
	ProfileImage *string `json:"profileImage" binding:"omitempty,url"`
}

// Apply copies the set fields onto u.
func (r *UpdateUserRequest) Apply(u *User) {
	if r.Name != nil {
		u.Name = *r.Name
	}
	if r.Email != nil {
		u.Email = r.Email
	}
	if r.Address != nil {
		u.Address = r.Address
	}
	if r.Language != nil {
		u.Language = *r.Language
	}
	if r.ProfileImage != nil {
		u.ProfileImage = r.ProfileImage
	}
}
