package domain

import "time"

// UserStatus enumerates lifecycle states for a platform member.
type UserStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusVerified  UserStatus = "verified"
)

// User is the admin-facing view of a platform member.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Status           UserStatus `json:"status"`
	IsVerified       bool       `json:"isVerified"`
	IsPremium        bool       `json:"isPremium"`
	Role             string     `json:"role"`
	RegistrationDate time.Time  `json:"registrationDate"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (u User) EntityKind() Kind   { return KindUsers }
func (u User) Key() string        { return u.ID }
func (u User) Version() time.Time { return u.UpdatedAt }
