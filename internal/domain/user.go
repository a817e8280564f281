package domain

import "time"

// UserStatus represents the approval lifecycle of an account.
type UserStatus string

const (
	UserStatusPending  UserStatus = "PENDING"
	UserStatusApproved UserStatus = "APPROVED"
)

// User is a salesperson account. New accounts start PENDING and can only
// move to APPROVED through an admin approval.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	Status       UserStatus
	ApprovedAt   *time.Time
	ApprovedBy   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsApproved reports whether the account may authenticate.
func (u *User) IsApproved() bool {
	return u != nil && u.Status == UserStatusApproved
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
