package domain

import "time"

// User is an account. Email is stored normalised (trimmed, lower case).
type User struct {
	ID              string
	Email           string
	Name            string
	Role            Role
	EmailVerifiedAt *time.Time
	LastSignInAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EmailVerified reports whether the current address has been confirmed.
func (u User) EmailVerified() bool { return u.EmailVerifiedAt != nil }

// SessionUser is the projection of a User carried inside a session.
type SessionUser struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Session returns the session projection of u.
func (u User) Session() SessionUser {
	return SessionUser{ID: u.ID, Role: u.Role}
}
