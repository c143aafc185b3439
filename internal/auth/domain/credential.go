package domain

import "time"

// Credential is the password of a user. At most one exists per user.
type Credential struct {
	ID                 string
	UserID             string
	PasswordHash       string // argon2id, PHC-like without salt segment
	PasswordSalt       string // base64, unique per credential
	ExpiresAt          *time.Time
	MustChangePassword bool
	LastChangedAt      time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
