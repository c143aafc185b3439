package domain

import "time"

// Passkey is a registered WebAuthn credential.
type Passkey struct {
	ID               string
	UserID           string
	CredentialID     string // base64url
	PublicKey        string // base64url COSE key
	Label            *string
	Transports       []string
	SignCount        uint32
	AAGUID           *string
	AttestationType  string
	IsBackupEligible bool
	IsBackupState    bool
	IsUserVerified   bool
	LastUsedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
