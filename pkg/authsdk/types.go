package authsdk

import (
	"encoding/json"
	"time"
)

// ============================================================================
// Error and Health Types
// ============================================================================

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	// Code is a stable machine-readable error code (e.g. "conflict")
	Code string `json:"code"`

	// Message is a human-readable message safe to show to the user
	Message string `json:"message"`

	// Details holds per-field validation messages keyed by json field name
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	// Status is "ok" or "degraded"
	Status string `json:"status"`

	// Uptime is the service uptime (e.g. "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the build version
	Version string `json:"version,omitempty"`

	// Checks is only present on /readyz
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of critical dependencies.
type HealthChecks struct {
	Database string `json:"database"`
}

// StatusResponse acknowledges requests that return no data.
type StatusResponse struct {
	Status string `json:"status"`
}

// ============================================================================
// Sessions and Accounts
// ============================================================================

// SessionUser is the identity carried by the session cookie.
type SessionUser struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// SessionResponse is returned by every endpoint that issues a session.
type SessionResponse struct {
	User SessionUser `json:"user"`
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	EmailVerified   bool       `json:"emailVerified"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	LastSignInAt    *time.Time `json:"lastSignInAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ProfileResponse is UserResponse plus details only the owner sees.
type ProfileResponse struct {
	UserResponse

	HasPassword bool `json:"hasPassword"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type CreatePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// ============================================================================
// Email
// ============================================================================

type EmailChangeRequest struct {
	Email string `json:"email"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// VerifyEmailResponse reports which operation a link completed.
type VerifyEmailResponse struct {
	// Operation is "verify" or "change"
	Operation string `json:"operation"`
	Email     string `json:"email"`
}

// ============================================================================
// Password Reset
// ============================================================================

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// ============================================================================
// OAuth
// ============================================================================

// OAuthConnection is one provider as seen from the account settings page.
type OAuthConnection struct {
	Provider    string     `json:"provider"`
	DisplayName string     `json:"displayName"`
	Connected   bool       `json:"connected"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
}

// ============================================================================
// Passkeys
// ============================================================================

// PasskeyResponse describes a registered passkey. Key material is never
// returned.
type PasskeyResponse struct {
	ID               string     `json:"id"`
	Label            *string    `json:"label,omitempty"`
	Transports       []string   `json:"transports"`
	AAGUID           *string    `json:"aaguid,omitempty"`
	IsBackupEligible bool       `json:"isBackupEligible"`
	IsBackupState    bool       `json:"isBackupState"`
	LastUsedAt       *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// PasskeyAuthenticationOptionsRequest starts a passkey sign-in.
type PasskeyAuthenticationOptionsRequest struct {
	Email string `json:"email"`
}

// PasskeyVerifyRequest carries the browser's credential response verbatim.
// Email is only read by the authentication ceremony.
type PasskeyVerifyRequest struct {
	Email    string          `json:"email,omitempty"`
	Response json.RawMessage `json:"response"`
}

type RenamePasskeyRequest struct {
	Label string `json:"label"`
}
