package service

import (
	"errors"
	"sort"
	"strings"
)

// Error kinds. Every error a service returns to a caller either is one of
// these, wraps one of these, or is an unexpected failure.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFoundOrExpired = errors.New("not found or expired")
	ErrConflict          = errors.New("conflict")
	ErrAuthentication    = errors.New("authentication failed")
	ErrDelivery          = errors.New("delivery failed")
	ErrForbidden         = errors.New("forbidden")
)

// Error is a user-facing failure. Message is safe to show to the end user.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	// Tokens
	ErrTokenInvalid = newError(ErrNotFoundOrExpired, "Invalid or expired token")

	// Accounts
	ErrEmailExists        = newError(ErrConflict, "Email already exists")
	ErrInvalidCredentials = newError(ErrAuthentication, "Invalid email or password")
	ErrUserNotFound       = newError(ErrNotFoundOrExpired, "User not found")
	ErrNameRequired       = newError(ErrValidation, "Name is required")
	ErrPermissionDenied   = newError(ErrForbidden, "You do not have permission to perform this action")
	ErrPasswordNotSet     = newError(ErrNotFoundOrExpired, "Password is not set for this account")
	ErrCurrentPassword    = newError(ErrAuthentication, "Current password is incorrect")
	ErrPasswordAlreadySet = newError(ErrConflict, "Password is already set for this account")

	// Email
	ErrEmailUnchanged       = newError(ErrValidation, "New email must be different")
	ErrEmailInUse           = newError(ErrConflict, "Email is already in use")
	ErrEmailAlreadyVerified = newError(ErrConflict, "Email is already verified")
	ErrInvalidEmailLink     = newError(ErrNotFoundOrExpired, "Invalid or expired verification link")
	ErrEmailDelivery        = newError(ErrDelivery, "We could not send the email. Please try again.")

	// Password reset
	ErrInvalidResetCode = newError(ErrNotFoundOrExpired, "Invalid or expired code")

	// OAuth
	ErrOAuthLinkedElsewhere = newError(ErrConflict, "This OAuth account is already linked to another user")
	ErrOAuthNotLinked       = newError(ErrNotFoundOrExpired, "OAuth account is not linked")
	ErrOnlySignInMethod     = newError(ErrConflict, "Cannot disconnect the only sign-in method")
	ErrOAuthFailed          = newError(ErrAuthentication, "Failed to connect. Please try again.")
	ErrUnknownProvider      = newError(ErrValidation, "Unsupported OAuth provider")

	// Passkeys
	ErrNoPasskeys          = newError(ErrNotFoundOrExpired, "No passkeys are registered for this account")
	ErrPasskeyChallenge    = newError(ErrNotFoundOrExpired, "Invalid or expired passkey challenge")
	ErrPasskeyNotOwned     = newError(ErrForbidden, "Passkey does not belong to this account")
	ErrPasskeyVerification = newError(ErrAuthentication, "Passkey verification failed")
	ErrPasskeyNotFound     = newError(ErrNotFoundOrExpired, "Passkey not found")
)

// ValidationError lists the offending fields of a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Message returns the end-user text for err and whether err carried one.
func Message(err error) (string, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Message, true
	}
	return "", false
}
