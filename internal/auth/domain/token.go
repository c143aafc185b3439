package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type TokenType string

const (
	TokenTypeEmailVerification TokenType = "email_verification"
	TokenTypePasswordReset     TokenType = "password_reset"
	TokenTypeDeviceTrust       TokenType = "device_trust"
	TokenTypeOTP               TokenType = "otp"
)

func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeEmailVerification, TokenTypePasswordReset, TokenTypeDeviceTrust, TokenTypeOTP:
		return true
	}
	return false
}

// Token is a stored single-use secret. Only the fingerprint of the raw value
// is ever persisted.
type Token struct {
	ID         string
	UserID     *string
	TokenHash  string
	Type       TokenType
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	Metadata   TokenMetadata
	CreatedAt  time.Time
}

// Usable reports whether the token is unconsumed and unexpired at now.
func (t Token) Usable(now time.Time) bool {
	return t.ConsumedAt == nil && now.Before(t.ExpiresAt)
}

// Token operations, written to metadata as "operation".
const (
	OpEmailVerify         = "verify"
	OpEmailChange         = "change"
	OpPasswordReset       = "password_reset"
	OpPasskeyRegister     = "register"
	OpPasskeyAuthenticate = "authenticate"
)

var ErrUnknownTokenOperation = errors.New("domain: unknown token operation")

// TokenMetadata is a tagged union: exactly one variant is set and its
// operation is written alongside the fields when encoded.
type TokenMetadata struct {
	EmailVerify   *EmailVerifyMetadata
	EmailChange   *EmailChangeMetadata
	PasswordReset *PasswordResetMetadata
	Passkey       *PasskeyChallengeMetadata
}

type EmailVerifyMetadata struct {
	Email string `json:"email"`
}

type EmailChangeMetadata struct {
	NewEmail           string `json:"newEmail"`
	NormalizedNewEmail string `json:"normalizedEmail"`
	CurrentEmail       string `json:"currentEmail"`
}

type PasswordResetMetadata struct {
	Email           string `json:"email"`
	NormalizedEmail string `json:"normalizedEmail"`
	OTPLength       int    `json:"otpLength"`
}

// PasskeyChallengeMetadata binds a WebAuthn challenge to the serialized
// library session data for one ceremony.
type PasskeyChallengeMetadata struct {
	Operation string          `json:"-"`
	Challenge string          `json:"challenge"`
	Session   json.RawMessage `json:"session"`
}

// Operation returns the tag of the populated variant, or "" for none.
func (m TokenMetadata) Operation() string {
	switch {
	case m.EmailVerify != nil:
		return OpEmailVerify
	case m.EmailChange != nil:
		return OpEmailChange
	case m.PasswordReset != nil:
		return OpPasswordReset
	case m.Passkey != nil:
		return m.Passkey.Operation
	}
	return ""
}

// IsZero reports whether no variant is set.
func (m TokenMetadata) IsZero() bool {
	return m.EmailVerify == nil && m.EmailChange == nil && m.PasswordReset == nil && m.Passkey == nil
}

func (m TokenMetadata) MarshalJSON() ([]byte, error) {
	var variant any
	switch {
	case m.EmailVerify != nil:
		variant = m.EmailVerify
	case m.EmailChange != nil:
		variant = m.EmailChange
	case m.PasswordReset != nil:
		variant = m.PasswordReset
	case m.Passkey != nil:
		variant = m.Passkey
	default:
		return []byte("null"), nil
	}

	body, err := json.Marshal(variant)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	op, _ := json.Marshal(m.Operation())
	fields["operation"] = op
	return json.Marshal(fields)
}

func (m *TokenMetadata) UnmarshalJSON(data []byte) error {
	*m = TokenMetadata{}
	if string(data) == "null" || len(data) == 0 {
		return nil
	}

	var tag struct {
		Operation string `json:"operation"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	switch tag.Operation {
	case OpEmailVerify:
		m.EmailVerify = &EmailVerifyMetadata{}
		return json.Unmarshal(data, m.EmailVerify)
	case OpEmailChange:
		m.EmailChange = &EmailChangeMetadata{}
		return json.Unmarshal(data, m.EmailChange)
	case OpPasswordReset:
		m.PasswordReset = &PasswordResetMetadata{}
		return json.Unmarshal(data, m.PasswordReset)
	case OpPasskeyRegister, OpPasskeyAuthenticate:
		m.Passkey = &PasskeyChallengeMetadata{Operation: tag.Operation}
		return json.Unmarshal(data, m.Passkey)
	}
	return fmt.Errorf("%w: %q", ErrUnknownTokenOperation, tag.Operation)
}
