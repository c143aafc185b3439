// Package mail delivers the account emails: verification links, email
// change confirmations, password reset codes and invitations.
package mail

import (
	"context"
	"errors"
)

// ErrUnknownTransport reports an unsupported MAIL_TRANSPORT value.
var ErrUnknownTransport = errors.New("mail: unknown transport")

type VerificationMessage struct {
	To   string
	Name string
	URL  string
}

type EmailChangeMessage struct {
	To           string
	Name         string
	URL          string
	CurrentEmail string
}

type PasswordResetMessage struct {
	To               string
	Name             string
	Code             string
	ExpiresInMinutes int
}

type InvitationMessage struct {
	To               string
	InviterName      string
	OrganizationName string
	URL              string
}

// Sender delivers account emails. Any returned error means the message was
// not delivered.
type Sender interface {
	SendVerification(ctx context.Context, msg VerificationMessage) error
	SendEmailChange(ctx context.Context, msg EmailChangeMessage) error
	SendPasswordResetCode(ctx context.Context, msg PasswordResetMessage) error
	SendInvitation(ctx context.Context, msg InvitationMessage) error
}
