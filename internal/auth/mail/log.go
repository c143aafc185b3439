package mail

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// LogSender writes messages to the request logger instead of sending them.
// Development and tests only: bodies contain live links and codes.
type LogSender struct {
	AppName string
}

func (s LogSender) log(ctx context.Context, kind string, msg rendered, err error) error {
	if err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("mail",
		slog.String("kind", kind),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}

func (s LogSender) SendVerification(ctx context.Context, m VerificationMessage) error {
	r, err := renderVerification(s.AppName, m)
	return s.log(ctx, "verification", r, err)
}

func (s LogSender) SendEmailChange(ctx context.Context, m EmailChangeMessage) error {
	r, err := renderEmailChange(s.AppName, m)
	return s.log(ctx, "email_change", r, err)
}

func (s LogSender) SendPasswordResetCode(ctx context.Context, m PasswordResetMessage) error {
	r, err := renderPasswordReset(s.AppName, m)
	return s.log(ctx, "password_reset", r, err)
}

func (s LogSender) SendInvitation(ctx context.Context, m InvitationMessage) error {
	r, err := renderInvitation(s.AppName, m)
	return s.log(ctx, "invitation", r, err)
}
