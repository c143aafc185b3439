package mail

import (
	"bytes"
	"fmt"
	"text/template"
)

type rendered struct {
	To      string
	Subject string
	Body    string
}

var templates = template.Must(template.New("mail").Parse(`
{{define "verification"}}Hi {{.Name}},

Confirm your email address by opening the link below:

{{.URL}}

The link expires in 24 hours. If you did not create an account you can ignore this email.
{{end}}
{{define "email_change"}}Hi {{.Name}},

You asked to change the email on your account from {{.CurrentEmail}} to this address.
Confirm the change by opening the link below:

{{.URL}}

If you did not ask for this you can ignore this email.
{{end}}
{{define "password_reset"}}Hi {{.Name}},

Your password reset code is {{.Code}}

It expires in {{.ExpiresInMinutes}} minutes. If you did not ask to reset your password you can ignore this email.
{{end}}
{{define "invitation"}}Hi,

{{.InviterName}} invited you to join {{.OrganizationName}}.
Accept the invitation by opening the link below:

{{.URL}}
{{end}}
`))

func render(name, to, subject string, data any) (rendered, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return rendered{}, fmt.Errorf("render %s: %w", name, err)
	}
	return rendered{To: to, Subject: subject, Body: buf.String()}, nil
}

func renderVerification(app string, m VerificationMessage) (rendered, error) {
	return render("verification", m.To, "Verify your email for "+app, m)
}

func renderEmailChange(app string, m EmailChangeMessage) (rendered, error) {
	return render("email_change", m.To, "Confirm your new email for "+app, m)
}

func renderPasswordReset(app string, m PasswordResetMessage) (rendered, error) {
	return render("password_reset", m.To, "Your "+app+" password reset code", m)
}

func renderInvitation(app string, m InvitationMessage) (rendered, error) {
	return render("invitation", m.To, "You're invited to "+m.OrganizationName+" on "+app, m)
}
