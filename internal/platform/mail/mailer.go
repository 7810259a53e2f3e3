// Package mail sends transactional email over SMTP: verification codes,
// password reset codes, and capsule delivery links.
package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/gomail.v2"

	"github.com/phrazzld/capsule-api/internal/config"
)

// sender abstracts gomail's dialer so tests can capture outgoing messages.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends application email through an SMTP relay.
type Mailer struct {
	sender    sender
	from      string
	baseURL   string
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// NewMailer creates a Mailer from SMTP configuration. baseURL is the
// externally reachable API root used to build capsule links.
func NewMailer(cfg config.EmailConfig, baseURL string) *Mailer {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	return &Mailer{
		sender:    dialer,
		from:      cfg.FromAddress,
		baseURL:   baseURL,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    slog.Default().With(slog.String("component", "mailer")),
	}
}

// NewMailerWithSender creates a Mailer with a custom sender. Used in tests.
func NewMailerWithSender(s sender, from, baseURL string) *Mailer {
	return &Mailer{
		sender:    s,
		from:      from,
		baseURL:   baseURL,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    slog.Default().With(slog.String("component", "mailer")),
	}
}

var otpTemplate = template.Must(template.New("otp").Parse(`<html><body>
<p>Hello{{if .Name}} {{.Name}}{{end}},</p>
<p>Your verification code is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{.Code}}</p>
<p>The code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this message.</p>
</body></html>`))

var capsuleTemplate = template.Must(template.New("capsule").Parse(`<html><body>
<p>Hello,</p>
<p>{{.SenderEmail}} sent you a time capsule titled &ldquo;{{.Title}}&rdquo;.</p>
{{if .Message}}<blockquote style="border-left:3px solid #ccc;padding-left:12px">{{.Message}}</blockquote>
{{end}}<p>It is now unlocked. Open it with your personal link:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>This link is unique to you. Do not share it.</p>
</body></html>`))

// SendOTP emails a one-time verification code for account activation.
func (m *Mailer) SendOTP(to, name, code string, validity time.Duration) error {
	return m.sendOTPMail(to, name, code, validity, "Verify your account")
}

// SendPasswordResetOTP emails a one-time code for resetting a password.
func (m *Mailer) SendPasswordResetOTP(to, name, code string, validity time.Duration) error {
	return m.sendOTPMail(to, name, code, validity, "Reset your password")
}

func (m *Mailer) sendOTPMail(to, name, code string, validity time.Duration, subject string) error {
	var body bytes.Buffer
	err := otpTemplate.Execute(&body, map[string]any{
		"Name":    m.sanitizer.Sanitize(name),
		"Code":    code,
		"Minutes": int(validity.Minutes()),
	})
	if err != nil {
		return fmt.Errorf("failed to render email body: %w", err)
	}

	plain := fmt.Sprintf(
		"Your verification code is %s. It expires in %d minutes.",
		code, int(validity.Minutes()),
	)

	return m.send(to, subject, plain, body.String())
}

// SendCapsuleLink emails a recipient their secure link to an unlocked
// capsule. message is the capsule's leading text content and may be empty.
// Title and message are user-supplied and are sanitized before rendering.
func (m *Mailer) SendCapsuleLink(to, senderEmail, title, message, accessToken string) error {
	link := fmt.Sprintf("%s/api/capsules/open/%s", m.baseURL, accessToken)
	message = m.sanitizer.Sanitize(message)

	var body bytes.Buffer
	err := capsuleTemplate.Execute(&body, map[string]any{
		"SenderEmail": senderEmail,
		"Title":       m.sanitizer.Sanitize(title),
		"Message":     message,
		"Link":        link,
	})
	if err != nil {
		return fmt.Errorf("failed to render email body: %w", err)
	}

	plain := fmt.Sprintf(
		"%s sent you a time capsule. Open it here: %s",
		senderEmail, link,
	)
	if message != "" {
		plain = fmt.Sprintf(
			"%s sent you a time capsule:\n\n%s\n\nOpen it here: %s",
			senderEmail, message, link,
		)
	}

	return m.send(to, "A time capsule has arrived for you", plain, body.String())
}

func (m *Mailer) send(to, subject, plain, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plain)
	msg.AddAlternative("text/html", html)

	if err := m.sender.DialAndSend(msg); err != nil {
		m.logger.Error("failed to send email",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Debug("email sent", slog.String("subject", subject))
	return nil
}
