package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/cliphive/cliphive/config"
	"github.com/domodwyer/mailyak/v3"
)

// Sender delivers one time codes. Delivery is synchronous: the workflow
// step that requested the code fails if the message cannot be sent, so the
// client knows no code is on the way.
type Sender interface {
	SendOtp(ctx context.Context, email, purpose, otp string) error
}

// Mailer sends mail over SMTP.
type Mailer struct {
	host        string
	port        int
	username    string
	password    string
	fromName    string
	fromAddr    string
	useStartTLS bool
	logger      *slog.Logger
}

// New creates a new Mailer instance
func New(cfg config.Smtp, logger *slog.Logger) *Mailer {
	return &Mailer{
		host:        cfg.Host,
		port:        cfg.Port,
		username:    cfg.Username,
		password:    cfg.Password,
		fromName:    cfg.FromName,
		fromAddr:    cfg.FromAddress,
		useStartTLS: cfg.UseStartTLS,
		logger:      logger,
	}
}

// newMail picks the dialer for the configured transport. With STARTTLS
// the plain dialer connects first and upgrades; otherwise the connection
// is implicit TLS from the first byte.
func (m *Mailer) newMail() (*mailyak.MailYak, error) {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if m.useStartTLS {
		return mailyak.New(addr, auth), nil
	}
	return mailyak.NewWithTLS(addr, auth, nil)
}

// LogSender is the delivery backend when SMTP is disabled. The code is
// written to the log instead of being mailed, which is enough for local
// development.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) SendOtp(ctx context.Context, email, purpose, otp string) error {
	if _, ok := purposeSubjects[purpose]; !ok {
		return fmt.Errorf("unknown mail purpose %q", purpose)
	}
	s.Logger.Info("smtp disabled, logging otp instead of sending",
		"email", email, "purpose", purpose, "otp", otp)
	return nil
}

var purposeSubjects = map[string]string{
	"registration":   "Confirm your email address",
	"email_change":   "Confirm your new email address",
	"password_reset": "Your password reset code",
}

// SendOtp sends a one time code to the given address. The purpose selects
// the subject line and message text.
func (m *Mailer) SendOtp(ctx context.Context, email, purpose, otp string) error {
	subject, ok := purposeSubjects[purpose]
	if !ok {
		return fmt.Errorf("unknown mail purpose %q", purpose)
	}

	mail, err := m.newMail()
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}

	mail.To(email)
	mail.From(m.fromAddr)
	mail.FromName(m.fromName)
	mail.Subject(subject)
	mail.Plain().Set(fmt.Sprintf(
		"Your verification code is %s.\n\nIt expires shortly. If you did not request this code, ignore this message.\n", otp))
	mail.HTML().Set(fmt.Sprintf(`
		<h1>%s</h1>
		<p>Your verification code is:</p>
		<p style="font-size: 2em; letter-spacing: 0.2em;"><strong>%s</strong></p>
		<p>It expires shortly. If you did not request this code, ignore this message.</p>
	`, subject, otp))

	// mailyak has no context support, so the send runs in a goroutine and
	// the caller's deadline wins.
	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send otp email: %w", err)
		}
	}

	m.logger.Info("sent otp email", "email", email, "purpose", purpose)
	return nil
}
