package infra

import (
	"errors"
	"fmt"
	"net/smtp"

	"bookpos/internal/config"

	"github.com/jordan-wright/email"
	"github.com/sony/gobreaker"
)

// ErrMailerDisabled is returned when SMTP_HOST is not configured.
var ErrMailerDisabled = errors.New("mailer: smtp not configured")

// Mailer sends e-mails with optional PDF attachments through one SMTP relay.
// Sends go through a circuit breaker so a dead relay fails fast.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
	breaker  *gobreaker.CircuitBreaker
	send     func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		breaker:  NewBreaker("smtp", DefaultBreakerConfig()),
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Enabled reports whether an SMTP relay is configured.
func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

// Send delivers a plain-text message, attaching the file at attachPath when set.
func (m *Mailer) Send(to, subject, body, attachPath string) error {
	if !m.Enabled() {
		return ErrMailerDisabled
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachPath != "" {
		if _, err := e.AttachFile(attachPath); err != nil {
			return fmt.Errorf("mailer: attach file: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, m.send(e, m.addr, auth)
	})
	if err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
