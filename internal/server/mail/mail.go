// Package mail delivers account codes to users.
package mail

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/safelocker/internal/logging"
	gomail "github.com/wneessen/go-mail"
)

// Message is a plain-text mail to one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// LogMailer writes messages to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mail")}
}

func (l *LogMailer) Send(ctx context.Context, m Message) error {
	l.logger.Info(ctx, "mail", "to", m.To, "subject", m.Subject, "body", m.Body)
	return nil
}

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends through an SMTP relay. STARTTLS is used when offered.
type SMTPMailer struct {
	cfg  SMTPConfig
	dial func(ctx context.Context, c *gomail.Client, msgs ...*gomail.Msg) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg: cfg,
		dial: func(ctx context.Context, c *gomail.Client, msgs ...*gomail.Msg) error {
			return c.DialAndSendWithContext(ctx, msgs...)
		},
	}
}

func (s *SMTPMailer) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithPort(s.cfg.Port),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return gomail.NewClient(s.cfg.Host, opts...)
}

func (s *SMTPMailer) message(m Message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", s.cfg.From, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("to %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, m.Body)
	return msg, nil
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	msg, err := s.message(m)
	if err != nil {
		return err
	}
	c, err := s.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := s.dial(ctx, c, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// ConfirmationMessage is sent after sign-up.
func ConfirmationMessage(to, name, code string) Message {
	return Message{
		To:      to,
		Subject: "Your Safe Locker verification code",
		Body:    fmt.Sprintf("Hi %s,\n\nYour verification code is %s. It is valid for 24 hours.\n", name, code),
	}
}

// ResetMessage is sent by forgot-password.
func ResetMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Reset your Safe Locker password",
		Body:    fmt.Sprintf("Your password reset code is %s. It is valid for 1 hour.\n", code),
	}
}
