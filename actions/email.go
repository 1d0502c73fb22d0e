package actions

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/c360/alertflow/errors"
)

// Mailer sends a notification email
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig configures the SMTP mailer
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	From     string `json:"from"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Validate checks the required fields
func (c SMTPConfig) Validate() error {
	if c.Host == "" || c.Port == 0 || c.From == "" {
		return errors.WrapInvalid(
			stderrors.New("host, port and from are required"),
			"SMTPMailer", "Validate", "validate config")
	}
	return nil
}

// SMTPMailer sends mail through a plain SMTP relay
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates a mailer for the given relay
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// Send delivers one message. Auth is used only when credentials are set.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return errors.WrapTransient(err, "SMTPMailer", "Send", "send mail to "+to)
	}
	return nil
}

// EmailHandler builds the handler for "email" actions
func EmailHandler(mailer Mailer) Handler {
	return func(ctx context.Context, data map[string]any) error {
		to := stringField(data, "to", "recipient")
		if to == "" {
			return errors.WrapInvalid(
				stderrors.New("email action requires a recipient"),
				"EmailHandler", "Handle", "read action data")
		}
		subject := stringField(data, "subject", "")
		body := stringField(data, "message", "body")
		return mailer.Send(ctx, to, subject, body)
	}
}
