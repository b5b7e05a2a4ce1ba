package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"clinic-management-api/config"

	"github.com/sirupsen/logrus"
)

// Mailer is the notification port used by the password-reset flow. Message
// content and templating live with the caller-facing surface, not here.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

type smtpMailer struct {
	cfg config.SMTPConfig
	log *logrus.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, log *logrus.Logger) Mailer {
	return &smtpMailer{cfg: cfg, log: log}
}

func (m *smtpMailer) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Password reset\r\n\r\nReset your password: %s\r\n",
		m.cfg.From, to, resetLink,
	)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send password reset mail: %w", err)
	}

	m.log.Infof("Password reset mail sent to %s", to)
	return nil
}
