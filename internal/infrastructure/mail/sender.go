package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/kthimi/invoicer/internal/infrastructure/config"
)

// Message is one outbound invoice notification.
type Message struct {
	To          []string
	Cc          []string
	Subject     string
	HTMLBody    string
	Attachments []string
}

// Sender delivers a message to the mail relay. One call is one delivery
// attempt; retry policy lives above this interface.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPSender sends messages through an SMTP relay using STARTTLS when the
// server offers it.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewSMTPSender creates a sender from relay settings.
func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPSender {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPSender{
		dialer: dialer,
		from:   cfg.From,
		logger: logger.Named("mail"),
	}
}

// Send performs a single delivery attempt.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	for _, path := range msg.Attachments {
		m.Attach(path)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp delivery: %w", err)
	}

	s.logger.Info("email sent",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}

var _ Sender = (*SMTPSender)(nil)
