// Package email delivers notification emails over SMTP via go-mail.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/JamshedLatipov/crm-sub002/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender sends plain-text notification emails through a configured SMTP
// server. It satisfies the notification service's EmailSender port.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates a sender from the email configuration. Returns nil
// when email delivery is disabled; callers treat a nil sender as "outbox
// only".
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	if !cfg.GetEmailEnabled() {
		return nil
	}
	return &SMTPSender{
		host:     cfg.GetSMTPHost(),
		port:     cfg.GetSMTPPort(),
		username: cfg.GetSMTPUsername(),
		password: cfg.GetSMTPPassword(),
		from:     cfg.GetEmailFromAddress(),
	}
}

// Send delivers a single message. The connection is opened per message; the
// outbox flusher batches rarely enough that pooling is not worth it.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
