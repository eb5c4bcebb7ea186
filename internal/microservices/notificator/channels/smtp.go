package channels

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"drone-delivery/internal/config"
	"drone-delivery/internal/domain"
)

type SMTP struct {
	cfg config.EmailConfig
}

func NewSMTP(cfg config.EmailConfig) *SMTP { return &SMTP{cfg: cfg} }

func (s *SMTP) Name() string { return "email" }

func (s *SMTP) Send(ctx context.Context, to domain.ContactInfo, subject, body string) error {
	msg, err := s.message(to, subject, body)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to.Email, err)
	}
	return nil
}

func (s *SMTP) message(to domain.ContactInfo, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
		return nil, fmt.Errorf("smtp from %q: %w", s.cfg.From, err)
	}
	if err := msg.AddToFormat(to.Name, to.Email); err != nil {
		return nil, fmt.Errorf("smtp to %q: %w", to.Email, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody(to.Name, body))
	return msg, nil
}
