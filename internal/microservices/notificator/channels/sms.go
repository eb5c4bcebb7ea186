package channels

import (
	"context"
	"errors"

	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/domain"
)

// SMS имитирует SMS-шлюз и только пишет в лог.
type SMS struct {
	lg *logger.Logger
}

func NewSMS() *SMS { return &SMS{lg: logger.New("notification")} }

func (s *SMS) Name() string { return "sms" }

func (s *SMS) Send(_ context.Context, to domain.ContactInfo, _, body string) error {
	if to.Phone == "" {
		return errors.New("no phone number")
	}
	s.lg.Info("sms_simulated", map[string]any{"phone": to.Phone, "name": to.Name, "message": body})
	return nil
}
