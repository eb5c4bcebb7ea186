package service

import (
	"context"

	"drone-delivery/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks . Channel,CustomerDirectory

// Channel: один способ доставки (sms, email).
type Channel interface {
	Name() string
	Send(ctx context.Context, to domain.ContactInfo, subject, body string) error
}

type CustomerDirectory interface {
	Get(ctx context.Context, customerID int) (domain.ContactInfo, error)
}

type ContactResolver interface {
	Resolve(ctx context.Context, customerID int) domain.ContactInfo
}
