package service

import (
	"context"

	"drone-delivery/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks . OrderStore,ItemCatalog,StoreDirectory,Navigator,NotificationPublisher

type OrderStore interface {
	Get(ctx context.Context, orderID int) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID int, status domain.OrderStatus, droneID *int) (domain.Order, error)
}

type ItemCatalog interface {
	StoreIDForItem(ctx context.Context, itemID int) (int, error)
}

type StoreDirectory interface {
	Get(ctx context.Context, storeID int) (domain.Store, error)
}

type Navigator interface {
	Navigate(ctx context.Context, req domain.NavigationRequest) (domain.NavigationResult, error)
}

type NotificationPublisher interface {
	PublishNotification(ctx context.Context, req domain.NotificationRequest) error
}
