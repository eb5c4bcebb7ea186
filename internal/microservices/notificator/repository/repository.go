package repository

import (
	"context"
	"embed"
	"errors"

	"drone-delivery/internal/domain"
)

//go:embed migrations/postgres/*.sql
var PostgresMigrations embed.FS

const PostgresMigrationsDir = "migrations/postgres"

// ErrAlreadyDelivered: сообщение с этим message_id уже было доставлено.
var ErrAlreadyDelivered = errors.New("notification already delivered")

// DeliveryRepositoryInterface: журнал доставки уведомлений с ключом AMQP MessageId.
type DeliveryRepositoryInterface interface {
	// Claim регистрирует попытку. Повторная попытка увеличивает attempts;
	// если запись уже delivered, возвращается ErrAlreadyDelivered.
	Claim(ctx context.Context, d domain.Delivery) error
	Complete(ctx context.Context, d domain.Delivery) error
	ListByOrder(ctx context.Context, orderID, limit, offset int) ([]domain.Delivery, error)
	Close() error
}
