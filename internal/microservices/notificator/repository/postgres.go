package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"drone-delivery/internal/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) DeliveryRepositoryInterface {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Claim(ctx context.Context, d domain.Delivery) error {
	const q = `
		INSERT INTO notification_deliveries (message_id, order_id, customer_id, message, outcome, attempts)
		VALUES ($1, $2, $3, $4, 'processing', 1)`
	_, err := r.pool.Exec(ctx, q, d.MessageID, d.OrderID, d.CustomerID, d.Message)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return fmt.Errorf("claim delivery %s: %w", d.MessageID, err)
	}

	// повторная доставка того же сообщения
	var outcome string
	if err := r.pool.QueryRow(ctx,
		`SELECT outcome FROM notification_deliveries WHERE message_id = $1`, d.MessageID,
	).Scan(&outcome); err != nil {
		return fmt.Errorf("read delivery %s: %w", d.MessageID, err)
	}
	if domain.DeliveryOutcome(outcome) == domain.OutcomeDelivered {
		return ErrAlreadyDelivered
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET attempts = attempts + 1, outcome = 'processing', updated_at = now()
		WHERE message_id = $1`, d.MessageID)
	if err != nil {
		return fmt.Errorf("reclaim delivery %s: %w", d.MessageID, err)
	}
	return nil
}

func (r *PostgresRepository) Complete(ctx context.Context, d domain.Delivery) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET outcome = $2, sms_sent = $3, email_sent = $4, error = $5, updated_at = now()
		WHERE message_id = $1`,
		d.MessageID, string(d.Outcome), d.SMSSent, d.EmailSent, d.Error)
	if err != nil {
		return fmt.Errorf("complete delivery %s: %w", d.MessageID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete delivery %s: %w", d.MessageID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) ListByOrder(ctx context.Context, orderID, limit, offset int) ([]domain.Delivery, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT message_id, order_id, customer_id, message, sms_sent, email_sent,
		       outcome, attempts, error, created_at, updated_at
		FROM notification_deliveries
		WHERE order_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, orderID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Delivery, 0)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanDelivery(row pgx.Row) (domain.Delivery, error) {
	var (
		d       domain.Delivery
		outcome string
	)
	err := row.Scan(&d.MessageID, &d.OrderID, &d.CustomerID, &d.Message, &d.SMSSent, &d.EmailSent,
		&outcome, &d.Attempts, &d.Error, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("scan delivery: %w", err)
	}
	d.Outcome = domain.DeliveryOutcome(outcome)
	return d, nil
}
