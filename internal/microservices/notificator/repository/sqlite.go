package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"drone-delivery/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS notification_deliveries (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    message_id  TEXT      NOT NULL UNIQUE,
    order_id    INTEGER   NOT NULL,
    customer_id INTEGER   NOT NULL,
    message     TEXT      NOT NULL,
    sms_sent    BOOLEAN   NOT NULL DEFAULT 0,
    email_sent  BOOLEAN   NOT NULL DEFAULT 0,
    outcome     TEXT      NOT NULL DEFAULT 'processing',
    attempts    INTEGER   NOT NULL DEFAULT 1,
    error       TEXT      NOT NULL DEFAULT '',
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notification_deliveries_order ON notification_deliveries (order_id);`

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite открывает файл (или ":memory:") и создаёт схему.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite не любит конкурентных писателей; для :memory: это ещё и одна БД на соединение
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (r *SQLiteRepository) Claim(ctx context.Context, d domain.Delivery) error {
	now := r.now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_deliveries (message_id, order_id, customer_id, message, outcome, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'processing', 1, ?, ?)`,
		d.MessageID, d.OrderID, d.CustomerID, d.Message, now, now)
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return fmt.Errorf("claim delivery %s: %w", d.MessageID, err)
	}

	var outcome string
	if err := r.db.QueryRowContext(ctx,
		`SELECT outcome FROM notification_deliveries WHERE message_id = ?`, d.MessageID,
	).Scan(&outcome); err != nil {
		return fmt.Errorf("read delivery %s: %w", d.MessageID, err)
	}
	if domain.DeliveryOutcome(outcome) == domain.OutcomeDelivered {
		return ErrAlreadyDelivered
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE notification_deliveries
		SET attempts = attempts + 1, outcome = 'processing', updated_at = ?
		WHERE message_id = ?`, now, d.MessageID)
	if err != nil {
		return fmt.Errorf("reclaim delivery %s: %w", d.MessageID, err)
	}
	return nil
}

func (r *SQLiteRepository) Complete(ctx context.Context, d domain.Delivery) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notification_deliveries
		SET outcome = ?, sms_sent = ?, email_sent = ?, error = ?, updated_at = ?
		WHERE message_id = ?`,
		string(d.Outcome), d.SMSSent, d.EmailSent, d.Error, r.now(), d.MessageID)
	if err != nil {
		return fmt.Errorf("complete delivery %s: %w", d.MessageID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete delivery %s: %w", d.MessageID, domain.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListByOrder(ctx context.Context, orderID, limit, offset int) ([]domain.Delivery, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT message_id, order_id, customer_id, message, sms_sent, email_sent,
		       outcome, attempts, error, created_at, updated_at
		FROM notification_deliveries
		WHERE order_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, orderID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Delivery, 0)
	for rows.Next() {
		var (
			d       domain.Delivery
			outcome string
		)
		if err := rows.Scan(&d.MessageID, &d.OrderID, &d.CustomerID, &d.Message, &d.SMSSent, &d.EmailSent,
			&outcome, &d.Attempts, &d.Error, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.Outcome = domain.DeliveryOutcome(outcome)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Close() error { return r.db.Close() }

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
