package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"

	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/common/metrics"
	"drone-delivery/internal/domain"
	"drone-delivery/internal/microservices/notificator/queue"
	"drone-delivery/internal/microservices/notificator/repository"
)

var (
	ErrNotDelivered   = errors.New("notification not delivered")
	ErrEmailDisabled  = errors.New("email channel is disabled")
	ErrLedgerDisabled = errors.New("delivery ledger is disabled")
)

const (
	deliveryTimeout = 30 * time.Second

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type ChannelResult struct {
	Channel string `json:"channel"`
	Sent    bool   `json:"sent"`
	Error   string `json:"error,omitempty"`
}

type Outcome struct {
	CustomerID int                `json:"customer_id"`
	OrderID    int                `json:"order_id"`
	Message    string             `json:"message"`
	Contact    domain.ContactInfo `json:"contact"`
	SMSSent    bool               `json:"sms_sent"`
	EmailSent  bool               `json:"email_sent"`
	Channels   []ChannelResult    `json:"channels"`
}

// Delivered: хотя бы один канал отработал.
func (o Outcome) Delivered() bool { return o.SMSSent || o.EmailSent }

type DispatcherInterface interface {
	Send(ctx context.Context, req domain.NotificationRequest) (Outcome, error)
	SendTestEmail(ctx context.Context, email string) error
	History(ctx context.Context, orderID, limit, offset int) ([]domain.Delivery, error)
	HandleDelivery(ctx context.Context, msg amqp.Delivery) error
}

type Options struct {
	DeadLetterOnFailure bool
}

type Dispatcher struct {
	contacts ContactResolver
	sms      Channel
	email    Channel                                // nil, если email выключен
	ledger   repository.DeliveryRepositoryInterface // nil, если журнал выключен
	m        *metrics.Metrics
	opts     Options
	lg       *logger.Logger
}

func NewDispatcher(
	contacts ContactResolver,
	sms, email Channel,
	ledger repository.DeliveryRepositoryInterface,
	m *metrics.Metrics,
	opts Options,
) *Dispatcher {
	return &Dispatcher{
		contacts: contacts,
		sms:      sms,
		email:    email,
		ledger:   ledger,
		m:        m,
		opts:     opts,
		lg:       logger.New("notification"),
	}
}

func (d *Dispatcher) Send(ctx context.Context, req domain.NotificationRequest) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	contact := d.contacts.Resolve(ctx, req.CustomerID)
	out := Outcome{CustomerID: req.CustomerID, OrderID: req.OrderID, Message: req.Message, Contact: contact}
	subject := fmt.Sprintf("Drone Delivery Update - Order #%d", req.OrderID)

	var errs error
	out.SMSSent = d.try(ctx, d.sms, contact, subject, req.Message, "", &out, &errs)
	if d.email != nil {
		skip := ""
		if contact.IsPlaceholder() || strings.TrimSpace(contact.Email) == "" {
			skip = "no deliverable email address"
		}
		out.EmailSent = d.try(ctx, d.email, contact, subject, req.Message, skip, &out, &errs)
	}

	if !out.Delivered() {
		return out, fmt.Errorf("%w: %w", ErrNotDelivered, errs)
	}
	if errs != nil {
		d.lg.Warn("partial_delivery", map[string]any{"order_id": req.OrderID, "error": errs.Error()})
	}
	return out, nil
}

func (d *Dispatcher) try(ctx context.Context, ch Channel, to domain.ContactInfo, subject, body, skip string, out *Outcome, errs *error) bool {
	res := ChannelResult{Channel: ch.Name()}
	switch {
	case skip != "":
		res.Error = skip
		*errs = multierr.Append(*errs, fmt.Errorf("%s: %s", ch.Name(), skip))
		d.m.ChannelSends.WithLabelValues(ch.Name(), "skipped").Inc()
	default:
		if err := ch.Send(ctx, to, subject, body); err != nil {
			res.Error = err.Error()
			*errs = multierr.Append(*errs, fmt.Errorf("%s: %w", ch.Name(), err))
			d.m.ChannelSends.WithLabelValues(ch.Name(), "error").Inc()
		} else {
			res.Sent = true
			d.m.ChannelSends.WithLabelValues(ch.Name(), "ok").Inc()
		}
	}
	out.Channels = append(out.Channels, res)
	return res.Sent
}

func (d *Dispatcher) SendTestEmail(ctx context.Context, email string) error {
	if d.email == nil {
		return ErrEmailDisabled
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: missing email", domain.ErrValidation)
	}
	to := domain.ContactInfo{Name: "Test Recipient", Email: email}
	body := "This is a test email from the Drone Delivery notification service. If you received it, email delivery is configured correctly."
	if err := d.email.Send(ctx, to, "Drone Delivery Service - Test Email", body); err != nil {
		return err
	}
	d.lg.Info("test_email_sent", map[string]any{"email": email})
	return nil
}

func (d *Dispatcher) History(ctx context.Context, orderID, limit, offset int) ([]domain.Delivery, error) {
	if d.ledger == nil {
		return nil, ErrLedgerDisabled
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return d.ledger.ListByOrder(ctx, orderID, limit, offset)
}

// HandleDelivery: обработка сообщения из очереди.
// nil -> ack; queue.ErrDLQ -> nack без requeue (уходит в DLQ).
func (d *Dispatcher) HandleDelivery(ctx context.Context, msg amqp.Delivery) error {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	fields := map[string]any{
		"message_id":   msg.MessageId,
		"delivery_tag": msg.DeliveryTag,
		"redelivered":  msg.Redelivered,
	}

	var req domain.NotificationRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		return d.discard(err, fields)
	}
	if err := req.Validate(); err != nil {
		return d.discard(err, fields)
	}
	fields["order_id"], fields["customer_id"] = req.OrderID, req.CustomerID

	claimed := false
	if d.ledger != nil && msg.MessageId != "" {
		err := d.ledger.Claim(ctx, domain.Delivery{
			MessageID:  msg.MessageId,
			OrderID:    req.OrderID,
			CustomerID: req.CustomerID,
			Message:    req.Message,
		})
		switch {
		case errors.Is(err, repository.ErrAlreadyDelivered):
			d.m.Dispatched.WithLabelValues("duplicate").Inc()
			d.lg.Info("duplicate_skipped", fields)
			return nil
		case err != nil:
			// журнал недоступен: доставляем без дедупликации
			d.lg.Error("ledger_claim_failed", err, fields)
		default:
			claimed = true
		}
	}

	out, sendErr := d.Send(ctx, req)
	if claimed {
		d.complete(ctx, msg.MessageId, out, sendErr, fields)
	}

	fields["sms_sent"], fields["email_sent"] = out.SMSSent, out.EmailSent
	if sendErr == nil {
		d.m.Dispatched.WithLabelValues("delivered").Inc()
		d.lg.Info("notification_delivered", fields)
		return nil
	}

	d.m.Dispatched.WithLabelValues("failed").Inc()
	d.lg.Error("notification_failed", sendErr, fields)
	if d.opts.DeadLetterOnFailure {
		return fmt.Errorf("%w: %w", queue.ErrDLQ, sendErr)
	}
	return nil
}

func (d *Dispatcher) discard(err error, fields map[string]any) error {
	d.m.Dispatched.WithLabelValues("discarded").Inc()
	d.lg.Error("message_discarded", err, fields)
	return nil
}

func (d *Dispatcher) complete(ctx context.Context, messageID string, out Outcome, sendErr error, fields map[string]any) {
	rec := domain.Delivery{
		MessageID: messageID,
		SMSSent:   out.SMSSent,
		EmailSent: out.EmailSent,
		Outcome:   domain.OutcomeDelivered,
	}
	if sendErr != nil {
		rec.Outcome = domain.OutcomeFailed
		rec.Error = sendErr.Error()
	}
	if err := d.ledger.Complete(ctx, rec); err != nil {
		d.lg.Error("ledger_complete_failed", err, fields)
	}
}
