package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/connections/rabbitmq"
	"drone-delivery/internal/domain"
)

// Publisher кладёт NotificationRequest в очередь. Соединение поднимается лениво
// и пересоздаётся после любой ошибки публикации.
type Publisher struct {
	s      Settings
	source string

	sem    chan struct{} // мьютекс, который можно ждать с ctx
	client *rabbitmq.Client
	lg     *logger.Logger
}

func NewPublisher(s Settings, source string) *Publisher {
	return &Publisher{s: s, source: source, sem: make(chan struct{}, 1), lg: logger.New(source)}
}

func (p *Publisher) PublishNotification(ctx context.Context, req domain.NotificationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	msg, err := newPublishing(req, p.source)
	if err != nil {
		return err
	}

	client, err := p.ensure(ctx)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	if err := client.Publish(ctx, "", p.s.Topology.Queue, msg); err != nil {
		p.reset(client)
		return fmt.Errorf("publish notification for order %d: %w", req.OrderID, err)
	}

	p.lg.Debug("notification_enqueued", map[string]any{"order_id": req.OrderID, "message_id": msg.MessageId})
	return nil
}

func (p *Publisher) Close() {
	p.sem <- struct{}{}
	defer func() { <-p.sem }()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

// ensure не ждёт дольше дедлайна ctx: ни очереди за соседним dial, ни самого dial.
func (p *Publisher) ensure(ctx context.Context) (*rabbitmq.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()

	if p.client != nil && p.client.Ping() == nil {
		return p.client, nil
	}
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}

	client, err := rabbitmq.Dial(ctx, p.s.RabbitMQ, true)
	if err != nil {
		return nil, err
	}
	if err := p.s.Topology.Declare(client.Channel()); err != nil {
		client.Close()
		return nil, fmt.Errorf("declare topology: %w", err)
	}
	p.client = client
	p.lg.Info("broker_connected", map[string]any{"queue": p.s.Topology.Queue})
	return client, nil
}

func (p *Publisher) reset(failed *rabbitmq.Client) {
	p.sem <- struct{}{}
	defer func() { <-p.sem }()
	if p.client == failed {
		p.client.Close()
		p.client = nil
	}
}

func newPublishing(req domain.NotificationRequest, source string) (amqp.Publishing, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		MessageId:     uuid.NewString(),
		CorrelationId: strconv.Itoa(req.OrderID),
		Timestamp:     time.Now().UTC(),
		Headers:       amqp.Table{"x-source": source},
		Body:          body,
	}, nil
}
