package queue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/common/metrics"
	"drone-delivery/internal/connections/rabbitmq"
)

var (
	ErrRequeue = errors.New("requeue")     // nack(requeue=true)
	ErrDLQ     = errors.New("dead_letter") // nack(requeue=false)
)

// сессия дольше этого считается здоровой, backoff начинается заново
const stableSession = time.Minute

// Handler обрабатывает одно сообщение. nil -> ack, ErrRequeue / ErrDLQ -> nack.
type Handler interface {
	HandleDelivery(ctx context.Context, d amqp.Delivery) error
}

// session: одна живая подписка на очередь.
type session interface {
	Deliveries() <-chan amqp.Delivery
	Closed() <-chan *amqp.Error
	Cancel()
	Close()
}

type Consumer struct {
	s   Settings
	h   Handler
	m   *metrics.Metrics
	tag string

	connect func(ctx context.Context) (session, error)
	sleep   func(ctx context.Context, d time.Duration) bool
	now     func() time.Time

	ready atomic.Bool
	lg    *logger.Logger
}

func NewConsumer(s Settings, h Handler, m *metrics.Metrics, tag string) *Consumer {
	c := &Consumer{s: s, h: h, m: m, tag: tag, sleep: sleepCtx, now: time.Now, lg: logger.New("notification")}
	c.connect = c.dial
	return c
}

// Ready: true, пока consumer держит канал к брокеру.
func (c *Consumer) Ready() bool { return c.ready.Load() }

// Run переподключается к брокеру до отмены ctx.
func (c *Consumer) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.s.ReconnectMin
	b.MaxInterval = c.s.ReconnectMax
	b.MaxElapsedTime = 0
	b.Reset()

	for {
		started := c.now()
		err := c.consume(ctx)
		c.setReady(false)
		if ctx.Err() != nil {
			c.lg.Info("consumer_stopped", nil)
			return nil
		}

		if c.now().Sub(started) >= stableSession {
			b.Reset()
		}
		wait := b.NextBackOff()
		c.lg.Error("consumer_disconnected", err, map[string]any{"retry_in": wait.String()})

		if !c.sleep(ctx, wait) {
			c.lg.Info("consumer_stopped", nil)
			return nil
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	sess, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	c.setReady(true)
	c.lg.Info("consumer_started", map[string]any{
		"queue":       c.s.Topology.Queue,
		"prefetch":    c.s.Prefetch,
		"dead_letter": c.s.Topology.DeadLetter,
	})

	closed, msgs := sess.Closed(), sess.Deliveries()
	for {
		select {
		case <-ctx.Done():
			sess.Cancel()
			return ctx.Err()
		case e := <-closed:
			if e == nil {
				return errors.New("connection closed")
			}
			return fmt.Errorf("connection closed: %d %s", e.Code, e.Reason)
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			// начатое сообщение доводим до конца даже при остановке
			settle(d, c.h.HandleDelivery(context.WithoutCancel(ctx), d), c.lg)
		}
	}
}

// dial: настоящая сессия поверх amqp091.
func (c *Consumer) dial(ctx context.Context) (session, error) {
	client, err := rabbitmq.Dial(ctx, c.s.RabbitMQ, false)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	ch := client.Channel()
	if err := c.s.Topology.Declare(ch); err != nil {
		client.Close()
		return nil, fmt.Errorf("declare topology: %w", err)
	}
	if err := ch.Qos(c.s.Prefetch, 0, false); err != nil {
		client.Close()
		return nil, fmt.Errorf("qos: %w", err)
	}
	msgs, err := ch.Consume(c.s.Topology.Queue, c.tag, false, false, false, false, nil)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("consume %s: %w", c.s.Topology.Queue, err)
	}
	return &amqpSession{client: client, tag: c.tag, msgs: msgs, closed: client.NotifyClose()}, nil
}

type amqpSession struct {
	client *rabbitmq.Client
	tag    string
	msgs   <-chan amqp.Delivery
	closed <-chan *amqp.Error
}

func (s *amqpSession) Deliveries() <-chan amqp.Delivery { return s.msgs }
func (s *amqpSession) Closed() <-chan *amqp.Error { return s.closed }
func (s *amqpSession) Cancel() { _ = s.client.Channel().Cancel(s.tag, false) }
func (s *amqpSession) Close() { s.client.Close() }

// sleepCtx: false, если ctx отменили раньше, чем прошло d.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func settle(d amqp.Delivery, err error, lg *logger.Logger) {
	var ackErr error
	switch {
	case err == nil:
		ackErr = d.Ack(false)
	case errors.Is(err, ErrRequeue):
		ackErr = d.Nack(false, true)
	case errors.Is(err, ErrDLQ):
		ackErr = d.Nack(false, false)
	default:
		ackErr = d.Ack(false)
	}
	if ackErr != nil {
		lg.Error("settle_failed", ackErr, map[string]any{"delivery_tag": d.DeliveryTag})
	}
}

func (c *Consumer) setReady(v bool) {
	c.ready.Store(v)
	if c.m == nil {
		return
	}
	if v {
		c.m.BrokerConnected.Set(1)
	} else {
		c.m.BrokerConnected.Set(0)
	}
}
