package queue

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"drone-delivery/internal/config"
	"drone-delivery/internal/connections/rabbitmq"
)

type declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// Topology: очередь уведомлений и, опционально, её dead-letter обвязка.
type Topology struct {
	Queue      string
	DeadLetter bool
}

func (t Topology) DLX() string { return t.Queue + ".dlx" }
func (t Topology) DLQ() string { return t.Queue + ".dead" }

// Declare идемпотентен. Если очередь уже существует с другими аргументами,
// брокер закроет канал с PRECONDITION_FAILED.
func (t Topology) Declare(ch declarer) error {
	var args amqp.Table
	if t.DeadLetter {
		if err := ch.ExchangeDeclare(t.DLX(), amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			return err
		}
		if _, err := ch.QueueDeclare(t.DLQ(), true, false, false, false, nil); err != nil {
			return err
		}
		if err := ch.QueueBind(t.DLQ(), t.DLQ(), t.DLX(), false, nil); err != nil {
			return err
		}
		args = amqp.Table{
			"x-dead-letter-exchange":    t.DLX(),
			"x-dead-letter-routing-key": t.DLQ(),
		}
	}
	_, err := ch.QueueDeclare(t.Queue, true, false, false, false, args)
	return err
}

type Settings struct {
	RabbitMQ     rabbitmq.Config
	Topology     Topology
	Prefetch     int
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

func FromConfig(cfg config.Config) Settings {
	return Settings{
		RabbitMQ: rabbitmq.Config{
			Host:     cfg.RabbitMQ.Host,
			Port:     cfg.RabbitMQ.Port,
			User:     cfg.RabbitMQ.User,
			Password: cfg.RabbitMQ.Password,
			VHost:    cfg.RabbitMQ.VHost,
			UseTLS:   cfg.RabbitMQ.UseTLS,
		},
		Topology:     Topology{Queue: cfg.RabbitMQ.Queue, DeadLetter: cfg.Notification.DeadLetterOnFailure},
		Prefetch:     cfg.RabbitMQ.Prefetch,
		ReconnectMin: cfg.Notification.ReconnectMin,
		ReconnectMax: cfg.Notification.ReconnectMax,
	}
}
