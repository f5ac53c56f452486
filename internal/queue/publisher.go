package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher sends domain events to the broker.  Every routing key is also
// the name of a durable queue on the default exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// AMQPPublisher keeps one connection open and redials when the broker
// drops it.  A channel is opened per message because channels are not
// safe for concurrent use.
type AMQPPublisher struct {
	url string
	log *logrus.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	declared map[string]bool
}

func NewAMQPPublisher(url string, log *logrus.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log, declared: map[string]bool{}}
}

func (p *AMQPPublisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	p.conn = conn
	p.declared = map[string]bool{}
	return conn, nil
}

func (p *AMQPPublisher) declare(ch *amqp.Channel, queue string) error {
	p.mu.Lock()
	done := p.declared[queue]
	p.mu.Unlock()
	if done {
		return nil
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: queue declare %s: %w", queue, err)
	}
	p.mu.Lock()
	p.declared[queue] = true
	p.mu.Unlock()
	return nil
}

// Publish marshals payload as JSON and publishes it as a persistent
// message.  Errors are logged and returned; callers decide whether they
// matter.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	log := p.log.WithField("routing_key", routingKey)
	body, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("rabbitmq: marshal event failed")
		return err
	}
	conn, err := p.connection()
	if err != nil {
		log.WithError(err).Warn("rabbitmq: publish skipped")
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := p.declare(ch, routingKey); err != nil {
		log.WithError(err).Warn("rabbitmq: publish skipped")
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", routingKey, false, false, msg); err != nil {
		log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

// NopPublisher drops every event.  It stands in when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
