package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Handler processes one message body.  A returned error rejects the
// message without requeueing it.
type Handler func(ctx context.Context, body []byte) error

// Consumer drains one durable queue per registered routing key.
type Consumer struct {
	url      string
	log      *logrus.Logger
	handlers map[string]Handler

	Prefetch   int
	MaxBackoff time.Duration
}

func NewConsumer(url string, log *logrus.Logger) *Consumer {
	return &Consumer{url: url, log: log, handlers: map[string]Handler{}, Prefetch: 50, MaxBackoff: 30 * time.Second}
}

// Handle registers h for routingKey.  Call before Run.
func (c *Consumer) Handle(routingKey string, h Handler) {
	c.handlers[routingKey] = h
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial
// failures are retried with exponential backoff and a dropped connection
// is re-established.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).WithField("retry_in", backoff).Warn("consumer: dial failed")
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < c.MaxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.log.WithError(err).Warn("consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.Prefetch, 0, false); err != nil {
		c.log.WithError(err).Warn("consumer: set QoS failed")
	}

	g, gctx := errgroup.WithContext(ctx)
	for key, h := range c.handlers {
		key, h := key, h
		if _, err := ch.QueueDeclare(key, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", key, err)
		}
		msgs, err := ch.Consume(key, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", key, err)
		}
		g.Go(func() error { return c.drain(gctx, key, h, msgs) })
	}
	c.log.WithField("queues", len(c.handlers)).Info("consumer: listening")
	return g.Wait()
}

func (c *Consumer) drain(ctx context.Context, key string, h Handler, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := h(ctx, d.Body); err != nil {
				c.log.WithError(err).WithField("queue", key).Error("consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
