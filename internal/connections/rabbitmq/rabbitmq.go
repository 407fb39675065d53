package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kitchen-service/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client wraps one AMQP connection with two channels: one for consuming and
// queue inspection, one in confirm mode for publishing.
type Client struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	pubCh *amqp.Channel

	acks <-chan amqp.Confirmation
	mu   sync.Mutex // serializes Publish while waiting for confirms
}

func Dial(cfg config.RabbitMQConfig) (*Client, error) {
	vhost := cfg.VHost
	if vhost == "" {
		vhost = "/"
	}
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/%s", cfg.User, cfg.Password, cfg.Host, cfg.Port, vhost)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	pubCh, err := conn.Channel()
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if err := pubCh.Confirm(false); err != nil {
		_ = pubCh.Close()
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	acks := pubCh.NotifyPublish(make(chan amqp.Confirmation, 1))

	return &Client{conn: conn, ch: ch, pubCh: pubCh, acks: acks}, nil
}

func (c *Client) Close() {
	if c.pubCh != nil {
		_ = c.pubCh.Close()
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Client) Ping() error {
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// DeclareTopology declares the primary queue and the dead-letter queue.
// Both are durable; declaration is idempotent.
func (c *Client) DeclareTopology(queue, dlq string) error {
	if _, err := c.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", queue, err)
	}
	if _, err := c.ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", dlq, err)
	}
	return nil
}

// Consume registers a manual-ack consumer with the given prefetch.
func (c *Client) Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.ch.Consume(queue, consumer, false, false, false, false, nil)
}

// QueueInspect returns the current message count of a queue.
func (c *Client) QueueInspect(queue string) (int, error) {
	q, err := c.ch.QueueInspect(queue)
	if err != nil {
		return 0, err
	}
	return q.Messages, nil
}

// drainStale discards confirmations left behind by a Publish that returned
// on context cancellation before its confirm arrived. Without this the next
// Publish would read the previous message's confirm as its own.
func drainStale(acks <-chan amqp.Confirmation) {
	for {
		select {
		case <-acks:
		default:
			return
		}
	}
}

// Publish sends a persistent message to the default exchange and waits for
// the broker confirm. Calls are serialized so confirms match publishes.
func (c *Client) Publish(ctx context.Context, key string, body []byte, headers amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	drainStale(c.acks)

	if err := c.pubCh.PublishWithContext(
		ctx,
		"", // default exchange: routing key is the queue name
		key,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    time.Now().UTC(),
			Headers:      headers,
			Body:         body,
		},
	); err != nil {
		return err
	}

	select {
	case conf := <-c.acks:
		if conf.Ack {
			return nil
		}
		return errors.New("publish NACK from broker")
	case <-ctx.Done():
		return ctx.Err()
	}
}
