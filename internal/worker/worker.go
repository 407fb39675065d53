// Package worker consumes newly placed orders from the broker and turns them
// into status-tracked kitchen orders.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"kitchen-service/internal/domain"
	"kitchen-service/internal/sanitize"
	"kitchen-service/internal/store"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer is the slice of the broker client the worker needs.
type Consumer interface {
	Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error)
	QueueInspect(queue string) (int, error)
}

// Broadcaster delivers lifecycle events to connected displays.
type Broadcaster interface {
	Broadcast(event domain.Event)
}

// DeadLetterer isolates poison messages off the primary queue.
type DeadLetterer interface {
	Send(ctx context.Context, body []byte, correlationID string)
}

// Worker is the single sequential consumer of the new-order queue. With
// prefetch 1 the broker holds the next message until the current one is
// acknowledged or rejected, so processing order equals delivery order.
type Worker struct {
	mq       Consumer
	store    store.Orders
	hub      Broadcaster
	dlq      DeadLetterer
	queue    string
	prefetch int
	logger   *zap.Logger
}

func New(mq Consumer, orders store.Orders, hub Broadcaster, dlq DeadLetterer, queue string, prefetch int, logger *zap.Logger) *Worker {
	if prefetch <= 0 {
		prefetch = 1
	}
	return &Worker{mq: mq, store: orders, hub: hub, dlq: dlq, queue: queue, prefetch: prefetch, logger: logger}
}

// Run consumes until ctx is cancelled or the delivery channel closes. Every
// message resolves to exactly one terminal outcome: ack after persist and
// broadcast, or DLQ publish followed by nack without requeue.
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.mq.Consume(w.queue, "kitchen-worker", w.prefetch)
	if err != nil {
		return fmt.Errorf("consume %s: %w", w.queue, err)
	}
	w.logger.Info("worker_started", zap.String("queue", w.queue), zap.Int("prefetch", w.prefetch))

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.Handle(ctx, d)
		case <-ctx.Done():
			w.logger.Info("worker_stopped", zap.String("queue", w.queue))
			return nil
		}
	}
}

// Handle processes one delivery end to end. Errors never escape: every
// failure converges to a dead-letter publish plus nack.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	order, err := w.ingest(ctx, d.Body)
	if err != nil {
		w.logger.Error("order_rejected", zap.Error(err))
		w.dlq.Send(ctx, d.Body, correlationID(d))
		// No requeue: redelivering the same poison content would wedge
		// the queue.
		_ = d.Nack(false, false)
		return
	}

	w.hub.Broadcast(domain.NewOrderEvent(order))
	_ = d.Ack(false)
	w.logger.Info("order_ingested", zap.String("order_id", order.ID), zap.Int("items", len(order.Items)))

	if n, err := w.mq.QueueInspect(w.queue); err == nil && n == 0 {
		w.hub.Broadcast(domain.QueueEmptyEvent())
	}
}

func (w *Worker) ingest(ctx context.Context, body []byte) (domain.KitchenOrder, error) {
	var msg domain.OrderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return domain.KitchenOrder{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := sanitize.Order(&msg); err != nil {
		return domain.KitchenOrder{}, err
	}
	order := domain.NewKitchenOrder(msg)
	if err := w.store.Create(ctx, order); err != nil {
		return domain.KitchenOrder{}, err
	}
	return order, nil
}

// correlationID pulls the tracing token from the message properties or the
// x-correlation-id header, whichever the producer set.
func correlationID(d amqp.Delivery) string {
	if d.CorrelationId != "" {
		return d.CorrelationId
	}
	if v, ok := d.Headers["x-correlation-id"].(string); ok {
		return v
	}
	return ""
}
