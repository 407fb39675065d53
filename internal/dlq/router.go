// Package dlq routes unprocessable messages to a secondary durable queue so
// the primary queue keeps moving.
package dlq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher is the slice of the broker client the router needs.
type Publisher interface {
	Publish(ctx context.Context, key string, body []byte, headers amqp.Table) error
}

type Router struct {
	pub    Publisher
	queue  string
	logger *zap.Logger
}

func NewRouter(pub Publisher, queue string, logger *zap.Logger) *Router {
	return &Router{pub: pub, queue: queue, logger: logger}
}

// Send publishes the failing payload to the dead-letter queue. When the body
// is a JSON object and a correlation id is known, the id is folded in under
// "_dlq" for offline tracing. A publish failure is logged and swallowed: the
// caller nacks the original message regardless of DLQ outcome, so a degraded
// DLQ path never stalls the primary queue.
func (r *Router) Send(ctx context.Context, body []byte, correlationID string) {
	payload := body
	if correlationID != "" {
		payload = augment(body, correlationID)
	}

	if err := r.pub.Publish(ctx, r.queue, payload, amqp.Table{"x-dead-lettered": true}); err != nil {
		r.logger.Error("dlq_publish_failed", zap.Error(err), zap.String("correlation_id", correlationID))
		return
	}
	r.logger.Info("message_dead_lettered",
		zap.String("queue", r.queue),
		zap.String("correlation_id", correlationID),
		zap.Int("bytes", len(payload)))
}

// augment returns body with _dlq.correlationId added, or body unchanged when
// it is not a JSON object.
func augment(body []byte, correlationID string) []byte {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return body
	}
	meta, _ := obj["_dlq"].(map[string]any)
	if meta == nil {
		meta = make(map[string]any)
	}
	meta["correlationId"] = correlationID
	obj["_dlq"] = meta

	out, err := json.Marshal(obj)
	if err != nil {
		return body
	}
	return out
}
