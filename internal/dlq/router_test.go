package dlq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	key     string
	body    []byte
	calls   int
	failErr error
}

func (f *fakePublisher) Publish(ctx context.Context, key string, body []byte, headers amqp.Table) error {
	f.calls++
	f.key = key
	f.body = body
	return f.failErr
}

func TestSendAugmentsJSONBody(t *testing.T) {
	pub := &fakePublisher{}
	router := NewRouter(pub, "orders.failed", zap.NewNop())

	router.Send(context.Background(), []byte(`{"id":"o1","customerName":"Ana"}`), "corr-42")

	require.Equal(t, 1, pub.calls)
	assert.Equal(t, "orders.failed", pub.key)

	var got map[string]any
	require.NoError(t, json.Unmarshal(pub.body, &got))
	assert.Equal(t, "o1", got["id"])
	meta, ok := got["_dlq"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "corr-42", meta["correlationId"])
}

func TestSendKeepsRawBytesWhenNotJSON(t *testing.T) {
	pub := &fakePublisher{}
	router := NewRouter(pub, "orders.failed", zap.NewNop())

	raw := []byte("this is not json{")
	router.Send(context.Background(), raw, "corr-42")

	require.Equal(t, 1, pub.calls)
	assert.Equal(t, raw, pub.body)
}

func TestSendWithoutCorrelationIDLeavesBodyAlone(t *testing.T) {
	pub := &fakePublisher{}
	router := NewRouter(pub, "orders.failed", zap.NewNop())

	raw := []byte(`{"id":"o1"}`)
	router.Send(context.Background(), raw, "")

	require.Equal(t, 1, pub.calls)
	assert.Equal(t, raw, pub.body)
}

func TestSendSwallowsPublishFailure(t *testing.T) {
	pub := &fakePublisher{failErr: errors.New("broker down")}
	router := NewRouter(pub, "orders.failed", zap.NewNop())

	assert.NotPanics(t, func() {
		router.Send(context.Background(), []byte(`{}`), "corr-42")
	})
	assert.Equal(t, 1, pub.calls)
}
