package worker

import (
	"context"
	"fmt"
	"testing"

	"kitchen-service/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConsumer struct {
	deliveries chan amqp.Delivery
	backlog    int
	inspectErr error
}

func (f *fakeConsumer) Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeConsumer) QueueInspect(queue string) (int, error) {
	return f.backlog, f.inspectErr
}

type fakeStore struct {
	created []domain.KitchenOrder
	failErr error
}

func (f *fakeStore) Create(ctx context.Context, order domain.KitchenOrder) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.created = append(f.created, order)
	return nil
}

func (f *fakeStore) GetAll(ctx context.Context) ([]domain.KitchenOrder, error) { return nil, nil }
func (f *fakeStore) GetByID(ctx context.Context, id string) (domain.KitchenOrder, error) {
	return domain.KitchenOrder{}, domain.ErrNotFound
}
func (f *fakeStore) UpdateStatus(ctx context.Context, id string, status domain.Status) (bool, error) {
	return false, nil
}
func (f *fakeStore) Replace(ctx context.Context, order domain.OrderMessage) (bool, error) {
	return false, nil
}
func (f *fakeStore) Remove(ctx context.Context, id string) (bool, error) { return false, nil }

type fakeHub struct {
	events []domain.Event
}

func (f *fakeHub) Broadcast(event domain.Event) { f.events = append(f.events, event) }

type fakeDLQ struct {
	bodies  [][]byte
	corrIDs []string
}

func (f *fakeDLQ) Send(ctx context.Context, body []byte, correlationID string) {
	f.bodies = append(f.bodies, body)
	f.corrIDs = append(f.corrIDs, correlationID)
}

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAck) Ack(tag uint64, multiple bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}
func (f *fakeAck) Reject(tag uint64, requeue bool) error { f.nacked = true; f.requeue = requeue; return nil }

func newTestWorker(mq *fakeConsumer, st *fakeStore, h *fakeHub, d *fakeDLQ) *Worker {
	return New(mq, st, h, d, "orders.new", 1, zap.NewNop())
}

const validBody = `{"id":"o1","customerName":"Ana","table":"T3","items":[{"productName":"Burger","quantity":2,"unitPrice":10000}],"createdAt":"2024-01-01T00:00:00Z"}`

func delivery(body string, ack *fakeAck) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(body)}
}

func TestHandleValidMessage(t *testing.T) {
	mq := &fakeConsumer{backlog: 2}
	st := &fakeStore{}
	h := &fakeHub{}
	d := &fakeDLQ{}
	ack := &fakeAck{}

	newTestWorker(mq, st, h, d).Handle(context.Background(), delivery(validBody, ack))

	require.Len(t, st.created, 1)
	assert.Equal(t, "o1", st.created[0].ID)
	assert.Equal(t, domain.StatusPending, st.created[0].Status)

	require.Len(t, h.events, 1)
	assert.Equal(t, domain.EventOrderNew, h.events[0].Type)
	require.NotNil(t, h.events[0].Order)
	assert.Equal(t, domain.StatusPending, h.events[0].Order.Status)

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Empty(t, d.bodies)
}

func TestHandleBroadcastsQueueEmptyOnDrain(t *testing.T) {
	mq := &fakeConsumer{backlog: 0}
	st := &fakeStore{}
	h := &fakeHub{}
	ack := &fakeAck{}

	newTestWorker(mq, st, h, &fakeDLQ{}).Handle(context.Background(), delivery(validBody, ack))

	require.Len(t, h.events, 2)
	assert.Equal(t, domain.EventOrderNew, h.events[0].Type)
	assert.Equal(t, domain.EventQueueEmpty, h.events[1].Type)
	assert.NotEmpty(t, h.events[1].Message)
}

func TestHandlePoisonMessages(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		store *fakeStore
	}{
		{name: "unparsable_body", body: "not json at all", store: &fakeStore{}},
		{name: "empty_items", body: `{"id":"o1","customerName":"Ana","table":"T3","items":[],"createdAt":"x"}`, store: &fakeStore{}},
		{name: "oversized_field", body: `{"id":"o1","customerName":"` + longName() + `","table":"T3","items":[{"productName":"Burger","quantity":1,"unitPrice":1}],"createdAt":"x"}`, store: &fakeStore{}},
		{name: "duplicate_id", body: validBody, store: &fakeStore{failErr: fmt.Errorf("%w: o1", domain.ErrDuplicateID)}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			mq := &fakeConsumer{backlog: 1}
			h := &fakeHub{}
			d := &fakeDLQ{}
			ack := &fakeAck{}

			newTestWorker(mq, testCase.store, h, d).Handle(context.Background(), delivery(testCase.body, ack))

			assert.Empty(t, testCase.store.created)
			assert.Empty(t, h.events)
			require.Len(t, d.bodies, 1)
			assert.Equal(t, testCase.body, string(d.bodies[0]))
			assert.True(t, ack.nacked)
			assert.False(t, ack.requeue, "poison messages must not be requeued")
			assert.False(t, ack.acked)
		})
	}
}

func longName() string {
	name := make([]byte, 101)
	for i := range name {
		name[i] = 'a'
	}
	return string(name)
}

func TestHandlePassesCorrelationIDToDLQ(t *testing.T) {
	tests := []struct {
		name     string
		delivery amqp.Delivery
		want     string
	}{
		{
			name:     "from_properties",
			delivery: amqp.Delivery{Acknowledger: &fakeAck{}, Body: []byte("bad"), CorrelationId: "corr-1"},
			want:     "corr-1",
		},
		{
			name:     "from_header",
			delivery: amqp.Delivery{Acknowledger: &fakeAck{}, Body: []byte("bad"), Headers: amqp.Table{"x-correlation-id": "corr-2"}},
			want:     "corr-2",
		},
		{
			name:     "absent",
			delivery: amqp.Delivery{Acknowledger: &fakeAck{}, Body: []byte("bad")},
			want:     "",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			d := &fakeDLQ{}
			newTestWorker(&fakeConsumer{}, &fakeStore{}, &fakeHub{}, d).Handle(context.Background(), testCase.delivery)
			require.Len(t, d.corrIDs, 1)
			assert.Equal(t, testCase.want, d.corrIDs[0])
		})
	}
}

func TestRunStopsWhenDeliveryChannelCloses(t *testing.T) {
	deliveries := make(chan amqp.Delivery)
	mq := &fakeConsumer{deliveries: deliveries, backlog: 1}
	st := &fakeStore{}

	done := make(chan error, 1)
	go func() {
		done <- newTestWorker(mq, st, &fakeHub{}, &fakeDLQ{}).Run(context.Background())
	}()

	deliveries <- delivery(validBody, &fakeAck{})
	close(deliveries)

	require.NoError(t, <-done)
	assert.Len(t, st.created, 1)
}
