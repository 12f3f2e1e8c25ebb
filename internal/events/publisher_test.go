package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"smartshop_back_end/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_KeyAndPayload(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	o := &models.Order{
		ID:            models.NewID(),
		UserID:        models.NewID(),
		OrderNumber:   "SS250301000001",
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		Total:         530000,
	}
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, p.Publish(context.Background(), NewOrderEvent(OrderCreated, o, now)))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "SS250301000001", string(w.msgs[0].Key))

	var got OrderEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, OrderCreated, got.EventType)
	assert.Equal(t, o.ID.String(), got.OrderID)
	assert.Equal(t, int64(530000), got.Total)
	assert.True(t, now.Equal(got.OccurredAt))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
