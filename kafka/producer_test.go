package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"menu-service/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestSendCheckoutEvent_KeyedBySession(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "cart.checkout"}

	event := models.CheckoutEvent{
		Event:        "cart.checkout",
		SessionID:    "sess-12345678",
		RestaurantID: "r1",
		Items:        []models.CartItem{{ID: "Tea", Name: "Tea", Price: 500, Quantity: 2}},
		Total:        1000,
		ItemCount:    2,
		Timestamp:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.SendCheckoutEvent(context.Background(), event))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "sess-12345678", string(w.msgs[0].Key))

	var decoded models.CheckoutEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, event.Total, decoded.Total)
	assert.Equal(t, "r1", decoded.RestaurantID)

	p.Close()
	assert.True(t, w.closed)
}

func TestSendCheckoutEvent_WriteError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("broker down")}, topic: "cart.checkout"}

	err := p.SendCheckoutEvent(context.Background(), models.CheckoutEvent{SessionID: "s"})
	assert.EqualError(t, err, "broker down")
}

func TestNewProducer(t *testing.T) {
	p, err := NewProducer([]string{"localhost:9092"}, "cart.checkout")
	require.NoError(t, err)
	assert.Equal(t, "cart.checkout", p.Topic())
}
