package kafka

import (
	"context"
	"encoding/json"
	"time"

	"menu-service/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes checkout events keyed by session id, so every event of
// one session lands on the same partition.
type Producer struct {
	writer messageWriter
	topic  string
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}, nil
}

func (p *Producer) SendCheckoutEvent(ctx context.Context, event models.CheckoutEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Event)},
			{Key: "restaurant_id", Value: []byte(event.RestaurantID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		zap.L().Error("failed to send Kafka message", zap.String("topic", p.topic), zap.Error(err))
		return err
	}
	return nil
}

func (p *Producer) Topic() string { return p.topic }

func (p *Producer) Close() {
	_ = p.writer.Close()
}
