package services

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"menu-service/models"
	aws_pkg "menu-service/pkg/aws"
)

const CheckoutEventType = "cart.checkout"

// CheckoutPublisher announces a completed checkout to downstream consumers.
type CheckoutPublisher interface {
	PublishCheckout(ctx context.Context, event models.CheckoutEvent) error
}

// EventProducer is satisfied by *kafka.Producer.
type EventProducer interface {
	SendCheckoutEvent(ctx context.Context, event models.CheckoutEvent) error
}

type kafkaCheckoutPublisher struct {
	producer EventProducer
}

func NewKafkaCheckoutPublisher(producer EventProducer) CheckoutPublisher {
	return &kafkaCheckoutPublisher{producer: producer}
}

func (k *kafkaCheckoutPublisher) PublishCheckout(ctx context.Context, event models.CheckoutEvent) error {
	return k.producer.SendCheckoutEvent(ctx, event)
}

type snsCheckoutPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

// NewSNSCheckoutPublisher publishes checkout events as JSON to topicArn, with
// the event type and restaurant id as message attributes.
func NewSNSCheckoutPublisher(client aws_pkg.SNSPublisher, topicArn string) CheckoutPublisher {
	return &snsCheckoutPublisher{client: client, topicArn: topicArn}
}

func (s *snsCheckoutPublisher) PublishCheckout(ctx context.Context, event models.CheckoutEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.topicArn, body, map[string]string{
		"event_type":    event.Event,
		"restaurant_id": event.RestaurantID,
	})
}

// MultiPublisher fans an event out to every publisher and joins their errors.
type MultiPublisher []CheckoutPublisher

func (m MultiPublisher) PublishCheckout(ctx context.Context, event models.CheckoutEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishCheckout(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
