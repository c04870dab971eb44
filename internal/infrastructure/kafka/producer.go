package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/vitrina-app/media-service/internal/entity"
	"github.com/vitrina-app/media-service/pkg/kafka/producer"
)

// EventProducer ships asset lifecycle events from the outbox to the
// media topic. Consumers (reminder bot, storefront cache) key on the
// asset id and dispatch on the event_type header.
type EventProducer struct {
	*producer.Producer
	topic string
}

func NewEventProducer(producer *producer.Producer, topic string) *EventProducer {
	return &EventProducer{
		producer,
		topic,
	}
}

func (ep *EventProducer) SendEvents(ctx context.Context, events []*entity.OutboxEvent) error {
	msgsToSend := make([]kafka.Message, 0, len(events))

	for _, event := range events {
		msg := kafka.Message{
			Topic: ep.topic,
			Key:   []byte(event.AggregateID.String()),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(event.ID.String())},
				{Key: "event_type", Value: []byte(event.Type)},
			},
		}
		msgsToSend = append(msgsToSend, msg)
	}

	if len(msgsToSend) == 0 {
		return nil
	}

	err := ep.Writer.WriteMessages(ctx, msgsToSend...)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvents - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}
