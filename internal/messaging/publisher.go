// Package messaging connects the board to the Kafka event bus.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"herald/internal/observability"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher ships domain events to Kafka, one topic per destination.
// Delivery is not confirmed to callers; the board treats the bus as fire
// and forget.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher over the given brokers.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish marshals the payload as JSON and writes it to the destination topic.
func (p *KafkaPublisher) Publish(ctx context.Context, destination string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: destination,
		Value: b,
	}); err != nil {
		return fmt.Errorf("write event to %s: %w", destination, err)
	}

	observability.EventsPublished.WithLabelValues(destination).Inc()
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
