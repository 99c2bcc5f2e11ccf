// Package events publishes trigger lifecycle events to Kafka for external
// audit consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// DefaultTopic is the stream trigger lifecycle events are published to.
const DefaultTopic = "trigger.events"

// Publisher emits trigger lifecycle events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event *TriggerEvent) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaPublisher creates a Publisher writing to the given brokers. An
// empty topic falls back to DefaultTopic. Events are keyed by trigger ID so
// one trigger's history lands on one partition in order.
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{}, // route by key → deterministic partition
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		// Auto-create the topic if it doesn't exist
		AllowAutoTopicCreation: true,
	}
	return &kafkaPublisher{writer: w, topic: topic}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event *TriggerEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal trigger event: %w", err)
	}

	// Inject the active trace context into message headers so downstream
	// consumers can extract and continue the trace.
	headers := make(HeaderCarrier, 0)
	otel.GetTextMapPropagator().Inject(ctx, &headers)

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   p.topic,
		Key:     []byte(event.TriggerID),
		Value:   value,
		Headers: []kafka.Header(headers),
		Time:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("kafka publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events, for tests and single-process deployments
// without Kafka.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *TriggerEvent) error { return nil }
func (NopPublisher) Close() error                                 { return nil }
