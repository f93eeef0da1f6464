package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gala-ticketing/internal/config"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order lifecycle events keyed by order id.
type Producer struct {
	writer messageWriter
	topics config.TopicConfig
	log    *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}
	return &Producer{writer: writer, topics: topics, log: log}
}

func (p *Producer) PublishOrderCreated(ctx context.Context, order models.Order) error {
	return p.publish(ctx, p.topics.OrderCreated, newOrderEvent(EventOrderCreated, order))
}

func (p *Producer) PublishOrderPaid(ctx context.Context, order models.Order, attendees, raffleEntries int) error {
	event := newOrderEvent(EventOrderPaid, order)
	event.AttendeesCreated = attendees
	event.RaffleEntriesCreated = raffleEntries
	return p.publish(ctx, p.topics.OrderPaid, event)
}

func (p *Producer) PublishOrderCancelled(ctx context.Context, order models.Order) error {
	return p.publish(ctx, p.topics.OrderCancelled, newOrderEvent(EventOrderCancelled, order))
}

func (p *Producer) PublishOrderRefunded(ctx context.Context, order models.Order) error {
	return p.publish(ctx, p.topics.OrderRefunded, newOrderEvent(EventOrderRefunded, order))
}

func (p *Producer) publish(ctx context.Context, topic string, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.OrderID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, topic, err)
	}

	p.log.LogKafka("PUBLISH", topic, fmt.Sprintf("%s for order %s", event.Type, event.OrderID))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Noop drops events when Kafka is disabled.
type Noop struct{}

func (Noop) PublishOrderCreated(context.Context, models.Order) error { return nil }
func (Noop) PublishOrderPaid(context.Context, models.Order, int, int) error { return nil }
func (Noop) PublishOrderCancelled(context.Context, models.Order) error { return nil }
func (Noop) PublishOrderRefunded(context.Context, models.Order) error { return nil }
func (Noop) Close() error { return nil }
