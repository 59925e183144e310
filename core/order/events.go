package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventCompleted = "order.completed"
	EventExpired   = "order.expired"
)

type Event struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	CartKey    string    `json:"cartKey"`
	Provider   Provider  `json:"provider"`
	ProviderID string    `json:"providerId"`
	Total      int       `json:"total"`
	At         time.Time `json:"at"`
}

func NewEvent(typ string, ord Order) Event {
	return Event{
		Type:       typ,
		OrderID:    ord.ID,
		CartKey:    ord.CartKey,
		Provider:   ord.Provider,
		ProviderID: ord.ProviderID,
		Total:      ord.Total,
		At:         time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// KafkaPublisher writes order events keyed by order id, so every event of an
// order lands on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing %s event of order[%s]: %w", ev.Type, ev.OrderID, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
