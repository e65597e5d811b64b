// Package events announces accepted rate snapshots to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

// RatesEvent describes a gold price and rate table pair that was just installed.
type RatesEvent struct {
	Generation    uint64                    `json:"generation"`
	Manual        bool                      `json:"manual"`
	GoldPrice     *models.GoldPriceQuote    `json:"goldPrice"`
	ExchangeRates *models.ExchangeRateTable `json:"exchangeRates"`
	InstalledAt   time.Time                 `json:"installedAt"`
}

// Publisher sends rate events.
type Publisher interface {
	PublishRates(ctx context.Context, event RatesEvent) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes RatesEvents to a single topic.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// PublishRates writes event as one JSON message keyed by the reference currency.
func (k *KafkaPublisher) PublishRates(ctx context.Context, event RatesEvent) error {
	msg, err := NewRatesMessage(event)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing rates event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// NewRatesMessage encodes event as a Kafka message. All events share one key
// so consumers see them in installation order.
func NewRatesMessage(event RatesEvent) (kafka.Message, error) {
	v, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encoding rates event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(models.ReferenceCurrency),
		Value: v,
		Time:  event.InstalledAt,
	}, nil
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) PublishRates(context.Context, RatesEvent) error { return nil }
func (NopPublisher) Close() error                                   { return nil }
