// Package kafka publishes ledger events to a Kafka cluster.
package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.Hash{}, // partition by message key
		},
	}
}

// Publish writes the JSON-encoded event keyed by key, so all events for one
// account land on one partition in order.
func (p *Publisher) Publish(topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(
		context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: data,
		},
	)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
