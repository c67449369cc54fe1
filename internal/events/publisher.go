package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/acertax/connect/internal/models"
)

// Publisher streams persisted messages to kafka for downstream consumers
// (search indexing, compliance export). Best effort only: the message
// pipeline never blocks or fails on it.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{writer: w}
}

func (p *Publisher) PublishMessage(ctx context.Context, m *models.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.Room),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *Publisher) Close() error { return p.writer.Close() }
