package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes keyed messages to one topic. Messages with the same key
// land on the same partition, so per-key order is kept.
type Producer struct {
	w     messageWriter
	topic string
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		topic: topic,
	}
}

func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("queue: publish %s: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.w.Close()
}
