package messaging

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaChannel writes each event synchronously and waits for all in-sync
// replicas to acknowledge it.
type KafkaChannel struct {
	writer *kafka.Writer
}

func NewKafkaChannel(brokers []string, clientID string) *KafkaChannel {
	return &KafkaChannel{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchSize:              1,
			BatchTimeout:           10 * time.Millisecond,
			MaxAttempts:            1,
			AllowAutoTopicCreation: true,
			Transport:              &kafka.Transport{ClientID: clientID},
		},
	}
}

func (c *KafkaChannel) Send(ctx context.Context, topic string, payload []byte) error {
	return c.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Value: payload,
		Time:  time.Now(),
	})
}

// Flush is a no-op: WriteMessages on a synchronous writer returns only after
// the batch has been acknowledged.
func (c *KafkaChannel) Flush(ctx context.Context) error {
	return ctx.Err()
}

func (c *KafkaChannel) Close() error {
	return c.writer.Close()
}
