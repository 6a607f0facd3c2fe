// file: messaging/channel.go

package messaging

import (
	"context"
	"fmt"
	"go-bank-withdrawal/config"
	"go-bank-withdrawal/db"
	"go-bank-withdrawal/logger"
)

// Channel is an outbound event transport. Send hands one payload to the
// broker; Flush returns once nothing sent through the channel is still buffered
// locally. Implementations are safe for concurrent use.
type Channel interface {
	Send(ctx context.Context, topic string, payload []byte) error
	Flush(ctx context.Context) error
	Close() error
}

const (
	KindKafka    = "kafka"
	KindRedis    = "redis"
	KindRabbitMQ = "rabbitmq"
)

// Connect builds the channel selected by events.channel in config.AppConfig.
func Connect() (Channel, error) {
	kind := config.AppConfig.Events.Channel
	log := logger.Log.WithField("channel", kind)

	switch kind {
	case KindKafka:
		cfg := config.AppConfig.Kafka
		log.WithField("brokers", cfg.Brokers).Info("Using Kafka event channel")
		return NewKafkaChannel(cfg.Brokers, cfg.ClientID), nil
	case KindRedis:
		client, err := db.ConnectRedis()
		if err != nil {
			return nil, err
		}
		log.Info("Using Redis stream event channel")
		return NewRedisStreamChannel(client), nil
	case KindRabbitMQ:
		cfg := config.AppConfig.RabbitMQ
		ch, err := NewRabbitMQChannel(cfg.URL, cfg.Exchange)
		if err != nil {
			log.WithError(err).Error("Failed to connect to RabbitMQ")
			return nil, err
		}
		log.WithField("exchange", cfg.Exchange).Info("Using RabbitMQ event channel")
		return ch, nil
	default:
		return nil, fmt.Errorf("unknown event channel %q", kind)
	}
}
