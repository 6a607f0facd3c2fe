package messaging

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStreamChannel appends events to a Redis stream named after the topic.
type RedisStreamChannel struct {
	client *redis.Client
}

func NewRedisStreamChannel(client *redis.Client) *RedisStreamChannel {
	return &RedisStreamChannel{client: client}
}

func (c *RedisStreamChannel) Send(ctx context.Context, topic string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{
			"event": payload,
		},
	}
	if err := c.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append event to stream %s: %w", topic, err)
	}
	return nil
}

// Flush is a no-op: XADD replies only after the entry is stored.
func (c *RedisStreamChannel) Flush(ctx context.Context) error {
	return ctx.Err()
}

func (c *RedisStreamChannel) Close() error {
	return c.client.Close()
}
