package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

var ErrPublishNacked = errors.New("broker rejected the message")

// RabbitMQChannel publishes to a durable topic exchange using the topic as the
// routing key. The AMQP channel runs in confirm mode and Send returns only once
// the broker has confirmed the message.
type RabbitMQChannel struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

func NewRabbitMQChannel(amqpURL, exchange string) (*RabbitMQChannel, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	c := &RabbitMQChannel{conn: conn, exchange: exchange}
	if err := c.openChannel(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// openChannel must be called with mu held or before c is shared.
func (c *RabbitMQChannel) openChannel() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return err
	}
	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return err
	}
	c.channel = ch
	return nil
}

func (c *RabbitMQChannel) Send(ctx context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil || c.channel.IsClosed() {
		if err := c.openChannel(); err != nil {
			return fmt.Errorf("reopen channel: %w", err)
		}
	}

	confirm, err := c.channel.PublishWithDeferredConfirmWithContext(ctx,
		c.exchange,
		topic,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         payload,
		},
	)
	if err != nil {
		return err
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return ErrPublishNacked
	}
	return nil
}

// Flush is a no-op: Send already waited for the publisher confirm.
func (c *RabbitMQChannel) Flush(ctx context.Context) error {
	return ctx.Err()
}

func (c *RabbitMQChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	return c.conn.Close()
}
