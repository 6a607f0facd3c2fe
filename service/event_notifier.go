// file: service/event_notifier.go

package service

import (
	"context"
	"encoding/json"
	"go-bank-withdrawal/logger"
	"go-bank-withdrawal/messaging"
	"go-bank-withdrawal/model"
	"time"

	"github.com/sirupsen/logrus"
)

// PublishResult is the terminal state of one notification.
type PublishResult string

const (
	Delivered PublishResult = "delivered"
	Exhausted PublishResult = "exhausted"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 2 * time.Second
)

type NotifierConfig struct {
	Topic          string
	MaxAttempts    int
	InitialBackoff time.Duration
}

// EventNotifier delivers withdrawal events in-line with bounded retries.
// After MaxAttempts failures the event is logged and dropped.
type EventNotifier struct {
	channel        messaging.Channel
	topic          string
	maxAttempts    int
	initialBackoff time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewEventNotifier(channel messaging.Channel, cfg NotifierConfig) *EventNotifier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	return &EventNotifier{
		channel:        channel,
		topic:          cfg.Topic,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		sleep:          sleepContext,
	}
}

// Publish sends event, doubling the wait after every failed attempt. A send
// only counts as delivered once the channel has been flushed.
func (n *EventNotifier) Publish(ctx context.Context, event model.WithdrawalEvent) PublishResult {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": event.AccountID,
		"amount":     event.Amount.StringFixed(2),
		"topic":      n.topic,
	})

	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to serialize withdrawal event")
		return Exhausted
	}

	backoff := n.initialBackoff
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		err := n.deliver(ctx, payload)
		if err == nil {
			log.WithField("attempt", attempt).Info("Withdrawal event published")
			return Delivered
		}

		if attempt == n.maxAttempts {
			log.WithError(err).WithField("attempts", attempt).Error("Withdrawal event publishing failed after retries, dropping event")
			break
		}

		log.WithError(err).WithFields(logrus.Fields{
			"attempt":  attempt,
			"retry_in": backoff.String(),
		}).Warn("Withdrawal event publish failed, retrying")

		if err := n.sleep(ctx, backoff); err != nil {
			log.WithError(err).WithField("attempts", attempt).Error("Withdrawal event publishing abandoned, dropping event")
			break
		}
		backoff *= 2
	}
	return Exhausted
}

func (n *EventNotifier) deliver(ctx context.Context, payload []byte) error {
	if err := n.channel.Send(ctx, n.topic, payload); err != nil {
		return err
	}
	return n.channel.Flush(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
