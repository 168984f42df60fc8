// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/taibuivan/contactbook/internal/platform/metrics"
)

// Deliverer hands a message to its final transport.
type Deliverer interface {
	Deliver(ctx context.Context, message Message) error
}

// prefetch bounds unacknowledged deliveries per worker.
const prefetch = 10

// Consumer drains the mail queue and delivers every job.
type Consumer struct {
	url       string
	queue     string
	deliverer Deliverer
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewConsumer creates a consumer for the given broker URL and queue.
func NewConsumer(url, queue string, deliverer Deliverer, logger *slog.Logger, collectors *metrics.Metrics) *Consumer {
	return &Consumer{
		url:       url,
		queue:     queue,
		deliverer: deliverer,
		logger:    logger,
		metrics:   collectors,
	}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff
// whenever the broker connection is lost.
func (consumer *Consumer) Run(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0

	operation := func() error {
		err := consumer.consumeOnce(ctx)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		consumer.logger.Warn("mail_consumer_reconnecting",
			slog.Any("error", err),
			slog.Duration("retry_in", wait),
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// consumeOnce serves one broker connection until it drops or ctx ends.
func (consumer *Consumer) consumeOnce(ctx context.Context) error {
	conn, err := amqp.Dial(consumer.url)
	if err != nil {
		return fmt.Errorf("mail: dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("mail: open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("mail: set qos: %w", err)
	}

	if _, err := ch.QueueDeclare(consumer.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("mail: declare queue %s: %w", consumer.queue, err)
	}

	deliveries, err := ch.Consume(consumer.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("mail: consume %s: %w", consumer.queue, err)
	}

	consumer.logger.Info("mail_consumer_started", slog.String("queue", consumer.queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("mail: deliveries channel closed")
			}
			consumer.settle(delivery, consumer.Handle(ctx, delivery.Body))
		}
	}
}

// acknowledger is the part of amqp.Delivery used to settle a job.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (consumer *Consumer) settle(delivery acknowledger, err error) {
	if err == nil {
		_ = delivery.Ack(false)
		return
	}

	consumer.logger.Error("mail_delivery_failed", slog.Any("error", err))
	// Reject without requeue to avoid tight redelivery loops.
	_ = delivery.Nack(false, false)
}

// Handle decodes and delivers one job body.
func (consumer *Consumer) Handle(ctx context.Context, body []byte) (err error) {
	var message Message
	defer func() { consumer.metrics.MailJob("delivered", string(message.Kind), err) }()

	if err := json.Unmarshal(body, &message); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := message.Validate(); err != nil {
		return err
	}

	if err := consumer.deliverer.Deliver(ctx, message); err != nil {
		return err
	}

	consumer.logger.Info("mail_delivered",
		slog.String("kind", string(message.Kind)),
		slog.String("to", message.To),
	)
	return nil
}
