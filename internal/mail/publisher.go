// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/taibuivan/contactbook/internal/platform/metrics"
)

// channel is the slice of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialFunc opens a channel and returns it with a function closing the
// underlying connection.
type dialFunc func(url string) (channel, func() error, error)

func dialAMQP(url string) (channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return ch, conn.Close, nil
}

// Publisher enqueues messages on a durable RabbitMQ queue.
//
// The connection is opened lazily and re-opened after the broker drops it.
// Safe for concurrent use.
type Publisher struct {
	url     string
	queue   string
	dial    dialFunc
	metrics *metrics.Metrics

	mu        sync.Mutex
	ch        channel
	closeConn func() error
}

// NewPublisher creates a publisher for the given broker URL and queue name.
func NewPublisher(url, queue string, collectors *metrics.Metrics) *Publisher {
	return &Publisher{
		url:     url,
		queue:   queue,
		dial:    dialAMQP,
		metrics: collectors,
	}
}

// Send implements [Mailer]. Messages are persistent JSON on the default exchange.
func (publisher *Publisher) Send(ctx context.Context, message Message) (err error) {
	defer func() { publisher.metrics.MailJob("published", string(message.Kind), err) }()

	if err := message.Validate(); err != nil {
		return err
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("mail: marshal message: %w", err)
	}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	ch, err := publisher.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",              // default exchange
		publisher.queue, // routing key = queue name
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    message.CreatedAt,
			Type:         string(message.Kind),
			Body:         body,
		},
	)
	if err != nil {
		// Drop the channel so the next call reconnects.
		publisher.reset()
		return fmt.Errorf("mail: publish: %w", err)
	}

	return nil
}

// Close releases the broker connection.
func (publisher *Publisher) Close() error {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	return publisher.reset()
}

// channel returns an open channel, dialing when needed. Callers hold mu.
func (publisher *Publisher) channel() (channel, error) {
	if publisher.ch != nil && !publisher.ch.IsClosed() {
		return publisher.ch, nil
	}
	_ = publisher.reset()

	ch, closeConn, err := publisher.dial(publisher.url)
	if err != nil {
		return nil, fmt.Errorf("mail: dial broker: %w", err)
	}

	if _, err := ch.QueueDeclare(publisher.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = closeConn()
		return nil, fmt.Errorf("mail: declare queue %s: %w", publisher.queue, err)
	}

	publisher.ch = ch
	publisher.closeConn = closeConn
	return ch, nil
}

func (publisher *Publisher) reset() error {
	var errs []error
	if publisher.ch != nil {
		errs = append(errs, ignoreClosed(publisher.ch.Close()))
	}
	if publisher.closeConn != nil {
		errs = append(errs, ignoreClosed(publisher.closeConn()))
	}
	publisher.ch = nil
	publisher.closeConn = nil

	return errors.Join(errs...)
}

func ignoreClosed(err error) error {
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}
