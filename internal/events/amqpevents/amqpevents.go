// Package amqpevents forwards domain events to a RabbitMQ topic exchange.
package amqpevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mmynk/splitledger/internal/events"
)

const publishTimeout = 5 * time.Second

// Channel is the subset of *amqp.Channel the forwarder uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Forwarder publishes events as persistent JSON messages. The routing key is
// the event type with ':' replaced by '.', e.g. "expense.created", so
// consumers can bind with patterns such as "expense.*".
type Forwarder struct {
	conn     *amqp.Connection
	channel  Channel
	exchange string
	logger   *slog.Logger
}

// Dial connects to the broker at url and declares exchange.
func Dial(url, exchange string, logger *slog.Logger) (*Forwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	f, err := New(channel, exchange, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	f.conn = conn
	return f, nil
}

// New wraps an open channel and declares the exchange on it.
func New(channel Channel, exchange string, logger *slog.Logger) (*Forwarder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	err := channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Forwarder{
		channel:  channel,
		exchange: exchange,
		logger:   logger.With("component", "amqpevents", "exchange", exchange),
	}, nil
}

// RoutingKey maps an event type to its routing key.
func RoutingKey(t events.Type) string {
	return strings.ReplaceAll(string(t), ":", ".")
}

// Forward publishes a single event.
func (f *Forwarder) Forward(ctx context.Context, e events.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = f.channel.PublishWithContext(
		ctx,
		f.exchange,         // exchange
		RoutingKey(e.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID,
			Type:         string(e.Type),
			Timestamp:    e.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Run forwards events from in until ctx is cancelled or in is closed.
// Publish failures are logged and do not stop the loop.
func (f *Forwarder) Run(ctx context.Context, in <-chan events.Event) error {
	f.logger.InfoContext(ctx, "Started forwarding events")
	for {
		select {
		case <-ctx.Done():
			f.logger.InfoContext(ctx, "Stopping event forwarding", "reason", ctx.Err())
			return nil
		case e, ok := <-in:
			if !ok {
				return nil
			}
			if err := f.Forward(ctx, e); err != nil {
				f.logger.ErrorContext(ctx, "Failed to forward event",
					"type", e.Type,
					"group_id", e.GroupID,
					"error", err)
			}
		}
	}
}

// Close closes the channel and, if Dial opened it, the connection.
func (f *Forwarder) Close() error {
	var errs []error
	if err := f.channel.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close channel: %w", err))
	}
	if f.conn != nil {
		if err := f.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
