// Package amqp connects the tracker processes through a message broker:
// every local write is announced on a fanout exchange, and the sync
// worker consumes the announcements to schedule uploads.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"fintrack/internal/core"
)

type Client struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
}

// NewClient dials the broker and declares the fanout exchange. When queue
// is non-empty a durable queue is declared and bound, which is what
// consumers use; pure publishers pass "".
func NewClient(url, exchange, queue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	if queue != "" {
		if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := channel.QueueBind(queue, "", exchange, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return &Client{conn: conn, channel: channel, exchange: exchange, queue: queue}, nil
}

// PublishChange implements the change publisher port over the exchange.
func (c *Client) PublishChange(ctx context.Context, collection, id, op string) error {
	msg := ChangeMessage{
		Collection: collection,
		ID:         id,
		Op:         op,
		Timestamp:  core.Timestamp(time.Now()),
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("encode change message: %w", err)
	}

	err = c.channel.PublishWithContext(ctx, c.exchange, "", false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// ConsumeChanges delivers decoded change messages until ctx is cancelled.
// Malformed deliveries are rejected without requeue and skipped.
func (c *Client) ConsumeChanges(ctx context.Context) (<-chan ChangeMessage, error) {
	if c.queue == "" {
		return nil, fmt.Errorf("client has no queue bound")
	}
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.queue, err)
	}

	out := make(chan ChangeMessage)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}
				msg, err := ChangeMessageFromJSON(delivery.Body)
				if err != nil {
					slog.Warn("Dropping malformed change message", "error", err)
					_ = delivery.Reject(false)
					continue
				}
				if err := delivery.Ack(false); err != nil {
					slog.Warn("Failed to ack delivery", "error", err)
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) Close() error {
	if err := c.channel.Close(); err != nil {
		c.conn.Close()
		return fmt.Errorf("close channel: %w", err)
	}
	return c.conn.Close()
}
