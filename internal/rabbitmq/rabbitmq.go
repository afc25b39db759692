package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"club_service/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client publishes rendered emails to a durable queue and, on the sender
// side, consumes them. One queue carries every notification kind.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

func New(urlForConn string, queueName string) (*Client, error) {
	const op = "rabbitmq.New"

	conn, err := amqp.Dial(urlForConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(
		queueName, true, false, false, false, nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   q,
	}, nil
}

func (c *Client) Publish(ctx context.Context, msg models.EmailMessage) error {
	const op = "rabbitmq.Publish"

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return c.channel.PublishWithContext(
		ctx,
		"",
		c.queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

// Consume delivers queued message bodies to fn until ctx is cancelled.
// Messages are acked after fn returns; fn owns its own error handling.
func (c *Client) Consume(ctx context.Context, fn func(body []byte)) error {
	const op = "rabbitmq.Consume"

	msgs, err := c.channel.Consume(
		c.queue.Name, "", false, false, false, false, nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return fmt.Errorf("%s: delivery channel closed", op)
			}

			fn(m.Body)

			if err := m.Ack(false); err != nil {
				return fmt.Errorf("%s: ack: %w", op, err)
			}
		}
	}
}

func (c *Client) Close() {
	_ = c.channel.Close()
	_ = c.conn.Close()
}
