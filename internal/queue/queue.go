// Package queue is the RabbitMQ client shared by the scraper (publisher side)
// and the worker (consumer side). Tasks are persistent JSON messages of the
// form {"job_id": N} on a single durable queue.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Task is the wire format of one unit of work. Unknown extra fields are
// ignored; a missing or non-numeric job_id marks the message as malformed.
type Task struct {
	JobID *int64 `json:"job_id"`
}

type Config struct {
	URL         string
	QueueName   string
	FailedQueue string
}

type Client struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queueName   string
	failedQueue string
	logger      *slog.Logger
}

// Dial connects, opens a channel and declares the durable work queue plus the
// dead-letter queue for tasks that exhaust their redelivery budget.
func Dial(cfg Config, logger *slog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	for _, name := range []string{cfg.QueueName, cfg.FailedQueue} {
		if name == "" {
			continue
		}
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", name, err)
		}
	}

	logger.Info("connected to rabbitmq", "queue", cfg.QueueName)

	return &Client{
		conn:        conn,
		channel:     ch,
		queueName:   cfg.QueueName,
		failedQueue: cfg.FailedQueue,
		logger:      logger,
	}, nil
}

// DialWithRetry retries the connection bootstrap a bounded number of times
// with a fixed delay before giving up. Exhausting the budget is the only
// fatal startup condition a consumer process has.
func DialWithRetry(ctx context.Context, cfg Config, attempts int, delay time.Duration, logger *slog.Logger) (*Client, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := Dial(cfg, logger)
		if err == nil {
			return client, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		logger.Warn("rabbitmq connection failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// PublishJobs emits one persistent task per id, in order, to the work queue.
func (c *Client) PublishJobs(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		jobID := id
		body, err := json.Marshal(Task{JobID: &jobID})
		if err != nil {
			return fmt.Errorf("marshal task: %w", err)
		}

		err = c.channel.PublishWithContext(
			ctx,
			"", // default exchange routes by queue name
			c.queueName,
			false,
			false,
			amqp.Publishing{
				DeliveryMode: amqp.Persistent,
				ContentType:  "application/json",
				Body:         body,
				Timestamp:    time.Now(),
			},
		)
		if err != nil {
			return fmt.Errorf("publish job %d: %w", id, err)
		}

		c.logger.Debug("published task", "job_id", id)
	}
	return nil
}

// PublishFailed moves a task body onto the dead-letter queue.
func (c *Client) PublishFailed(ctx context.Context, body []byte) error {
	err := c.channel.PublishWithContext(
		ctx,
		"",
		c.failedQueue,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish to failed queue: %w", err)
	}
	return nil
}

// Consume sets prefetch=1 and returns the delivery channel. With a prefetch
// of one the broker never hands this process a second task before the first
// is acked or nacked; that is the backpressure model, one enrichment in
// flight per worker process.
func (c *Client) Consume() (<-chan amqp.Delivery, error) {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.queueName,
		"",    // consumer tag
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("start consume: %w", err)
	}
	return deliveries, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
