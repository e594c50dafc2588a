package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/macandtoo/backend/internal/config"
	"github.com/streadway/amqp"
)

const retryHeader = "x-retry-count"

// AMQPQueue publishes persistent messages to a durable RabbitMQ queue and
// consumes them with manual acknowledgement.
type AMQPQueue struct {
	conn       *amqp.Connection
	mu         sync.Mutex // guards ch for publishing
	ch         *amqp.Channel
	name       string
	maxRetries int
}

var _ Queue = (*AMQPQueue)(nil)

// NewAMQPQueue dials the broker and declares the queue.
func NewAMQPQueue(cfg *config.QueueConfig) (*AMQPQueue, error) {
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("queue: connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("queue: open channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		cfg.AMQPQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("queue: declare %s: %w", cfg.AMQPQueue, err)
	}
	return &AMQPQueue{conn: conn, ch: ch, name: q.Name, maxRetries: cfg.MaxRetries}, nil
}

func (q *AMQPQueue) Publish(ctx context.Context, t Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encode(t)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	err = q.ch.Publish("", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    t.ID,
		Timestamp:    t.EnqueuedAt,
		Headers:      amqp.Table{retryHeader: int32(t.Attempt)},
		Body:         b,
	})
	if err != nil {
		return fmt.Errorf("queue: amqp publish: %w", err)
	}
	return nil
}

// Consume reads deliveries one at a time (prefetch 1). A failed task is
// republished with x-retry-count raised and the original acked; after
// maxRetries it is rejected without requeue.
func (q *AMQPQueue) Consume(ctx context.Context, h Handler) error {
	q.mu.Lock()
	err := q.ch.Qos(1, 0, false)
	var msgs <-chan amqp.Delivery
	if err == nil {
		msgs, err = q.ch.Consume(
			q.name,
			"",
			false, // autoAck = false for reliability
			false,
			false,
			false,
			nil,
		)
	}
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("queue: register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			q.handle(ctx, h, d)
		}
	}
}

func (q *AMQPQueue) handle(ctx context.Context, h Handler, d amqp.Delivery) {
	t, err := decode(d.Body)
	if err != nil {
		slog.Error("discarding malformed task", "error", err)
		_ = d.Ack(false)
		return
	}
	t.Attempt = retryCount(d.Headers)

	herr := h(ctx, t)
	if herr == nil {
		_ = d.Ack(false)
		return
	}
	if t.Attempt >= q.maxRetries {
		slog.Error("task dropped after retries",
			"task_id", t.ID, "kind", t.Kind, "attempts", t.Attempt+1, "error", herr)
		_ = d.Nack(false, false)
		return
	}

	t.Attempt++
	if err := q.Publish(ctx, t); err != nil {
		slog.Error("requeue failed", "task_id", t.ID, "error", err)
		_ = d.Nack(false, true)
		return
	}
	slog.Warn("task failed, requeued", "task_id", t.ID, "kind", t.Kind, "attempt", t.Attempt, "error", herr)
	_ = d.Ack(false)
}

// retryCount reads x-retry-count, which brokers may hand back in any integer width.
func retryCount(h amqp.Table) int {
	switch v := h[retryHeader].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}
