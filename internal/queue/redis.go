package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/macandtoo/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

const redisPopTimeout = 5 * time.Second

// RedisQueue keeps JSON tasks in a Redis list: producers LPUSH, the consumer
// BRPOPs, so the list is FIFO.
type RedisQueue struct {
	client     *redis.Client
	key        string
	maxRetries int
}

var _ Queue = (*RedisQueue)(nil)

// NewRedisQueue connects and pings the server.
func NewRedisQueue(ctx context.Context, cfg *config.QueueConfig) (*RedisQueue, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cannot connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	return &RedisQueue{client: rdb, key: cfg.RedisKey, maxRetries: cfg.MaxRetries}, nil
}

func (q *RedisQueue) Publish(ctx context.Context, t Task) error {
	b, err := encode(t)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, b).Err(); err != nil {
		return fmt.Errorf("queue: redis push: %w", err)
	}
	return nil
}

// Consume pops tasks until ctx is cancelled. A failed task is pushed back with
// its attempt counter raised; once maxRetries is reached it is dropped.
func (q *RedisQueue) Consume(ctx context.Context, h Handler) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := q.client.BRPop(ctx, redisPopTimeout, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
				return nil
			}
			return fmt.Errorf("queue: redis pop: %w", err)
		}
		// res is [key, value]
		t, err := decode([]byte(res[1]))
		if err != nil {
			slog.Error("discarding malformed task", "error", err)
			continue
		}

		if err := h(ctx, t); err != nil {
			q.retry(ctx, t, err)
		}
	}
}

func (q *RedisQueue) retry(ctx context.Context, t Task, cause error) {
	if t.Attempt >= q.maxRetries {
		slog.Error("task dropped after retries",
			"task_id", t.ID, "kind", t.Kind, "attempts", t.Attempt+1, "error", cause)
		return
	}
	t.Attempt++
	slog.Warn("task failed, requeued", "task_id", t.ID, "kind", t.Kind, "attempt", t.Attempt, "error", cause)
	if err := q.Publish(ctx, t); err != nil {
		slog.Error("requeue failed", "task_id", t.ID, "error", err)
	}
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
