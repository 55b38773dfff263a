package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
)

// RetryQueue defines the enqueue side of the retry pipeline. Workflows push
// deferred writes here and report success to their caller; the worker pool
// drains the queue independently.
type RetryQueue interface {
	Enqueue(ctx context.Context, msg *Message) error
}

// redisRetryQueue implements RetryQueue on a redis list
type redisRetryQueue struct {
	redis  *redis.Client
	key    string
	logger *logger.Logger
}

// NewRetryQueue creates a new redis-backed retry queue
func NewRetryQueue(client *redis.Client, cfg *config.Config, log *logger.Logger) RetryQueue {
	return &redisRetryQueue{
		redis:  client,
		key:    cfg.RetryQueue.Key,
		logger: log,
	}
}

// Enqueue appends a retry message to the queue
func (q *redisRetryQueue) Enqueue(ctx context.Context, msg *Message) error {
	if !msg.Operation.Valid() {
		return fmt.Errorf("refusing to enqueue unknown operation %q", msg.Operation)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal retry message: %w", err)
	}

	if err := q.redis.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue retry message: %w", err)
	}

	q.logger.WithOperation(string(msg.Operation)).Info("Enqueued retry message")
	return nil
}
