// Package runinfra provides the infrastructure adapters for asynchronous
// pipeline runs: the Redis-backed run queue and the run record repository.
package runinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/shortlist/ranking"
	"github.com/redis/go-redis/v9"
)

// RedisRunQueue implements RunQueue using Redis
type RedisRunQueue struct {
	client    *redis.Client
	queueName string
}

// NewRedisRunQueue creates a new Redis-based run queue
func NewRedisRunQueue(client *redis.Client, queueName string) ranking.RunQueue {
	return &RedisRunQueue{
		client:    client,
		queueName: queueName,
	}
}

// Enqueue adds a run to the queue
func (q *RedisRunQueue) Enqueue(ctx context.Context, runID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for run %s: %w", runID, err)
	}

	if err := q.client.LPush(ctx, q.queueName, data).Err(); err != nil {
		return fmt.Errorf("enqueue run %s: %w", runID, err)
	}

	return nil
}

// Dequeue gets a run from the queue (blocking with timeout)
func (q *RedisRunQueue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		// redis.Nil is returned when timeout occurs
		if err == redis.Nil {
			return nil, nil // No runs available
		}
		return nil, fmt.Errorf("dequeue run: %w", err)
	}

	if len(result) < 2 {
		return nil, fmt.Errorf("invalid result from queue: expected 2 elements, got %d", len(result))
	}

	return []byte(result[1]), nil
}

// EnqueueDelayed schedules a run for later processing (for retries)
func (q *RedisRunQueue) EnqueueDelayed(ctx context.Context, runID string, payload any, delay time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal delayed payload for run %s: %w", runID, err)
	}

	score := float64(time.Now().Add(delay).Unix())
	delayedQueue := q.queueName + ":delayed"

	if err := q.client.ZAdd(ctx, delayedQueue, redis.Z{
		Score:  score,
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue delayed run %s: %w", runID, err)
	}

	return nil
}

// MoveDelayedToReady moves delayed runs that are ready to the main queue
func (q *RedisRunQueue) MoveDelayedToReady(ctx context.Context) (int, error) {
	delayedQueue := q.queueName + ":delayed"
	now := float64(time.Now().Unix())

	runs, err := q.client.ZRangeByScore(ctx, delayedQueue, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("get delayed runs: %w", err)
	}

	if len(runs) == 0 {
		return 0, nil
	}

	// Use pipeline for atomic operations
	pipe := q.client.Pipeline()
	for _, run := range runs {
		pipe.LPush(ctx, q.queueName, run)
		pipe.ZRem(ctx, delayedQueue, run)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("move delayed runs to ready: %w", err)
	}

	return len(runs), nil
}

// Stats returns queue statistics
func (q *RedisRunQueue) Stats(ctx context.Context) (map[string]any, error) {
	ready, err := q.client.LLen(ctx, q.queueName).Result()
	if err != nil {
		return nil, fmt.Errorf("get queue size: %w", err)
	}

	delayed, err := q.client.ZCard(ctx, q.queueName+":delayed").Result()
	if err != nil {
		return nil, fmt.Errorf("get delayed queue size: %w", err)
	}

	return map[string]any{
		"queue_name":   q.queueName,
		"ready_runs":   ready,
		"delayed_runs": delayed,
		"total_runs":   ready + delayed,
	}, nil
}
