package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	jobredis "github.com/goliatone/go-job/queue/adapters/redis"
	"github.com/redis/go-redis/v9"
)

const DefaultQueueName = "r25live:jobs"

// QueueClient lets the go-job Redis queue run on a go-redis connection.
// Missing keys read as empty values instead of redis.Nil errors.
type QueueClient struct {
	client redis.Cmdable
}

func NewQueueClient(client redis.Cmdable) *QueueClient {
	return &QueueClient{client: client}
}

// NewJobQueue builds the refresh job queue on top of client.
func NewJobQueue(client redis.Cmdable, opts ...jobredis.Option) *jobredis.Adapter {
	opts = append([]jobredis.Option{jobredis.WithQueueName(DefaultQueueName)}, opts...)
	return jobredis.NewAdapter(jobredis.NewStorage(NewQueueClient(client), opts...))
}

func (c *QueueClient) HSet(ctx context.Context, key string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]any, 0, len(values)*2)
	for field, value := range values {
		args = append(args, field, value)
	}
	return c.client.HSet(ctx, key, args...).Err()
}

func (c *QueueClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	values, err := c.client.HGetAll(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return map[string]string{}, nil
	}
	return values, err
}

func (c *QueueClient) HGet(ctx context.Context, key, field string) (string, error) {
	value, err := c.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

func (c *QueueClient) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return c.client.HDel(ctx, key, fields...).Err()
}

func (c *QueueClient) LPush(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	return c.client.LPush(ctx, key, toArgs(values)...).Err()
}

func (c *QueueClient) RPop(ctx context.Context, key string) (string, error) {
	value, err := c.client.RPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

func (c *QueueClient) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return c.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

func (c *QueueClient) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return c.client.ZRem(ctx, key, toArgs(members)...).Err()
}

func (c *QueueClient) ZRangeByScore(ctx context.Context, key string, max float64, limit int64) ([]jobredis.ZItem, error) {
	opt := &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatFloat(max, 'f', -1, 64),
	}
	if limit > 0 {
		opt.Count = limit
	}
	entries, err := c.client.ZRangeByScoreWithScores(ctx, key, opt).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	items := make([]jobredis.ZItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, jobredis.ZItem{Member: fmt.Sprint(entry.Member), Score: entry.Score})
	}
	return items, nil
}

func (c *QueueClient) Eval(ctx context.Context, script string, keys []string, args ...any) (any, error) {
	result, err := c.client.Eval(ctx, script, keys, args...).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return result, err
}

func (c *QueueClient) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

func (c *QueueClient) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func toArgs(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}
