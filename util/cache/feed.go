package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const generationKey = "feed:generation"

// FeedCache stores rendered feed pages in Redis. Pages are keyed by a
// generation number; bumping the generation on every write orphans all
// previously cached pages, which then expire on their TTL.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// FeedQuery identifies one cached page.
type FeedQuery struct {
	SortBy   string
	City     string
	Page     int
	PageSize int
}

func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	return &FeedCache{client: client, ttl: ttl}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

func pageKey(generation int64, q FeedQuery) string {
	return fmt.Sprintf("feed:v%d:%s:%q:%d:%d", generation, q.SortBy, q.City, q.Page, q.PageSize)
}

// Lookup returns the current generation and the cached page for q, if any.
// The generation must be passed back to Store so a page computed before a
// concurrent write is never stored under the new generation.
func (c *FeedCache) Lookup(ctx context.Context, q FeedQuery) (int64, []byte, bool, error) {
	if c == nil {
		return 0, nil, false, nil
	}

	generation, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, nil, false, errors.Wrap(err, "read feed generation")
	}

	payload, err := c.client.Get(ctx, pageKey(generation, q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return generation, nil, false, nil
	}
	if err != nil {
		return generation, nil, false, errors.Wrap(err, "read feed page")
	}
	return generation, payload, true, nil
}

func (c *FeedCache) Store(ctx context.Context, generation int64, q FeedQuery, payload []byte) error {
	if c == nil {
		return nil
	}
	if err := c.client.Set(ctx, pageKey(generation, q), payload, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "write feed page")
	}
	return nil
}

// Invalidate advances the generation so every cached page becomes unreachable.
func (c *FeedCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return errors.Wrap(err, "bump feed generation")
	}
	return nil
}
