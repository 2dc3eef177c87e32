package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"herald/internal/models"

	"github.com/redis/go-redis/v9"
)

// AnnouncementCache stores and retrieves announcement snapshots by their
// composite key. It is an accelerator only; the detail and counter stores
// remain authoritative, and cache population always happens after a
// confirmed store read or write.
type AnnouncementCache interface {
	// Get returns every cache hit for the given queries. Queries with no hit
	// are simply absent from the result, never an error.
	Get(ctx context.Context, queries []models.AnnouncementQuery) ([]*models.Announcement, error)
	// GetOne returns a single hit, or found=false on a miss.
	GetOne(ctx context.Context, query models.AnnouncementQuery) (*models.Announcement, bool, error)
	// SaveAll unconditionally overwrites entries; last writer wins.
	SaveAll(ctx context.Context, announcements []*models.Announcement) error
}

const keyPrefix = "announcement:"

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache builds an AnnouncementCache over the given client. A zero
// ttl keeps entries until they are overwritten.
func NewRedisCache(client *redis.Client, ttl time.Duration) AnnouncementCache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, queries []models.AnnouncementQuery) ([]*models.Announcement, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	keys := make([]string, len(queries))
	for i, q := range queries {
		keys[i] = keyPrefix + q.Key()
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("cache mget: %w", err)
	}

	hits := make([]*models.Announcement, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// nil entry, cache miss
			continue
		}
		var a models.Announcement
		if err := json.Unmarshal([]byte(s), &a); err != nil {
			// A corrupt entry is treated as a miss; the next read-through
			// overwrites it.
			continue
		}
		hits = append(hits, &a)
	}
	return hits, nil
}

func (c *redisCache) GetOne(ctx context.Context, query models.AnnouncementQuery) (*models.Announcement, bool, error) {
	s, err := c.client.Get(ctx, keyPrefix+query.Key()).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var a models.Announcement
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		return nil, false, nil
	}
	return &a, true, nil
}

func (c *redisCache) SaveAll(ctx context.Context, announcements []*models.Announcement) error {
	if len(announcements) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, a := range announcements {
		b, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("cache marshal %s: %w", a.Key(), err)
		}
		pipe.Set(ctx, keyPrefix+a.Key(), b, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache saveall: %w", err)
	}
	return nil
}

// noopCache is used when Redis is unavailable and in tests: every read is a
// miss and writes go nowhere.
type noopCache struct{}

// NewNoopCache returns an AnnouncementCache that holds nothing.
func NewNoopCache() AnnouncementCache {
	return noopCache{}
}

func (noopCache) Get(context.Context, []models.AnnouncementQuery) ([]*models.Announcement, error) {
	return nil, nil
}

func (noopCache) GetOne(context.Context, models.AnnouncementQuery) (*models.Announcement, bool, error) {
	return nil, false, nil
}

func (noopCache) SaveAll(context.Context, []*models.Announcement) error {
	return nil
}
