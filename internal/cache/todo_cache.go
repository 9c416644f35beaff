package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ndenisov/todoview/internal/models"
)

const (
	keyPrefixOverdue = "todo:overdue:"
	keyPrefixStats   = "todo:stats:"
)

// TodoCache caches per-owner overdue and stats views in Redis. Both
// views depend on the clock as well as on writes, so a todo crossing the
// due boundary may be reported late by up to the TTL. The due-soon view
// is never cached: its window is caller-supplied on top of that.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

// GetOverdue returns the cached overdue list or nil on miss.
func (c *TodoCache) GetOverdue(ctx context.Context, ownerID string) ([]models.Todo, error) {
	b, err := c.rdb.Get(ctx, keyPrefixOverdue+ownerID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []models.Todo
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *TodoCache) SetOverdue(ctx context.Context, ownerID string, list []models.Todo) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefixOverdue+ownerID, b, c.ttl).Err()
}

// GetStats returns the cached stats or nil on miss.
func (c *TodoCache) GetStats(ctx context.Context, ownerID string) (*models.TodoStats, error) {
	b, err := c.rdb.Get(ctx, keyPrefixStats+ownerID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	stats := new(models.TodoStats)
	if err := json.Unmarshal(b, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *TodoCache) SetStats(ctx context.Context, ownerID string, stats *models.TodoStats) error {
	b, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefixStats+ownerID, b, c.ttl).Err()
}

// Invalidate drops the owner's cached views after any write.
func (c *TodoCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.rdb.Del(ctx, keyPrefixOverdue+ownerID, keyPrefixStats+ownerID).Err()
}
