package cache

import (
	"context"
	"encoding/json"
	"time"

	"fms-project/backend/tasks-service/logging"
	"fms-project/backend/tasks-service/models"

	"github.com/redis/go-redis/v9"
)

// TaskCache is a read-through cache for task documents. Keys are built from
// the entity kind plus id, and invalidation deletes exactly that key, so an
// unrelated entry can never be evicted (or survive) by accident.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

func taskKey(id string) string {
	return "task:" + id
}

// GetTask returns the cached task and true on a hit. Cache errors degrade to
// a miss; the store stays the source of truth.
func (c *TaskCache) GetTask(ctx context.Context, id string) (*models.Task, bool) {
	data, err := c.rdb.Get(ctx, taskKey(id)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logging.Logger.Warnf("Event ID: CACHE_READ_FAILED, Description: Cache read for task %s failed: %v", id, err)
		return nil, false
	}

	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		logging.Logger.Warnf("Event ID: CACHE_DECODE_FAILED, Description: Dropping undecodable cache entry for task %s: %v", id, err)
		c.rdb.Del(ctx, taskKey(id))
		return nil, false
	}
	return &task, true
}

func (c *TaskCache) SetTask(ctx context.Context, task *models.Task) {
	data, err := json.Marshal(task)
	if err != nil {
		logging.Logger.Warnf("Event ID: CACHE_ENCODE_FAILED, Description: Could not encode task %s for caching: %v", task.ID, err)
		return
	}
	if err := c.rdb.Set(ctx, taskKey(task.ID), data, c.ttl).Err(); err != nil {
		logging.Logger.Warnf("Event ID: CACHE_WRITE_FAILED, Description: Cache write for task %s failed: %v", task.ID, err)
	}
}

func (c *TaskCache) InvalidateTask(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, taskKey(id)).Err(); err != nil {
		logging.Logger.Warnf("Event ID: CACHE_INVALIDATE_FAILED, Description: Cache invalidation for task %s failed: %v", id, err)
	}
}
