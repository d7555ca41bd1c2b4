package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"pathways_backend/internal/model"
	"pathways_backend/pkg/logger"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const unitDefinitionKeyPrefix = "pathways:unit:"

// DefinitionCache is a cache-aside layer for unit definitions. A nil client disables it.
// Progress and attempt data never pass through here.
type DefinitionCache struct {
	Redis *redis.Client
	ttl   atomic.Int64
}

func NewDefinitionCache(rdb *redis.Client, ttl time.Duration) *DefinitionCache {
	c := &DefinitionCache{Redis: rdb}
	c.SetTTL(ttl)
	return c
}

// SetTTL changes the expiry used for subsequent writes; zero disables caching.
func (c *DefinitionCache) SetTTL(ttl time.Duration) {
	c.ttl.Store(int64(ttl))
}

func (c *DefinitionCache) TTL() time.Duration {
	return time.Duration(c.ttl.Load())
}

func (c *DefinitionCache) enabled() bool {
	return c != nil && c.Redis != nil && c.TTL() > 0
}

func (c *DefinitionCache) Get(ctx context.Context, unitID string) (*model.Unit, bool) {
	if !c.enabled() {
		return nil, false
	}
	val, err := c.Redis.Get(ctx, unitDefinitionKeyPrefix+unitID).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Log.Warn("definition cache read failed", zap.String("unit", unitID), zap.Error(err))
		return nil, false
	}

	var unit model.Unit
	if err := json.Unmarshal(val, &unit); err != nil {
		logger.Log.Warn("definition cache entry corrupt", zap.String("unit", unitID), zap.Error(err))
		return nil, false
	}
	return &unit, true
}

func (c *DefinitionCache) Set(ctx context.Context, unit *model.Unit) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(unit)
	if err != nil {
		return
	}
	if err := c.Redis.Set(ctx, unitDefinitionKeyPrefix+unit.ID, data, c.TTL()).Err(); err != nil {
		logger.Log.Warn("definition cache write failed", zap.String("unit", unit.ID), zap.Error(err))
	}
}

// Invalidate drops cached definitions, used after the catalog is re-seeded.
func (c *DefinitionCache) Invalidate(ctx context.Context, unitIDs ...string) error {
	if c == nil || c.Redis == nil || len(unitIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(unitIDs))
	for _, id := range unitIDs {
		keys = append(keys, unitDefinitionKeyPrefix+id)
	}
	if err := c.Redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate unit definitions: %w", err)
	}
	return nil
}
