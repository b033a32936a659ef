// Package cache keeps (owner, name) sensor lookups in Redis so the ingest
// path can skip the get-or-create round trip for known sensors.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/config"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const keyPrefix = "dwh:sensor:"

// RedisSensorCache implements repository.SensorCache. Failures are logged and
// treated as misses; the relational store stays authoritative.
type RedisSensorCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSensorCache connects to Redis and verifies the connection.
func NewRedisSensorCache(ctx context.Context, cfg config.RedisConfig) (*RedisSensorCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}
	nuts.L.Infof("[SensorCache] Connected to %s:%d/%d", cfg.Host, cfg.Port, cfg.DB)
	return NewWithClient(client, cfg.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *RedisSensorCache {
	return &RedisSensorCache{client: client, ttl: ttl}
}

func ownerKey(ownerID *string) string {
	if ownerID == nil {
		return ""
	}
	return *ownerID
}

// sensorKey is length-prefixed so owner and name cannot run into each other.
func sensorKey(ownerID *string, name string) string {
	owner := ownerKey(ownerID)
	return fmt.Sprintf("%s%d:%s:%s", keyPrefix, len(owner), owner, name)
}

func ownerIndexKey(ownerID string) string {
	return fmt.Sprintf("%sowner:%d:%s", keyPrefix, len(ownerID), ownerID)
}

func (c *RedisSensorCache) Get(ctx context.Context, ownerID *string, name string) (*models.Sensor, bool) {
	raw, err := c.client.Get(ctx, sensorKey(ownerID, name)).Bytes()
	if err != nil {
		if err != redis.Nil {
			nuts.L.Warnf("[SensorCache] Get %q failed: %v", name, err)
		}
		return nil, false
	}

	sensor := &models.Sensor{}
	if err := json.Unmarshal(raw, sensor); err != nil {
		nuts.L.Warnf("[SensorCache] Dropping undecodable entry for %q: %v", name, err)
		return nil, false
	}
	return sensor, true
}

func (c *RedisSensorCache) Set(ctx context.Context, sensor *models.Sensor) {
	raw, err := json.Marshal(sensor)
	if err != nil {
		nuts.L.Warnf("[SensorCache] Encode %s failed: %v", sensor.ID, err)
		return
	}

	key := sensorKey(sensor.OwnerID, sensor.Name)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	if sensor.OwnerID != nil {
		idx := ownerIndexKey(*sensor.OwnerID)
		pipe.SAdd(ctx, idx, key)
		if c.ttl > 0 {
			pipe.Expire(ctx, idx, c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		nuts.L.Warnf("[SensorCache] Set %s failed: %v", sensor.ID, err)
	}
}

// EvictOwner drops every cached sensor of ownerID.
func (c *RedisSensorCache) EvictOwner(ctx context.Context, ownerID string) error {
	idx := ownerIndexKey(ownerID)
	keys, err := c.client.SMembers(ctx, idx).Result()
	if err != nil {
		return fmt.Errorf("failed to list cached sensors: %w", err)
	}
	keys = append(keys, idx)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to evict cached sensors: %w", err)
	}
	nuts.L.Infof("[SensorCache] Evicted %d entries of owner %s", len(keys)-1, ownerID)
	return nil
}

func (c *RedisSensorCache) Close() error {
	return c.client.Close()
}
