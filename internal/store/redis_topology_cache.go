package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devrev/pairdb/topology/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisTopologyCache implements TopologyCache for Redis, keying entries by
// the cluster id and expiring them after a fixed TTL independent of the
// durable Postgres history.
type RedisTopologyCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTopologyCache creates a new Redis topology cache.
func NewRedisTopologyCache(host string, port int, password string, db int, ttl time.Duration, logger *zap.Logger) (TopologyCache, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTopologyCache{client: client, ttl: ttl, logger: logger}, nil
}

// Get retrieves a cached topology, returning ErrNotFound on a cache miss.
func (c *RedisTopologyCache) Get(ctx context.Context, clusterID string) (*model.Topology, error) {
	data, err := c.client.Get(ctx, cacheKey(clusterID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var topo model.Topology
	if err := json.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached topology: %w", err)
	}
	return &topo, nil
}

// Set stores topo under clusterID with the cache's configured TTL.
func (c *RedisTopologyCache) Set(ctx context.Context, clusterID string, topo *model.Topology) error {
	data, err := json.Marshal(topo)
	if err != nil {
		return fmt.Errorf("failed to marshal topology: %w", err)
	}
	return c.client.Set(ctx, cacheKey(clusterID), data, c.ttl).Err()
}

// Invalidate removes a cached topology. The planner does not call it: it
// overwrites the entry with Set after each new version.
func (c *RedisTopologyCache) Invalidate(ctx context.Context, clusterID string) error {
	return c.client.Del(ctx, cacheKey(clusterID)).Err()
}

// Ping checks the Redis connection.
func (c *RedisTopologyCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *RedisTopologyCache) Close() error {
	return c.client.Close()
}

func cacheKey(clusterID string) string {
	return "topology:" + clusterID
}
