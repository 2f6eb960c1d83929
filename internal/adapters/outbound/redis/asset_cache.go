// Package redis provides a Redis implementation of the AssetMetadataCache
// port.
//
// This adapter stores immutable token metadata (name, symbol, decimals) in
// Redis with configurable TTL so multiple desk processes share one warm
// cache. Live chain state never goes through it.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// Compile-time check that AssetCache implements outbound.AssetMetadataCache
var _ outbound.AssetMetadataCache = (*AssetCache)(nil)

// Config holds Redis cache configuration.
type Config struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr string
	// Password for Redis authentication (empty for no auth)
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// TTL is how long cached metadata lives before expiring
	TTL time.Duration
	// KeyPrefix is prepended to all cache keys
	KeyPrefix string
}

// ConfigDefaults returns sensible defaults. Token metadata is immutable, so
// the TTL exists only to bound stale registry flags.
func ConfigDefaults() Config {
	return Config{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		TTL:       24 * time.Hour,
		KeyPrefix: "leprechaun",
	}
}

// cachedAsset is the wire form of a cache entry. Registry parameters and the
// wallet balance are live state and deliberately absent.
type cachedAsset struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// AssetCache is a Redis implementation of the outbound.AssetMetadataCache
// port.
type AssetCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *slog.Logger
}

// NewAssetCache creates a new Redis asset metadata cache.
func NewAssetCache(cfg Config, logger *slog.Logger) (*AssetCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "redis-asset-cache")

	return &AssetCache{
		client:    client,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger,
	}, nil
}

// NewAssetCacheWithClient wraps an existing Redis client, used by tests and
// callers that share a connection.
func NewAssetCacheWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *AssetCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetCache{
		client:    client,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger.With("component", "redis-asset-cache"),
	}
}

// Ping checks the Redis connection.
func (c *AssetCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *AssetCache) Close() error {
	return c.client.Close()
}

// key generates a cache key in the format prefix:asset:address
func (c *AssetCache) key(token common.Address) string {
	return fmt.Sprintf("%s:asset:%s", c.keyPrefix, strings.ToLower(token.Hex()))
}

// Get returns cached metadata, nil when absent.
func (c *AssetCache) Get(ctx context.Context, token common.Address) (*entity.AssetInfo, error) {
	raw, err := c.client.Get(ctx, c.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read asset metadata: %w", err)
	}

	var cached cachedAsset
	if err := json.Unmarshal(raw, &cached); err != nil {
		// A corrupt entry behaves like a miss; the caller refetches.
		c.logger.Warn("dropping corrupt cache entry", "token", token.Hex(), "error", err)
		if delErr := c.client.Del(ctx, c.key(token)).Err(); delErr != nil {
			c.logger.Warn("failed to drop corrupt cache entry", "token", token.Hex(), "error", delErr)
		}
		return nil, nil
	}

	return &entity.AssetInfo{
		TokenAddress: token,
		Name:         cached.Name,
		Symbol:       cached.Symbol,
		Decimals:     cached.Decimals,
	}, nil
}

// Put stores metadata for the token.
func (c *AssetCache) Put(ctx context.Context, info *entity.AssetInfo) error {
	raw, err := json.Marshal(cachedAsset{
		Name:     info.Name,
		Symbol:   info.Symbol,
		Decimals: info.Decimals,
	})
	if err != nil {
		return fmt.Errorf("failed to encode asset metadata: %w", err)
	}

	if err := c.client.Set(ctx, c.key(info.TokenAddress), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache asset metadata: %w", err)
	}
	return nil
}
