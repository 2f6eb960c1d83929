// asset_cache.go provides an in-memory AssetMetadataCache.
package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// Compile-time check that AssetCache implements outbound.AssetMetadataCache
var _ outbound.AssetMetadataCache = (*AssetCache)(nil)

// AssetCache caches immutable token metadata in a map.
type AssetCache struct {
	mu     sync.RWMutex
	assets map[common.Address]entity.AssetInfo
}

// NewAssetCache creates a new in-memory asset metadata cache.
func NewAssetCache() *AssetCache {
	return &AssetCache{assets: make(map[common.Address]entity.AssetInfo)}
}

// Get returns cached metadata, nil when absent.
func (c *AssetCache) Get(ctx context.Context, token common.Address) (*entity.AssetInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.assets[token]
	if !ok {
		return nil, nil
	}
	// Live fields never live in the cache.
	info.Balance = nil
	return &info, nil
}

// Put stores metadata for the token.
func (c *AssetCache) Put(ctx context.Context, info *entity.AssetInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := *info
	stored.Balance = nil
	c.assets[info.TokenAddress] = stored
	return nil
}
