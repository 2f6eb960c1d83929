package outbound

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
)

// AssetMetadataCache caches immutable token metadata (symbol, decimals,
// active flag). Balances, allowances, and position fields are live state and
// must never go through this cache.
type AssetMetadataCache interface {
	// Get returns the cached metadata, or nil when absent.
	Get(ctx context.Context, token common.Address) (*entity.AssetInfo, error)

	// Put stores metadata for a token.
	Put(ctx context.Context, info *entity.AssetInfo) error
}
