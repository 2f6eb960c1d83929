//go:build integration

package redis

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/testutil"
)

func setupCache(t *testing.T) *AssetCache {
	t.Helper()

	client, cleanup := testutil.StartRedis(t)
	t.Cleanup(cleanup)

	cfg := ConfigDefaults()
	cfg.TTL = time.Minute
	return NewAssetCacheWithClient(client, cfg, testutil.DiscardLogger())
}

func TestAssetCacheRoundTrip(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()
	token := testutil.Addr(0xc0)

	if err := c.Put(ctx, &entity.AssetInfo{
		TokenAddress: token,
		Name:         "Wrapped BNB",
		Symbol:       "WBNB",
		Decimals:     18,
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	info, err := c.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if info == nil {
		t.Fatal("Get returned nil for cached token")
	}
	if info.Name != "Wrapped BNB" || info.Symbol != "WBNB" || info.Decimals != 18 {
		t.Errorf("info = %+v", info)
	}
	if info.TokenAddress != token {
		t.Errorf("TokenAddress = %s, want %s", info.TokenAddress.Hex(), token.Hex())
	}
}

func TestAssetCacheMiss(t *testing.T) {
	c := setupCache(t)

	info, err := c.Get(context.Background(), testutil.Addr(0x99))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if info != nil {
		t.Errorf("Get = %+v, want nil on miss", info)
	}
}

// Live fields must not survive a cache round trip.
func TestAssetCacheDropsLiveState(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()
	token := testutil.Addr(0xc1)

	if err := c.Put(ctx, &entity.AssetInfo{
		TokenAddress:       token,
		Name:               "Wrapped BNB",
		Symbol:             "WBNB",
		Decimals:           18,
		IsActive:           true,
		Balance:            big.NewInt(12345),
		MinCollateralRatio: big.NewInt(15000),
		AuctionDiscount:    big.NewInt(1000),
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	info, err := c.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if info.Balance != nil {
		t.Errorf("Balance = %s, want nil", info.Balance)
	}
	if info.MinCollateralRatio != nil || info.AuctionDiscount != nil || info.IsActive {
		t.Errorf("registry fields leaked into the cache: %+v", info)
	}
}

func TestAssetCacheCorruptEntryBehavesLikeMiss(t *testing.T) {
	client, cleanup := testutil.StartRedis(t)
	t.Cleanup(cleanup)

	cfg := ConfigDefaults()
	c := NewAssetCacheWithClient(client, cfg, testutil.DiscardLogger())
	ctx := context.Background()
	token := testutil.Addr(0xc2)

	if err := client.Set(ctx, c.key(token), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seeding corrupt entry: %v", err)
	}

	info, err := c.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if info != nil {
		t.Errorf("Get = %+v, want nil for a corrupt entry", info)
	}

	// The corrupt entry is dropped so the next Put wins.
	if n, err := client.Exists(ctx, c.key(token)).Result(); err != nil || n != 0 {
		t.Errorf("Exists = %d, %v; want 0, nil", n, err)
	}
}
