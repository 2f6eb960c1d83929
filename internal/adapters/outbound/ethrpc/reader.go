// Package ethrpc implements the protocol contract boundary against a live
// JSON-RPC endpoint using go-ethereum.
package ethrpc

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/pkg/leprechaun/abis"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/pkg/retry"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// ContractCaller is the slice of the RPC client the reader needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ReaderConfig holds the reader's collaborators and contract addresses.
type ReaderConfig struct {
	Client      ContractCaller
	Multicaller outbound.Multicaller

	Factory         common.Address
	PositionManager common.Address
	Oracle          common.Address
	Lens            common.Address

	// Cache is optional; only immutable token metadata goes through it.
	Cache outbound.AssetMetadataCache

	// RateLimit throttles outgoing reads for public RPC endpoints. Zero
	// disables throttling.
	RateLimit rate.Limit
	Burst     int

	Retry  retry.Policy
	Logger *slog.Logger
}

// ReaderConfigDefaults returns reference tuning for public BSC endpoints.
func ReaderConfigDefaults() ReaderConfig {
	return ReaderConfig{
		RateLimit: rate.Limit(20),
		Burst:     40,
		Retry:     retry.DefaultPolicy(),
		Logger:    slog.Default(),
	}
}

// Compile-time check that Reader implements outbound.ProtocolReader
var _ outbound.ProtocolReader = (*Reader)(nil)

// Reader is the RPC-backed ProtocolReader. Every read goes to the chain;
// nothing mutable is cached.
type Reader struct {
	cfg     ReaderConfig
	limiter *rate.Limiter

	factoryABI *abi.ABI
	pmABI      *abi.ABI
	oracleABI  *abi.ABI
	lensABI    *abi.ABI
	erc20ABI   *abi.ABI
}

// NewReader validates the config, parses the contract ABIs, and creates a
// Reader.
func NewReader(cfg ReaderConfig) (*Reader, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("reader requires an RPC client")
	}
	if cfg.Multicaller == nil {
		return nil, fmt.Errorf("reader requires a multicaller")
	}
	for name, addr := range map[string]common.Address{
		"factory":          cfg.Factory,
		"position manager": cfg.PositionManager,
		"oracle":           cfg.Oracle,
		"lens":             cfg.Lens,
	} {
		if (addr == common.Address{}) {
			return nil, fmt.Errorf("reader requires the %s address", name)
		}
	}
	defaults := ReaderConfigDefaults()
	if cfg.Retry.Attempts == 0 {
		cfg.Retry = defaults.Retry
	}
	if cfg.Logger == nil {
		cfg.Logger = defaults.Logger
	}

	r := &Reader{cfg: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RateLimit)
		}
		r.limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}

	var err error
	if r.factoryABI, err = abis.GetFactoryABI(); err != nil {
		return nil, fmt.Errorf("parsing factory ABI: %w", err)
	}
	if r.pmABI, err = abis.GetPositionManagerABI(); err != nil {
		return nil, fmt.Errorf("parsing position manager ABI: %w", err)
	}
	if r.oracleABI, err = abis.GetOracleInterfaceABI(); err != nil {
		return nil, fmt.Errorf("parsing oracle ABI: %w", err)
	}
	if r.lensABI, err = abis.GetLensABI(); err != nil {
		return nil, fmt.Errorf("parsing lens ABI: %w", err)
	}
	if r.erc20ABI, err = abis.GetERC20ABI(); err != nil {
		return nil, fmt.Errorf("parsing ERC-20 ABI: %w", err)
	}
	return r, nil
}

// call packs, executes, and unpacks one contract read with rate limiting and
// retry on transient failures.
func (r *Reader) call(ctx context.Context, to common.Address, contractABI *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}

	result, err := r.rawCall(ctx, to, data)
	if err != nil {
		return nil, fmt.Errorf("calling %s on %s: %w", method, to.Hex(), err)
	}

	unpacked, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", method, err)
	}
	return unpacked, nil
}

// ProtocolFee returns the factory's protocol fee in basis points.
func (r *Reader) ProtocolFee(ctx context.Context) (*big.Int, error) {
	out, err := r.call(ctx, r.cfg.Factory, r.factoryABI, "protocolFee")
	if err != nil {
		return nil, err
	}
	return asBigInt(out, 0, "protocolFee")
}

// EffectiveCollateralRatio returns the factory's minimum required ratio for
// the pair, basis points.
func (r *Reader) EffectiveCollateralRatio(ctx context.Context, synthetic, collateral common.Address) (*big.Int, error) {
	out, err := r.call(ctx, r.cfg.Factory, r.factoryABI, "getEffectiveCollateralRatio", synthetic, collateral)
	if err != nil {
		return nil, err
	}
	return asBigInt(out, 0, "getEffectiveCollateralRatio")
}

// UsdValue returns the oracle USD value of amount of the asset.
func (r *Reader) UsdValue(ctx context.Context, asset common.Address, amount *big.Int, decimals int) (*big.Int, error) {
	if decimals < 0 || decimals > 255 {
		return nil, fmt.Errorf("decimals out of range: %d", decimals)
	}
	out, err := r.call(ctx, r.cfg.Oracle, r.oracleABI, "getUsdValue", asset, amount, uint8(decimals))
	if err != nil {
		return nil, err
	}
	return asBigInt(out, 0, "getUsdValue")
}

// RequiredCollateral returns the collateral needed to back mintedAmount at
// the minimum ratio.
func (r *Reader) RequiredCollateral(ctx context.Context, synthetic, collateral common.Address, mintedAmount *big.Int) (*big.Int, error) {
	out, err := r.call(ctx, r.cfg.PositionManager, r.pmABI, "getRequiredCollateral", synthetic, collateral, mintedAmount)
	if err != nil {
		return nil, err
	}
	return asBigInt(out, 0, "getRequiredCollateral")
}

// MintPreview asks the lens what a mint at targetRatio would produce.
func (r *Reader) MintPreview(ctx context.Context, synthetic, collateral common.Address, collateralAmount, targetRatio *big.Int) (*outbound.MintPreview, error) {
	out, err := r.call(ctx, r.cfg.Lens, r.lensABI, "calculateMintAmountForTargetRatio", synthetic, collateral, collateralAmount, targetRatio)
	if err != nil {
		return nil, err
	}
	if len(out) != 4 {
		return nil, fmt.Errorf("calculateMintAmountForTargetRatio returned %d values, want 4", len(out))
	}
	preview := &outbound.MintPreview{}
	if preview.MintAmount, err = asBigInt(out, 0, "mintAmount"); err != nil {
		return nil, err
	}
	if preview.MaxMintable, err = asBigInt(out, 1, "maxMintable"); err != nil {
		return nil, err
	}
	if preview.EffectiveRatio, err = asBigInt(out, 2, "effectiveRatio"); err != nil {
		return nil, err
	}
	if preview.MinRequiredRatio, err = asBigInt(out, 3, "minRequiredRatio"); err != nil {
		return nil, err
	}
	return preview, nil
}

// BalanceOf returns the owner's ERC-20 balance.
func (r *Reader) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	out, err := r.call(ctx, token, r.erc20ABI, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return asBigInt(out, 0, "balanceOf")
}

// Allowance returns the (owner, token, spender) ERC-20 allowance.
func (r *Reader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	out, err := r.call(ctx, token, r.erc20ABI, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return asBigInt(out, 0, "allowance")
}

// lensPosition mirrors the lens PositionDetails tuple layout for unpacking.
type lensPosition struct {
	PositionId            *big.Int       `json:"positionId"`
	Owner                 common.Address `json:"owner"`
	SyntheticAsset        common.Address `json:"syntheticAsset"`
	SyntheticSymbol       string         `json:"syntheticSymbol"`
	CollateralAsset       common.Address `json:"collateralAsset"`
	CollateralSymbol      string         `json:"collateralSymbol"`
	CollateralAmount      *big.Int       `json:"collateralAmount"`
	MintedAmount          *big.Int       `json:"mintedAmount"`
	LastUpdateTimestamp   *big.Int       `json:"lastUpdateTimestamp"`
	IsActive              bool           `json:"isActive"`
	CurrentRatio          *big.Int       `json:"currentRatio"`
	RequiredRatio         *big.Int       `json:"requiredRatio"`
	IsUnderCollateralized bool           `json:"isUnderCollateralized"`
	CollateralUsdValue    *big.Int       `json:"collateralUsdValue"`
	DebtUsdValue          *big.Int       `json:"debtUsdValue"`
}

func (p *lensPosition) toEntity() *entity.Position {
	return &entity.Position{
		PositionID:            p.PositionId,
		Owner:                 p.Owner,
		SyntheticAsset:        p.SyntheticAsset,
		SyntheticSymbol:       p.SyntheticSymbol,
		CollateralAsset:       p.CollateralAsset,
		CollateralSymbol:      p.CollateralSymbol,
		CollateralAmount:      p.CollateralAmount,
		MintedAmount:          p.MintedAmount,
		LastUpdateTimestamp:   p.LastUpdateTimestamp,
		IsActive:              p.IsActive,
		CurrentRatio:          p.CurrentRatio,
		RequiredRatio:         p.RequiredRatio,
		IsUnderCollateralized: p.IsUnderCollateralized,
		CollateralUsdValue:    p.CollateralUsdValue,
		DebtUsdValue:          p.DebtUsdValue,
	}
}

// Position returns a fresh snapshot of one position from the lens.
func (r *Reader) Position(ctx context.Context, positionID *big.Int) (*entity.Position, error) {
	data, err := r.lensABI.Pack("getPosition", positionID)
	if err != nil {
		return nil, fmt.Errorf("packing getPosition: %w", err)
	}
	raw, err := r.rawCall(ctx, r.cfg.Lens, data)
	if err != nil {
		return nil, fmt.Errorf("calling getPosition: %w", err)
	}
	var details lensPosition
	if err := r.lensABI.UnpackIntoInterface(&details, "getPosition", raw); err != nil {
		return nil, fmt.Errorf("unpacking getPosition: %w", err)
	}
	return details.toEntity(), nil
}

// PositionsByOwner returns all of the owner's positions. The lens batches the
// per-position reads on chain, so this is a single call.
func (r *Reader) PositionsByOwner(ctx context.Context, owner common.Address) ([]*entity.Position, error) {
	data, err := r.lensABI.Pack("getUserPositions", owner)
	if err != nil {
		return nil, fmt.Errorf("packing getUserPositions: %w", err)
	}
	raw, err := r.rawCall(ctx, r.cfg.Lens, data)
	if err != nil {
		return nil, fmt.Errorf("calling getUserPositions: %w", err)
	}
	var details []lensPosition
	if err := r.lensABI.UnpackIntoInterface(&details, "getUserPositions", raw); err != nil {
		return nil, fmt.Errorf("unpacking getUserPositions: %w", err)
	}

	positions := make([]*entity.Position, 0, len(details))
	for i := range details {
		positions = append(positions, details[i].toEntity())
	}
	return positions, nil
}

// AssetInfo returns token metadata plus the factory registry parameters. The
// ERC-20 reads are batched through Multicall3; the immutable part is served
// from the cache when present.
func (r *Reader) AssetInfo(ctx context.Context, token common.Address) (*entity.AssetInfo, error) {
	info := &entity.AssetInfo{TokenAddress: token}

	cached := false
	if r.cfg.Cache != nil {
		hit, err := r.cfg.Cache.Get(ctx, token)
		if err != nil {
			r.cfg.Logger.Warn("asset metadata cache read failed", "token", token.Hex(), "error", err)
		} else if hit != nil {
			info.Name = hit.Name
			info.Symbol = hit.Symbol
			info.Decimals = hit.Decimals
			cached = true
		}
	}

	registryData, err := r.factoryABI.Pack("collateralAssets", token)
	if err != nil {
		return nil, fmt.Errorf("packing collateralAssets: %w", err)
	}
	calls := []outbound.Call{
		{Target: r.cfg.Factory, AllowFailure: true, CallData: registryData},
	}
	if !cached {
		for _, method := range []string{"decimals", "symbol", "name"} {
			callData, err := r.erc20ABI.Pack(method)
			if err != nil {
				return nil, fmt.Errorf("packing %s: %w", method, err)
			}
			calls = append(calls, outbound.Call{Target: token, AllowFailure: true, CallData: callData})
		}
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	results, err := r.cfg.Multicaller.Execute(ctx, calls, nil)
	if err != nil {
		return nil, fmt.Errorf("asset info multicall: %w", err)
	}
	if len(results) != len(calls) {
		return nil, fmt.Errorf("asset info multicall returned %d results, want %d", len(results), len(calls))
	}

	if results[0].Success && len(results[0].ReturnData) > 0 {
		registry, err := r.factoryABI.Unpack("collateralAssets", results[0].ReturnData)
		if err == nil && len(registry) == 4 {
			if v, ok := registry[1].(*big.Int); ok {
				info.MinCollateralRatio = v
			}
			if v, ok := registry[2].(*big.Int); ok {
				info.AuctionDiscount = v
			}
			if v, ok := registry[3].(bool); ok {
				info.IsActive = v
			}
		}
	}

	if !cached {
		if results[1].Success && len(results[1].ReturnData) > 0 {
			var decimals uint8
			if err := r.erc20ABI.UnpackIntoInterface(&decimals, "decimals", results[1].ReturnData); err == nil {
				info.Decimals = int(decimals)
			}
		}
		if results[2].Success && len(results[2].ReturnData) > 0 {
			var symbol string
			if err := r.erc20ABI.UnpackIntoInterface(&symbol, "symbol", results[2].ReturnData); err == nil {
				info.Symbol = symbol
			}
		}
		if results[3].Success && len(results[3].ReturnData) > 0 {
			var name string
			if err := r.erc20ABI.UnpackIntoInterface(&name, "name", results[3].ReturnData); err == nil {
				info.Name = name
			}
		}
		if r.cfg.Cache != nil && info.Symbol != "" {
			if err := r.cfg.Cache.Put(ctx, info); err != nil {
				r.cfg.Logger.Warn("asset metadata cache write failed", "token", token.Hex(), "error", err)
			}
		}
	}

	return info, nil
}

// rawCall executes one eth_call with rate limiting and retry, returning the
// raw return data.
func (r *Reader) rawCall(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	onRetry := func(attempt int, err error, delay time.Duration) {
		r.cfg.Logger.Debug("retrying contract read", "to", to.Hex(), "attempt", attempt, "delay", delay, "error", err)
	}
	return retry.Do(ctx, r.cfg.Retry, IsTransient, onRetry, func() ([]byte, error) {
		return r.cfg.Client.CallContract(ctx, msg, nil)
	})
}

func asBigInt(out []interface{}, idx int, name string) (*big.Int, error) {
	if idx >= len(out) {
		return nil, fmt.Errorf("%s: missing output %d", name, idx)
	}
	v, ok := out[idx].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: output %d is %T, want *big.Int", name, idx, out[idx])
	}
	return v, nil
}
