package ethrpc

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/pkg/leprechaun/abis"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// TxBackend is the slice of the RPC client the writer needs.
// *ethclient.Client satisfies it.
type TxBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// WriterConfig holds the writer's collaborators and signing material.
type WriterConfig struct {
	Backend TxBackend

	// PrivateKey signs every submission. The derived address is the sender.
	PrivateKey *ecdsa.PrivateKey
	ChainID    *big.Int

	PositionManager common.Address

	// PollInterval is the receipt polling cadence while awaiting
	// confirmation.
	PollInterval time.Duration

	// GasLimitHeadroomPct is added on top of the gas estimate.
	GasLimitHeadroomPct int64

	Logger *slog.Logger
}

// WriterConfigDefaults returns reference tuning. BSC's 3-second blocks make
// a 1.5s poll reasonable.
func WriterConfigDefaults() WriterConfig {
	return WriterConfig{
		PollInterval:        1500 * time.Millisecond,
		GasLimitHeadroomPct: 20,
		Logger:              slog.Default(),
	}
}

// Compile-time check that Writer implements outbound.ProtocolWriter
var _ outbound.ProtocolWriter = (*Writer)(nil)

// Writer submits protocol transactions signed with a local key. Writes are
// never retried; a failed submission surfaces to the caller, who decides.
type Writer struct {
	cfg    WriterConfig
	from   common.Address
	signer types.Signer

	pmABI        *abi.ABI
	erc20ABI     *abi.ABI
	mockERC20ABI *abi.ABI
}

// NewWriter validates the config, derives the sender address, and creates a
// Writer.
func NewWriter(cfg WriterConfig) (*Writer, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("writer requires an RPC backend")
	}
	if cfg.PrivateKey == nil {
		return nil, fmt.Errorf("writer requires a signing key")
	}
	if cfg.ChainID == nil || cfg.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("writer requires a positive chain id")
	}
	if (cfg.PositionManager == common.Address{}) {
		return nil, fmt.Errorf("writer requires the position manager address")
	}
	defaults := WriterConfigDefaults()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.GasLimitHeadroomPct <= 0 {
		cfg.GasLimitHeadroomPct = defaults.GasLimitHeadroomPct
	}
	if cfg.Logger == nil {
		cfg.Logger = defaults.Logger
	}

	w := &Writer{
		cfg:    cfg,
		from:   crypto.PubkeyToAddress(cfg.PrivateKey.PublicKey),
		signer: types.LatestSignerForChainID(cfg.ChainID),
	}

	var err error
	if w.pmABI, err = abis.GetPositionManagerABI(); err != nil {
		return nil, fmt.Errorf("parsing position manager ABI: %w", err)
	}
	if w.erc20ABI, err = abis.GetERC20ABI(); err != nil {
		return nil, fmt.Errorf("parsing ERC-20 ABI: %w", err)
	}
	if w.mockERC20ABI, err = abis.GetMockERC20ABI(); err != nil {
		return nil, fmt.Errorf("parsing mock ERC-20 ABI: %w", err)
	}
	return w, nil
}

// From returns the sender address derived from the signing key.
func (w *Writer) From() common.Address {
	return w.from
}

// Approve grants the spender an allowance of exactly amount on the token.
func (w *Writer) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (outbound.TxHash, error) {
	return w.send(ctx, token, w.erc20ABI, "approve", spender, amount)
}

// DepositCollateral adds collateral to an open position.
func (w *Writer) DepositCollateral(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error) {
	return w.send(ctx, w.cfg.PositionManager, w.pmABI, "depositCollateral", positionID, amount)
}

// WithdrawCollateral removes collateral from an open position.
func (w *Writer) WithdrawCollateral(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error) {
	return w.send(ctx, w.cfg.PositionManager, w.pmABI, "withdrawCollateral", positionID, amount)
}

// ClosePosition burns the position's debt and returns its collateral.
func (w *Writer) ClosePosition(ctx context.Context, positionID *big.Int) (outbound.TxHash, error) {
	return w.send(ctx, w.cfg.PositionManager, w.pmABI, "closePosition", positionID)
}

// CreatePosition opens a new position at targetRatio basis points.
func (w *Writer) CreatePosition(ctx context.Context, synthetic, collateral common.Address, collateralAmount, targetRatio *big.Int) (outbound.TxHash, error) {
	return w.send(ctx, w.cfg.PositionManager, w.pmABI, "createPosition", synthetic, collateral, collateralAmount, targetRatio)
}

// MintMockTokens mints testnet collateral to the sender from a mock token.
func (w *Writer) MintMockTokens(ctx context.Context, token common.Address, amount *big.Int) (outbound.TxHash, error) {
	return w.send(ctx, token, w.mockERC20ABI, "mint", w.from, amount)
}

// AwaitConfirmation polls for the transaction receipt until the requested
// confirmation depth is reached or ctx is done.
func (w *Writer) AwaitConfirmation(ctx context.Context, hash outbound.TxHash, confirmations int) (*outbound.Receipt, error) {
	if confirmations < 1 {
		confirmations = 1
	}
	txHash := common.HexToHash(string(hash))

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.cfg.Backend.TransactionReceipt(ctx, txHash)
		switch {
		case errors.Is(err, ethereum.NotFound):
			// Not mined yet.
		case err != nil:
			w.cfg.Logger.Debug("receipt poll failed", "tx", hash, "error", err)
		default:
			head, err := w.cfg.Backend.BlockNumber(ctx)
			if err != nil {
				w.cfg.Logger.Debug("head poll failed", "tx", hash, "error", err)
				break
			}
			mined := receipt.BlockNumber.Uint64()
			if head >= mined && int(head-mined)+1 >= confirmations {
				return &outbound.Receipt{
					TxHash:      hash,
					BlockNumber: receipt.BlockNumber.Int64(),
					Reverted:    receipt.Status == types.ReceiptStatusFailed,
				}, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("awaiting confirmation of %s: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// send packs, signs, and submits one transaction. No retry: a duplicate
// submission could double-spend the action.
func (w *Writer) send(ctx context.Context, to common.Address, contractABI *abi.ABI, method string, args ...interface{}) (outbound.TxHash, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("packing %s: %w", method, err)
	}

	nonce, err := w.cfg.Backend.PendingNonceAt(ctx, w.from)
	if err != nil {
		return "", fmt.Errorf("reading nonce: %w", err)
	}
	gasPrice, err := w.cfg.Backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("reading gas price: %w", err)
	}
	gas, err := w.cfg.Backend.EstimateGas(ctx, ethereum.CallMsg{
		From: w.from,
		To:   &to,
		Data: data,
	})
	if err != nil {
		// Estimation failure usually means the call would revert.
		return "", fmt.Errorf("estimating gas for %s: %w", method, err)
	}
	gas += gas * uint64(w.cfg.GasLimitHeadroomPct) / 100

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, w.signer, w.cfg.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("signing %s: %w", method, err)
	}
	if err := w.cfg.Backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("sending %s: %w", method, err)
	}

	hash := outbound.TxHash(signed.Hash().Hex())
	w.cfg.Logger.Info("transaction submitted", "method", method, "to", to.Hex(), "tx", hash, "nonce", nonce)
	return hash, nil
}
