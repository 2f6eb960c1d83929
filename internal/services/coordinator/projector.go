package coordinator

import (
	"context"
	"fmt"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/pkg/amount"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// MaxTargetRatioBps is the upper UI bound for a mint target ratio (250%).
const MaxTargetRatioBps = 25000

// feeDenominatorBps is the protocol's fee basis (fee is quoted in bps of the
// withdrawn amount).
var feeDenominatorBps = big.NewInt(10000)

// Projection is the advisory preview of a not-yet-submitted action. It never
// gates rendering: when a query fails the projection is marked unknown and
// the authoritative check still happens at submission time.
type Projection struct {
	Action      entity.ActionType
	AmountMinor *big.Int

	// NewRatioPercent is the projected post-action collateralization ratio.
	NewRatioPercent float64
	Band            entity.RiskBand

	// FeeAmount is the protocol fee in collateral minor units (withdraw only).
	FeeAmount *big.Int

	// MintAmount and MaxMintable are synthetic minor units (mint only).
	MintAmount  *big.Int
	MaxMintable *big.Int
	// MinRequiredRatio is the protocol minimum for the pair, basis points
	// (mint only).
	MinRequiredRatio *big.Int

	// Unknown marks a projection whose oracle query failed. Prior displayed
	// state should be cleared, not trusted.
	Unknown bool
}

// projector computes action previews against the protocol reader.
type projector struct {
	reader outbound.ProtocolReader
}

// projectDeposit previews depositing amountMinor of collateral: the new ratio
// is (existing + incremental collateral USD) against the unchanged debt.
func (p *projector) projectDeposit(ctx context.Context, pos *entity.Position, collateral *entity.AssetInfo, amountMinor *big.Int) (*Projection, error) {
	if amountMinor == nil || amountMinor.Sign() <= 0 {
		return nil, fmt.Errorf("%w: deposit amount must be positive", amount.ErrInvalidAmount)
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "projection.deposit",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("position.id", pos.PositionID.String())),
	)
	defer span.End()

	proj := &Projection{Action: entity.ActionDeposit, AmountMinor: amountMinor, Band: entity.RiskBandUnknown}
	defer func() { span.SetAttributes(attribute.Bool("projection.unknown", proj.Unknown)) }()

	incrementalUsd, err := p.reader.UsdValue(ctx, pos.CollateralAsset, amountMinor, collateral.Decimals)
	if err != nil {
		proj.Unknown = true
		return proj, nil
	}

	newCollateralUsd := new(big.Int).Add(pos.CollateralUsdValue, incrementalUsd)
	proj.NewRatioPercent, proj.Unknown = ratioPercent(newCollateralUsd, pos.DebtUsdValue)
	if !proj.Unknown {
		proj.Band = entity.ClassifyRatio(proj.NewRatioPercent)
	}
	return proj, nil
}

// projectWithdraw previews withdrawing amountMinor of collateral: protocol
// fee on the withdrawn amount, and the ratio of the remaining collateral
// against the unchanged debt.
func (p *projector) projectWithdraw(ctx context.Context, pos *entity.Position, collateral *entity.AssetInfo, amountMinor *big.Int) (*Projection, error) {
	if amountMinor == nil || amountMinor.Sign() <= 0 {
		return nil, fmt.Errorf("%w: withdraw amount must be positive", amount.ErrInvalidAmount)
	}
	if amountMinor.Cmp(pos.CollateralAmount) > 0 {
		return nil, ErrAmountExceedsAvailable
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "projection.withdraw",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("position.id", pos.PositionID.String())),
	)
	defer span.End()

	proj := &Projection{Action: entity.ActionWithdraw, AmountMinor: amountMinor, Band: entity.RiskBandUnknown}
	defer func() { span.SetAttributes(attribute.Bool("projection.unknown", proj.Unknown)) }()

	feeBps, err := p.reader.ProtocolFee(ctx)
	if err != nil {
		proj.Unknown = true
		return proj, nil
	}
	fee := new(big.Int).Mul(amountMinor, feeBps)
	fee.Div(fee, feeDenominatorBps)
	proj.FeeAmount = fee

	remaining := new(big.Int).Sub(pos.CollateralAmount, amountMinor)
	remainingUsd, err := p.reader.UsdValue(ctx, pos.CollateralAsset, remaining, collateral.Decimals)
	if err != nil {
		proj.Unknown = true
		return proj, nil
	}

	proj.NewRatioPercent, proj.Unknown = ratioPercent(remainingUsd, pos.DebtUsdValue)
	if !proj.Unknown {
		proj.Band = entity.ClassifyRatio(proj.NewRatioPercent)
	}
	return proj, nil
}

// projectMint previews opening a position with collateralMinor at targetRatio
// basis points, reporting the synthetic amount minted and the protocol
// minimum for the pair.
func (p *projector) projectMint(ctx context.Context, synthetic, collateral *entity.AssetInfo, collateralMinor, targetRatio *big.Int) (*Projection, error) {
	if collateralMinor == nil || collateralMinor.Sign() <= 0 {
		return nil, fmt.Errorf("%w: collateral amount must be positive", amount.ErrInvalidAmount)
	}
	if targetRatio == nil || targetRatio.Cmp(big.NewInt(MaxTargetRatioBps)) > 0 {
		return nil, ErrTargetRatioOutOfRange
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "projection.mint",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("synthetic", synthetic.TokenAddress.Hex())),
	)
	defer span.End()

	proj := &Projection{Action: entity.ActionMint, AmountMinor: collateralMinor, Band: entity.RiskBandUnknown}
	defer func() { span.SetAttributes(attribute.Bool("projection.unknown", proj.Unknown)) }()

	preview, err := p.reader.MintPreview(ctx, synthetic.TokenAddress, collateral.TokenAddress, collateralMinor, targetRatio)
	if err != nil {
		proj.Unknown = true
		return proj, nil
	}
	if targetRatio.Cmp(preview.MinRequiredRatio) < 0 {
		return nil, fmt.Errorf("%w: %s below protocol minimum %s",
			ErrTargetRatioOutOfRange, targetRatio, preview.MinRequiredRatio)
	}

	proj.MintAmount = preview.MintAmount
	proj.MaxMintable = preview.MaxMintable
	proj.MinRequiredRatio = preview.MinRequiredRatio
	proj.NewRatioPercent = entity.RatioPercent(preview.EffectiveRatio)
	proj.Band = entity.ClassifyRatio(proj.NewRatioPercent)
	return proj, nil
}

// maxWithdrawable computes the collateral that can leave the position while
// keeping a 1% safety buffer above the required amount for the current debt.
func (p *projector) maxWithdrawable(ctx context.Context, pos *entity.Position) (*big.Int, error) {
	required, err := p.reader.RequiredCollateral(ctx, pos.SyntheticAsset, pos.CollateralAsset, pos.MintedAmount)
	if err != nil {
		return nil, fmt.Errorf("reading required collateral: %w", err)
	}
	if pos.CollateralAmount.Cmp(required) <= 0 {
		return big.NewInt(0), nil
	}
	buffered := new(big.Int).Mul(required, big.NewInt(10000))
	buffered.Div(buffered, big.NewInt(9900))
	max := new(big.Int).Sub(pos.CollateralAmount, buffered)
	if max.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return max, nil
}

// ratioPercent computes collateralUsd/debtUsd as a percentage with two
// implied decimals, matching the protocol's integer ratio convention. A zero
// or nil debt has no meaningful ratio.
func ratioPercent(collateralUsd, debtUsd *big.Int) (percent float64, unknown bool) {
	if collateralUsd == nil || debtUsd == nil || debtUsd.Sign() == 0 {
		return 0, true
	}
	bps := new(big.Int).Mul(collateralUsd, big.NewInt(10000))
	bps.Div(bps, debtUsd)
	percent, _ = new(big.Float).Quo(new(big.Float).SetInt(bps), big.NewFloat(100)).Float64()
	return percent, false
}
