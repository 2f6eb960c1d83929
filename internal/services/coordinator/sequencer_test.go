package coordinator

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/testutil"
)

func TestSubmitDepositWithSufficientAllowance(t *testing.T) {
	env := newTestEnv(t)
	env.allow(testutil.BiStr("10000000000000000000"))
	env.writer.DepositCollateralFn = func(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error) {
		return "0xdeposit", nil
	}

	var refreshed int
	s, _, _ := openSession(t, env, func() { refreshed++ })
	if err := s.SetDepositAmount(context.Background(), "5"); err != nil {
		t.Fatalf("SetDepositAmount: %v", err)
	}

	if err := s.SubmitDeposit(context.Background()); err != nil {
		t.Fatalf("SubmitDeposit: %v", err)
	}

	if env.writer.ApproveCalls != 0 {
		t.Errorf("approval submitted despite sufficient allowance")
	}
	if env.writer.DepositCollateralCalls != 1 {
		t.Errorf("DepositCollateralCalls = %d, want 1", env.writer.DepositCollateralCalls)
	}
	if got := s.Phase(); got != PhaseConfirmed {
		t.Errorf("Phase = %v, want %v", got, PhaseConfirmed)
	}
	if refreshed != 1 {
		t.Errorf("onSuccess fired %d times, want 1", refreshed)
	}

	events := env.journal.All()
	if len(events) != 1 || events[0].Action != entity.ActionDeposit || events[0].Status != entity.ActionStatusConfirmed {
		t.Fatalf("journal = %+v, want one confirmed deposit", events)
	}
	if sunk := env.sink.Events(); len(sunk) != 1 {
		t.Errorf("sink has %d events, want 1", len(sunk))
	}
	if got := env.notificationsByLevel(outbound.NotificationSuccess); len(got) != 1 {
		t.Errorf("success notifications = %d, want 1", len(got))
	}
}

// A short allowance triggers an approval for exactly the required amount, and
// the approval fully confirms before the deposit is submitted.
func TestSubmitDepositApprovesFirst(t *testing.T) {
	env := newTestEnv(t)

	var mu sync.Mutex
	var order []string
	allowance := big.NewInt(0)

	env.reader.AllowanceFn = func(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
		mu.Lock()
		defer mu.Unlock()
		return new(big.Int).Set(allowance), nil
	}
	env.writer.ApproveFn = func(ctx context.Context, token, spender common.Address, v *big.Int) (outbound.TxHash, error) {
		mu.Lock()
		order = append(order, "approve")
		allowance = new(big.Int).Set(v)
		mu.Unlock()
		return "0xapprove", nil
	}
	env.writer.DepositCollateralFn = func(ctx context.Context, positionID, v *big.Int) (outbound.TxHash, error) {
		mu.Lock()
		order = append(order, "deposit")
		mu.Unlock()
		return "0xdeposit", nil
	}

	s, _, _ := openSession(t, env, nil)
	if err := s.SetDepositAmount(context.Background(), "5"); err != nil {
		t.Fatalf("SetDepositAmount: %v", err)
	}
	if err := s.SubmitDeposit(context.Background()); err != nil {
		t.Fatalf("SubmitDeposit: %v", err)
	}

	if len(order) != 2 || order[0] != "approve" || order[1] != "deposit" {
		t.Fatalf("order = %v, want [approve deposit]", order)
	}
	required := testutil.BiStr("5000000000000000000")
	if len(env.writer.ApprovedAmounts) != 1 || env.writer.ApprovedAmounts[0].Cmp(required) != 0 {
		t.Fatalf("approved %v, want exactly %s", env.writer.ApprovedAmounts, required)
	}

	// The confirmed approval satisfies the gate; a second deposit of the same
	// amount needs no further approval.
	if err := s.SetDepositAmount(context.Background(), "5"); err != nil {
		t.Fatalf("SetDepositAmount: %v", err)
	}
	if err := s.SubmitDeposit(context.Background()); err != nil {
		t.Fatalf("second SubmitDeposit: %v", err)
	}
	if env.writer.ApproveCalls != 1 {
		t.Errorf("ApproveCalls = %d, want 1 (gate is idempotent)", env.writer.ApproveCalls)
	}
}

func TestSubmitDepositAllowanceNeverLoads(t *testing.T) {
	env := newTestEnv(t)
	env.reader.AllowanceFn = func(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
		return nil, errors.New("rpc down")
	}

	s, _, _ := openSession(t, env, nil)
	if err := s.SetDepositAmount(context.Background(), "5"); err != nil {
		t.Fatalf("SetDepositAmount: %v", err)
	}

	err := s.SubmitDeposit(context.Background())
	if !errors.Is(err, ErrAllowanceNotLoaded) {
		t.Fatalf("err = %v, want ErrAllowanceNotLoaded", err)
	}
	if env.writer.DepositCollateralCalls != 0 {
		t.Errorf("deposit submitted without a loaded allowance")
	}
	if got := s.Phase(); got != PhaseFailed {
		t.Errorf("Phase = %v, want %v", got, PhaseFailed)
	}
}

func TestSubmitDepositRevertedApproval(t *testing.T) {
	env := newTestEnv(t)
	env.allow(big.NewInt(0))
	env.writer.ApproveFn = func(ctx context.Context, token, spender common.Address, v *big.Int) (outbound.TxHash, error) {
		return "0xapprove", nil
	}
	env.writer.AwaitConfirmationFn = func(ctx context.Context, hash outbound.TxHash, confirmations int) (*outbound.Receipt, error) {
		return &outbound.Receipt{TxHash: hash, BlockNumber: 1, Reverted: true}, nil
	}

	s, _, _ := openSession(t, env, nil)
	if err := s.SetDepositAmount(context.Background(), "5"); err != nil {
		t.Fatalf("SetDepositAmount: %v", err)
	}

	if err := s.SubmitDeposit(context.Background()); err == nil {
		t.Fatal("reverted approval did not fail the submission")
	}
	if env.writer.DepositCollateralCalls != 0 {
		t.Errorf("deposit submitted after a reverted approval")
	}
}

// A second submission while one is in flight is rejected without a second
// write.
func TestDuplicateSubmissionGuard(t *testing.T) {
	env := newTestEnv(t)
	env.allow(testutil.BiStr("10000000000000000000"))

	started := make(chan struct{})
	release := make(chan struct{})
	env.writer.DepositCollateralFn = func(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error) {
		close(started)
		<-release
		return "0xdeposit", nil
	}

	s, _, _ := openSession(t, env, nil)
	if err := s.SetDepositAmount(context.Background(), "5"); err != nil {
		t.Fatalf("SetDepositAmount: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.SubmitDeposit(context.Background()) }()
	<-started

	if err := s.SubmitDeposit(context.Background()); !errors.Is(err, ErrSubmissionInProgress) {
		t.Fatalf("concurrent submit: err = %v, want ErrSubmissionInProgress", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if env.writer.DepositCollateralCalls != 1 {
		t.Errorf("DepositCollateralCalls = %d, want 1", env.writer.DepositCollateralCalls)
	}
}

// A failed submission resets to a retryable state with the entered amount
// intact, and the retry uses a fresh transaction.
func TestFailedSubmissionAllowsRetry(t *testing.T) {
	env := newTestEnv(t)
	env.allow(testutil.BiStr("10000000000000000000"))
	env.writer.DepositCollateralFn = func(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error) {
		return "0xdeposit", nil
	}

	reverted := true
	env.writer.AwaitConfirmationFn = func(ctx context.Context, hash outbound.TxHash, confirmations int) (*outbound.Receipt, error) {
		return &outbound.Receipt{TxHash: hash, BlockNumber: 1, Reverted: reverted}, nil
	}

	s, _, _ := openSession(t, env, nil)
	if err := s.SetDepositAmount(context.Background(), "5"); err != nil {
		t.Fatalf("SetDepositAmount: %v", err)
	}

	if err := s.SubmitDeposit(context.Background()); err == nil {
		t.Fatal("reverted deposit did not return an error")
	}
	if got := s.Phase(); got != PhaseFailed {
		t.Fatalf("Phase = %v, want %v", got, PhaseFailed)
	}

	reverted = false
	if err := s.SubmitDeposit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := s.Phase(); got != PhaseConfirmed {
		t.Errorf("Phase = %v, want %v", got, PhaseConfirmed)
	}

	events := env.journal.All()
	if len(events) != 2 || events[0].Status != entity.ActionStatusFailed || events[1].Status != entity.ActionStatusConfirmed {
		t.Fatalf("journal = %+v, want failed then confirmed", events)
	}
}

// Terminal side effects fire at most once per submission even when the
// confirmation event is delivered twice.
func TestTerminalSideEffectsFireOnce(t *testing.T) {
	env := newTestEnv(t)
	env.allow(big.NewInt(0))

	var refreshed int
	s, _, _ := openSession(t, env, func() { refreshed++ })

	sub, err := s.begin(entity.ActionDeposit, 1)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	sub.hash = "0xdeposit"

	s.finish(context.Background(), sub, big.NewInt(1), nil)
	s.finish(context.Background(), sub, big.NewInt(1), nil)

	if got := len(env.journal.All()); got != 1 {
		t.Errorf("journal has %d events, want 1", got)
	}
	if got := len(env.sink.Events()); got != 1 {
		t.Errorf("sink has %d events, want 1", got)
	}
	if got := env.notificationsByLevel(outbound.NotificationSuccess); len(got) != 1 {
		t.Errorf("success notifications = %d, want 1", len(got))
	}
	if refreshed != 1 {
		t.Errorf("onSuccess fired %d times, want 1", refreshed)
	}
}

// Closing the dialog mid-flight suppresses notifications and the refresh
// callback but still writes the journal and sink records.
func TestClosedSessionSuppressesUISideEffects(t *testing.T) {
	env := newTestEnv(t)
	env.allow(testutil.BiStr("10000000000000000000"))
	env.writer.DepositCollateralFn = func(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error) {
		return "0xdeposit", nil
	}

	var refreshed int
	s, _, _ := openSession(t, env, func() { refreshed++ })

	env.writer.AwaitConfirmationFn = func(ctx context.Context, hash outbound.TxHash, confirmations int) (*outbound.Receipt, error) {
		s.Close()
		return &outbound.Receipt{TxHash: hash, BlockNumber: 1}, nil
	}

	if err := s.SetDepositAmount(context.Background(), "5"); err != nil {
		t.Fatalf("SetDepositAmount: %v", err)
	}
	if err := s.SubmitDeposit(context.Background()); err != nil {
		t.Fatalf("SubmitDeposit: %v", err)
	}

	if got := len(env.journal.All()); got != 1 {
		t.Errorf("journal has %d events, want 1 (records survive close)", got)
	}
	if got := env.notificationsByLevel(outbound.NotificationSuccess); len(got) != 0 {
		t.Errorf("success notifications = %d, want 0 after close", len(got))
	}
	if refreshed != 0 {
		t.Errorf("onSuccess fired into a closed dialog")
	}
}

func TestSubmitWithdrawRevalidatesRatio(t *testing.T) {
	env := newTestEnv(t)
	env.allow(big.NewInt(0))
	env.reader.UsdValueFn = identityOracle
	env.reader.ProtocolFeeFn = func(ctx context.Context) (*big.Int, error) { return big.NewInt(100), nil }
	env.reader.EffectiveCollateralRatioFn = func(ctx context.Context, synthetic, collateral common.Address) (*big.Int, error) {
		return big.NewInt(17000), nil
	}

	s, _, _ := openSession(t, env, nil)

	// Withdrawing 800 of 1000 leaves 200/500 = 40%, far below 170%.
	if err := s.SetWithdrawAmount(context.Background(), "800"); err != nil {
		t.Fatalf("SetWithdrawAmount: %v", err)
	}
	err := s.SubmitWithdraw(context.Background())
	if !errors.Is(err, ErrRatioBelowMinimum) {
		t.Fatalf("err = %v, want ErrRatioBelowMinimum", err)
	}
	if env.writer.WithdrawCollateralCalls != 0 {
		t.Errorf("withdraw submitted despite ratio violation")
	}
	if got := s.Phase(); got != PhaseIdle {
		t.Errorf("Phase = %v, want %v after local rejection", got, PhaseIdle)
	}

	// Withdrawing 100 leaves 900/500 = 180%, above the minimum.
	env.writer.WithdrawCollateralFn = func(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error) {
		return "0xwithdraw", nil
	}
	if err := s.SetWithdrawAmount(context.Background(), "100"); err != nil {
		t.Fatalf("SetWithdrawAmount: %v", err)
	}
	if err := s.SubmitWithdraw(context.Background()); err != nil {
		t.Fatalf("SubmitWithdraw: %v", err)
	}
	if env.writer.ApproveCalls != 0 {
		t.Errorf("withdraw required an approval")
	}
}

func TestSubmitCloseChecksSyntheticBalance(t *testing.T) {
	env := newTestEnv(t)
	env.allow(big.NewInt(0))

	s, pos, _ := openSession(t, env, nil)

	// One minor unit short of the minted debt.
	short := new(big.Int).Sub(pos.MintedAmount, big.NewInt(1))
	env.reader.BalanceOfFn = func(ctx context.Context, token, owner common.Address) (*big.Int, error) {
		return new(big.Int).Set(short), nil
	}

	err := s.SubmitClose(context.Background())
	if !errors.Is(err, ErrInsufficientSyntheticBalance) {
		t.Fatalf("err = %v, want ErrInsufficientSyntheticBalance", err)
	}
	if env.writer.ClosePositionCalls != 0 {
		t.Errorf("close submitted with insufficient balance")
	}

	// Exact balance closes, with the deeper close confirmation depth.
	env.reader.BalanceOfFn = func(ctx context.Context, token, owner common.Address) (*big.Int, error) {
		return new(big.Int).Set(pos.MintedAmount), nil
	}
	env.writer.ClosePositionFn = func(ctx context.Context, positionID *big.Int) (outbound.TxHash, error) {
		return "0xclose", nil
	}
	var gotConfirmations int
	env.writer.AwaitConfirmationFn = func(ctx context.Context, hash outbound.TxHash, confirmations int) (*outbound.Receipt, error) {
		gotConfirmations = confirmations
		return &outbound.Receipt{TxHash: hash, BlockNumber: 1}, nil
	}

	if err := s.SubmitClose(context.Background()); err != nil {
		t.Fatalf("SubmitClose: %v", err)
	}
	if gotConfirmations != env.c.cfg.CloseConfirmations {
		t.Errorf("confirmations = %d, want %d", gotConfirmations, env.c.cfg.CloseConfirmations)
	}
}

func TestSubmitMint(t *testing.T) {
	env := newTestEnv(t)
	env.allow(testutil.BiStr("100000000000000000000"))

	synthetic := testutil.NewTestAsset(testutil.Addr(0x51), "lUSD")
	collateral := testutil.NewTestAsset(testutil.Addr(0xc0), "WBNB")
	s, err := env.c.OpenMintSession(context.Background(), synthetic, collateral, nil)
	if err != nil {
		t.Fatalf("OpenMintSession: %v", err)
	}
	defer s.Close()

	var gotCollateral, gotRatio *big.Int
	env.writer.CreatePositionFn = func(ctx context.Context, syn, col common.Address, collateralAmount, targetRatio *big.Int) (outbound.TxHash, error) {
		if syn != synthetic.TokenAddress || col != collateral.TokenAddress {
			t.Errorf("CreatePosition pair = (%s, %s)", syn, col)
		}
		gotCollateral = collateralAmount
		gotRatio = targetRatio
		return "0xcreate", nil
	}

	if err := s.SetMintParameters(context.Background(), "10", 200); err != nil {
		t.Fatalf("SetMintParameters: %v", err)
	}
	if err := s.SubmitMint(context.Background()); err != nil {
		t.Fatalf("SubmitMint: %v", err)
	}

	if gotCollateral.Cmp(testutil.BiStr("10000000000000000000")) != 0 {
		t.Errorf("collateralAmount = %s, want 10e18", gotCollateral)
	}
	if gotRatio.Cmp(big.NewInt(20000)) != 0 {
		t.Errorf("targetRatio = %s, want 20000", gotRatio)
	}
}

func TestSubmitWithoutAmount(t *testing.T) {
	env := newTestEnv(t)
	env.allow(big.NewInt(0))
	s, _, _ := openSession(t, env, nil)

	if err := s.SubmitDeposit(context.Background()); err == nil {
		t.Fatal("SubmitDeposit accepted an empty form")
	}
	if err := s.SubmitWithdraw(context.Background()); err == nil {
		t.Fatal("SubmitWithdraw accepted an empty form")
	}
}
