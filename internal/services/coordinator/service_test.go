package coordinator

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/adapters/outbound/memory"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/testutil"
)

// testEnv bundles a coordinator with its mock collaborators.
type testEnv struct {
	reader   *testutil.MockProtocolReader
	writer   *testutil.MockProtocolWriter
	notifier *memory.Notifier
	journal  *memory.ActionJournal
	sink     *memory.EventSink
	owner    common.Address
	spender  common.Address
	c        *Coordinator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		reader:   testutil.NewMockProtocolReader(),
		writer:   testutil.NewMockProtocolWriter(),
		notifier: memory.NewNotifier(nil),
		journal:  memory.NewActionJournal(),
		sink:     memory.NewEventSink(),
		owner:    testutil.Addr(0x01),
		spender:  testutil.Addr(0x02),
	}

	cfg := ConfigDefaults()
	cfg.Reader = env.reader
	cfg.Writer = env.writer
	cfg.Notifier = env.notifier
	cfg.Journal = env.journal
	cfg.Sink = env.sink
	cfg.Metrics = memory.NewNopMetrics()
	cfg.Owner = env.owner
	cfg.Spender = env.spender
	cfg.Debounce = 50 * time.Millisecond
	cfg.Logger = testutil.DiscardLogger()

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	env.c = c
	return env
}

// allow sets a fixed allowance on the mock reader.
func (e *testEnv) allow(v *big.Int) {
	e.reader.AllowanceFn = func(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
		return new(big.Int).Set(v), nil
	}
}

func (e *testEnv) notificationsByLevel(level outbound.NotificationLevel) []outbound.Notification {
	var out []outbound.Notification
	for _, n := range e.notifier.Notifications() {
		if n.Level == level {
			out = append(out, n)
		}
	}
	return out
}

func TestNewRequiresCollaborators(t *testing.T) {
	cfg := ConfigDefaults()
	cfg.Spender = testutil.Addr(0x02)
	if _, err := New(cfg); err == nil {
		t.Fatal("New accepted a config with no reader")
	}

	cfg.Reader = testutil.NewMockProtocolReader()
	cfg.Writer = testutil.NewMockProtocolWriter()
	cfg.Notifier = memory.NewNotifier(nil)
	cfg.Spender = common.Address{}
	if _, err := New(cfg); err == nil {
		t.Fatal("New accepted a zero spender")
	}
}

func TestOpenSessionRejectsInactivePosition(t *testing.T) {
	env := newTestEnv(t)
	env.allow(big.NewInt(0))

	pos := testutil.NewTestPosition(1, env.owner)
	pos.IsActive = false
	collateral := testutil.NewTestAsset(pos.CollateralAsset, "WBNB")

	_, err := env.c.OpenSession(context.Background(), pos, collateral, nil)
	if !errors.Is(err, ErrPositionNotActionable) {
		t.Fatalf("err = %v, want ErrPositionNotActionable", err)
	}
}

func TestOpenSessionRejectsBadMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.allow(big.NewInt(0))

	pos := testutil.NewTestPosition(1, env.owner)
	collateral := testutil.NewTestAsset(pos.CollateralAsset, "WBNB")
	collateral.Symbol = ""

	if _, err := env.c.OpenSession(context.Background(), pos, collateral, nil); err == nil {
		t.Fatal("OpenSession accepted collateral without a symbol")
	}
}

func TestOpenSessionLoadsAllowance(t *testing.T) {
	env := newTestEnv(t)
	env.allow(big.NewInt(777))

	pos := testutil.NewTestPosition(1, env.owner)
	collateral := testutil.NewTestAsset(pos.CollateralAsset, "WBNB")

	s, err := env.c.OpenSession(context.Background(), pos, collateral, nil)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	defer s.Close()

	if got := s.Allowance(); got == nil || got.Cmp(big.NewInt(777)) != 0 {
		t.Errorf("Allowance = %v, want 777", got)
	}
}

// A failed allowance read must not fail session open; the gate blocks later
// until RefreshAllowance succeeds.
func TestOpenSessionSurvivesAllowanceReadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.reader.AllowanceFn = func(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
		return nil, errors.New("rpc down")
	}

	pos := testutil.NewTestPosition(1, env.owner)
	collateral := testutil.NewTestAsset(pos.CollateralAsset, "WBNB")

	s, err := env.c.OpenSession(context.Background(), pos, collateral, nil)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	defer s.Close()

	if got := s.Allowance(); got != nil {
		t.Errorf("Allowance = %v, want nil (not loaded)", got)
	}
}

func TestPositionsFiltersInactive(t *testing.T) {
	env := newTestEnv(t)

	active := testutil.NewTestPosition(1, env.owner)
	inactive := testutil.NewTestPosition(2, env.owner)
	inactive.IsActive = false
	env.reader.PositionsByOwnerFn = func(ctx context.Context, owner common.Address) ([]*entity.Position, error) {
		return []*entity.Position{active, inactive}, nil
	}

	got, err := env.c.Positions(context.Background())
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(got) != 1 || got[0].PositionID.Cmp(active.PositionID) != 0 {
		t.Fatalf("Positions returned %d entries, want only the active one", len(got))
	}
}

func TestMintMockTokens(t *testing.T) {
	env := newTestEnv(t)
	token := testutil.Addr(0xc0)
	amountMinor := testutil.BiStr("1000000000000000000000")

	env.writer.MintMockTokensFn = func(ctx context.Context, tok common.Address, v *big.Int) (outbound.TxHash, error) {
		if tok != token || v.Cmp(amountMinor) != 0 {
			t.Errorf("MintMockTokens(%s, %s), want (%s, %s)", tok, v, token, amountMinor)
		}
		return "0xfaucet", nil
	}

	if err := env.c.MintMockTokens(context.Background(), token, amountMinor); err != nil {
		t.Fatalf("MintMockTokens: %v", err)
	}

	events := env.journal.All()
	if len(events) != 1 {
		t.Fatalf("journal has %d events, want 1", len(events))
	}
	if events[0].Action != entity.ActionMockMint || events[0].Status != entity.ActionStatusConfirmed {
		t.Errorf("journal event = %+v", events[0])
	}
	if got := env.notificationsByLevel(outbound.NotificationSuccess); len(got) != 1 {
		t.Errorf("success notifications = %d, want 1", len(got))
	}
}

func TestMintMockTokensRejectsNonPositive(t *testing.T) {
	env := newTestEnv(t)
	if err := env.c.MintMockTokens(context.Background(), testutil.Addr(0xc0), big.NewInt(0)); err == nil {
		t.Fatal("accepted a zero faucet amount")
	}
	if env.writer.MintMockTokensCalls != 0 {
		t.Errorf("faucet write issued for invalid amount")
	}
}
