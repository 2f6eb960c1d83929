// Package main implements the position desk CLI for the Leprechaun protocol
// on BSC. It lists the connected wallet's positions, runs the deposit,
// withdraw, mint, and close flows through the action coordinator, and exposes
// the testnet faucet. Optional integrations: PostgreSQL for the action
// journal, Redis for the shared asset metadata cache, SNS for event fan-out,
// and OTLP for telemetry.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/adapters/outbound/ethrpc"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/adapters/outbound/memory"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/adapters/outbound/postgres"
	redisadapter "github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/adapters/outbound/redis"
	snsadapter "github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/adapters/outbound/sns"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/adapters/outbound/telemetry"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/pkg/amount"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/pkg/config"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/pkg/env"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/pkg/multicall"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/services/coordinator"
)

const usage = `Usage: positions [-config FILE] COMMAND [args]

Commands:
  list                          list the wallet's active positions
  deposit  ID AMOUNT            add collateral to a position
  withdraw ID AMOUNT            remove collateral from a position
  close    ID                   close a position
  mint     SYNTH COLL AMOUNT RATIO   open a new position at RATIO percent
  faucet   TOKEN AMOUNT         mint testnet tokens to the wallet
  history  [LIMIT]              show recent action history

Environment:
  PRIVATE_KEY     hex signing key (required for write commands)
  DATABASE_URL    PostgreSQL URL for the durable action journal (optional)
  REDIS_ADDR      Redis address for the shared metadata cache (optional)
  SNS_TOPIC_ARN   SNS topic for action event fan-out (optional)
  OTLP_ENDPOINT   OTLP gRPC endpoint for metrics and traces (optional)
  RPC_RATE_LIMIT  read requests per second against the RPC endpoint
  RECEIPT_POLL_INTERVAL  receipt polling cadence, e.g. 1500ms
  LOG_LEVEL       debug, info, warn, error
`

func main() {
	configPath := flag.String("config", "config.yaml", "deployment config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))
	slog.SetDefault(logger)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, args); err != nil {
		logger.Error("command failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricConfig{
		ServiceName:    "leprechaun-positions",
		ServiceVersion: "0.1.0",
		Environment:    env.Get("ENVIRONMENT", "development"),
		OTLPEndpoint:   env.Get("OTLP_ENDPOINT", ""),
	})
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown failed", "error", err)
		}
	}()

	// Spans go out only when a collector is configured; the stdout fallback
	// would interleave with command output.
	if endpoint := env.Get("OTLP_ENDPOINT", ""); endpoint != "" {
		shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
			ServiceName:    "leprechaun-positions",
			ServiceVersion: "0.1.0",
			Environment:    env.Get("ENVIRONMENT", "development"),
			OTLPEndpoint:   endpoint,
			SampleRate:     1.0,
		})
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(shutdownCtx); err != nil {
				logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	client, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return fmt.Errorf("dialing RPC endpoint: %w", err)
	}
	defer client.Close()

	keyHex, err := env.Require("PRIVATE_KEY")
	if err != nil {
		return err
	}
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return fmt.Errorf("parsing PRIVATE_KEY: %w", err)
	}

	multicallAddr := multicall.DefaultAddress
	if cfg.Contracts.Multicall3 != "" {
		multicallAddr = common.HexToAddress(cfg.Contracts.Multicall3)
	}
	mc, err := multicall.NewClient(client, multicallAddr)
	if err != nil {
		return err
	}

	var cache outbound.AssetMetadataCache = memory.NewAssetCache()
	if addr := env.Get("REDIS_ADDR", ""); addr != "" {
		redisCfg := redisadapter.ConfigDefaults()
		redisCfg.Addr = addr
		redisCache, err := redisadapter.NewAssetCache(redisCfg, logger)
		if err != nil {
			return fmt.Errorf("creating redis cache: %w", err)
		}
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("pinging redis: %w", err)
		}
		cache = redisCache
	}

	readerCfg := ethrpc.ReaderConfigDefaults()
	readerCfg.Client = client
	readerCfg.Multicaller = mc
	readerCfg.RateLimit = rate.Limit(env.GetInt("RPC_RATE_LIMIT", int(readerCfg.RateLimit)))
	readerCfg.Factory = common.HexToAddress(cfg.Contracts.Factory)
	readerCfg.PositionManager = common.HexToAddress(cfg.Contracts.PositionManager)
	readerCfg.Oracle = common.HexToAddress(cfg.Contracts.Oracle)
	readerCfg.Lens = common.HexToAddress(cfg.Contracts.Lens)
	readerCfg.Cache = cache
	readerCfg.Logger = logger
	reader, err := ethrpc.NewReader(readerCfg)
	if err != nil {
		return err
	}

	writerCfg := ethrpc.WriterConfigDefaults()
	writerCfg.Backend = client
	writerCfg.PollInterval = env.GetDuration("RECEIPT_POLL_INTERVAL", writerCfg.PollInterval)
	writerCfg.PrivateKey = privateKey
	writerCfg.ChainID = big.NewInt(cfg.Chain.ChainID)
	writerCfg.PositionManager = common.HexToAddress(cfg.Contracts.PositionManager)
	writerCfg.Logger = logger
	writer, err := ethrpc.NewWriter(writerCfg)
	if err != nil {
		return err
	}

	var journal outbound.ActionJournal = memory.NewActionJournal()
	if dbURL := env.Get("DATABASE_URL", ""); dbURL != "" {
		pool, err := postgres.OpenPool(ctx, postgres.DefaultDBConfig(dbURL))
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pool.Close()
		pgJournal := postgres.NewActionJournal(pool, logger)
		if err := pgJournal.EnsureSchema(ctx); err != nil {
			return err
		}
		journal = pgJournal
	}

	var sink outbound.EventSink = memory.NewEventSink()
	if topicARN := env.Get("SNS_TOPIC_ARN", ""); topicARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(env.Get("AWS_REGION", "us-east-1")),
		)
		if err != nil {
			return fmt.Errorf("loading AWS config: %w", err)
		}
		snsSink, err := snsadapter.NewEventSink(awssns.NewFromConfig(awsCfg), snsadapter.Config{
			TopicARN: topicARN,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		sink = snsSink
	}
	defer sink.Close()

	metrics, err := telemetry.NewMetrics("leprechaun-positions")
	if err != nil {
		return fmt.Errorf("creating metrics recorder: %w", err)
	}

	coord, err := coordinator.New(coordinator.Config{
		Reader:             reader,
		Writer:             writer,
		Notifier:           memory.NewNotifier(logger),
		Owner:              writer.From(),
		Spender:            common.HexToAddress(cfg.Contracts.PositionManager),
		Journal:            journal,
		Sink:               sink,
		Metrics:            metrics,
		Debounce:           cfg.Debounce(),
		Confirmations:      cfg.Coordinator.Confirmations,
		CloseConfirmations: cfg.Coordinator.CloseConfirmations,
		TxURL:              cfg.Chain.TxURL,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	app := &cli{
		coord:   coord,
		reader:  reader,
		journal: journal,
		owner:   writer.From(),
		cfg:     cfg,
		logger:  logger,
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "list":
		return app.list(ctx)
	case "deposit":
		return app.deposit(ctx, rest)
	case "withdraw":
		return app.withdraw(ctx, rest)
	case "close":
		return app.close(ctx, rest)
	case "mint":
		return app.mint(ctx, rest)
	case "faucet":
		return app.faucet(ctx, rest)
	case "history":
		return app.history(ctx, rest)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// cli bundles what the subcommand handlers need.
type cli struct {
	coord   *coordinator.Coordinator
	reader  outbound.ProtocolReader
	journal outbound.ActionJournal
	owner   common.Address
	cfg     *config.Config
	logger  *slog.Logger
}

func (a *cli) list(ctx context.Context) error {
	positions, err := a.coord.Positions(ctx)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		fmt.Println("no active positions")
		return nil
	}

	for _, p := range positions {
		percent := entity.RatioPercent(p.CurrentRatio)
		fmt.Printf("#%s  %s/%s  collateral %s %s  minted %s %s  ratio %.2f%% (%s)\n",
			p.PositionID,
			p.SyntheticSymbol, p.CollateralSymbol,
			amount.FromMinorUnits(p.CollateralAmount, 18, 4), p.CollateralSymbol,
			amount.FromMinorUnits(p.MintedAmount, 18, 4), p.SyntheticSymbol,
			percent, entity.ClassifyRatio(percent),
		)
	}
	return nil
}

// openSession loads a fresh position snapshot plus collateral metadata and
// opens a coordinator session against it.
func (a *cli) openSession(ctx context.Context, idArg string) (*coordinator.Session, *entity.Position, error) {
	id, ok := new(big.Int).SetString(idArg, 10)
	if !ok {
		return nil, nil, fmt.Errorf("invalid position id %q", idArg)
	}

	pos, err := a.reader.Position(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("reading position %s: %w", id, err)
	}

	collateral, err := a.reader.AssetInfo(ctx, pos.CollateralAsset)
	if err != nil {
		return nil, nil, fmt.Errorf("reading collateral metadata: %w", err)
	}
	balance, err := a.reader.BalanceOf(ctx, pos.CollateralAsset, a.owner)
	if err != nil {
		return nil, nil, fmt.Errorf("reading collateral balance: %w", err)
	}
	collateral.Balance = balance

	session, err := a.coord.OpenSession(ctx, pos, collateral, nil)
	if err != nil {
		return nil, nil, err
	}
	return session, pos, nil
}

// awaitProjection waits out the debounce window so the preview lands before
// submission. The authoritative checks happen at submission time either way.
func (a *cli) awaitProjection(ctx context.Context, s *coordinator.Session) {
	deadline := time.Now().Add(a.cfg.Debounce() + 2*time.Second)
	for time.Now().Before(deadline) {
		if proj := s.Projection(); proj != nil {
			if !proj.Unknown {
				fmt.Printf("projected ratio: %.2f%% (%s)\n", proj.NewRatioPercent, proj.Band)
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (a *cli) deposit(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: deposit ID AMOUNT")
	}
	session, _, err := a.openSession(ctx, args[0])
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.SetDepositAmount(ctx, args[1]); err != nil {
		return err
	}
	a.awaitProjection(ctx, session)
	return session.SubmitDeposit(ctx)
}

func (a *cli) withdraw(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: withdraw ID AMOUNT")
	}
	session, _, err := a.openSession(ctx, args[0])
	if err != nil {
		return err
	}
	defer session.Close()

	if max, err := session.MaxWithdrawable(ctx); err == nil {
		fmt.Printf("max withdrawable: %s\n", amount.FromMinorUnits(max, 18, 4))
	}
	if err := session.SetWithdrawAmount(ctx, args[1]); err != nil {
		return err
	}
	a.awaitProjection(ctx, session)
	return session.SubmitWithdraw(ctx)
}

func (a *cli) close(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: close ID")
	}
	session, pos, err := a.openSession(ctx, args[0])
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("closing position #%s: burns %s %s, returns %s %s\n",
		pos.PositionID,
		amount.FromMinorUnits(pos.MintedAmount, 18, 4), pos.SyntheticSymbol,
		amount.FromMinorUnits(pos.CollateralAmount, 18, 4), pos.CollateralSymbol,
	)
	return session.SubmitClose(ctx)
}

func (a *cli) mint(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: mint SYNTH COLL AMOUNT RATIO")
	}
	if !common.IsHexAddress(args[0]) || !common.IsHexAddress(args[1]) {
		return fmt.Errorf("synthetic and collateral must be hex addresses")
	}
	var ratio float64
	if _, err := fmt.Sscanf(args[3], "%f", &ratio); err != nil {
		return fmt.Errorf("invalid target ratio %q", args[3])
	}

	synthetic, err := a.reader.AssetInfo(ctx, common.HexToAddress(args[0]))
	if err != nil {
		return fmt.Errorf("reading synthetic metadata: %w", err)
	}
	collateral, err := a.reader.AssetInfo(ctx, common.HexToAddress(args[1]))
	if err != nil {
		return fmt.Errorf("reading collateral metadata: %w", err)
	}
	balance, err := a.reader.BalanceOf(ctx, collateral.TokenAddress, a.owner)
	if err != nil {
		return fmt.Errorf("reading collateral balance: %w", err)
	}
	collateral.Balance = balance

	session, err := a.coord.OpenMintSession(ctx, synthetic, collateral, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.SetMintParameters(ctx, args[2], ratio); err != nil {
		return err
	}
	a.awaitProjection(ctx, session)
	if proj := session.Projection(); proj != nil && proj.MintAmount != nil {
		fmt.Printf("will mint %s %s\n",
			amount.FromMinorUnits(proj.MintAmount, synthetic.Decimals, 4), synthetic.Symbol)
	}
	return session.SubmitMint(ctx)
}

func (a *cli) faucet(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: faucet TOKEN AMOUNT")
	}
	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("token must be a hex address")
	}
	token := common.HexToAddress(args[0])

	info, err := a.reader.AssetInfo(ctx, token)
	if err != nil {
		return fmt.Errorf("reading token metadata: %w", err)
	}
	minor, err := amount.ParseToMinorUnits(args[1], info.Decimals)
	if err != nil {
		return err
	}
	return a.coord.MintMockTokens(ctx, token, minor)
}

func (a *cli) history(ctx context.Context, args []string) error {
	limit := 20
	if len(args) == 1 {
		if _, err := fmt.Sscanf(args[0], "%d", &limit); err != nil || limit <= 0 {
			return fmt.Errorf("invalid limit %q", args[0])
		}
	}

	events, err := a.journal.RecentByOwner(ctx, a.owner.Hex(), limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("no recorded actions")
		return nil
	}
	for _, e := range events {
		line := fmt.Sprintf("%s  %-9s %-9s tx %s",
			e.OccurredAt.Format(time.RFC3339), e.Action, e.Status, e.TxHash)
		if e.PositionID != nil {
			line += fmt.Sprintf("  position #%s", e.PositionID)
		}
		if e.Error != "" {
			line += "  " + e.Error
		}
		fmt.Println(line)
	}
	return nil
}
