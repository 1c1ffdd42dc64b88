package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fixedpool/internal/config"
	"fixedpool/internal/derive"
	"fixedpool/internal/ledger"
	"fixedpool/internal/pool"
	"fixedpool/internal/storage"
	"fixedpool/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "pool",
		Short:        "Fixed-rate liquidity pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a pool for a quote mint",
		RunE:  runInit,
	}
	initCmd.Flags().String("quote", "", "quote mint address")
	initCmd.Flags().String("base", ledger.NativeMint.String(), "base mint address (native)")
	initCmd.Flags().Uint32("rate", 0, "fixed rate, quote per base, scaled by 10^3")
	addCommonFlags(initCmd)
	root.AddCommand(initCmd)

	addLiquidityCmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Move base and quote liquidity into the pool custody",
		RunE:  runAddLiquidity,
	}
	addLiquidityCmd.Flags().String("quote", "", "quote mint address")
	addLiquidityCmd.Flags().Uint64("base-amount", 0, "base amount to deposit")
	addLiquidityCmd.Flags().Uint64("quote-amount", 0, "quote amount to deposit")
	addCommonFlags(addLiquidityCmd)
	root.AddCommand(addLiquidityCmd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one pool asset for the other at the fixed rate",
		RunE:  runSwap,
	}
	swapCmd.Flags().String("quote", "", "quote mint address")
	swapCmd.Flags().String("from", "", "mint to pay")
	swapCmd.Flags().String("to", "", "mint to receive")
	swapCmd.Flags().Uint64("amount", 0, "amount of the from mint")
	addCommonFlags(swapCmd)
	root.AddCommand(swapCmd)

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Price a swap without executing it",
		RunE:  runPreview,
	}
	previewCmd.Flags().String("quote", "", "quote mint address")
	previewCmd.Flags().String("from", "", "mint to pay")
	previewCmd.Flags().String("to", "", "mint to receive")
	previewCmd.Flags().Uint64("amount", 0, "amount of the from mint")
	addCommonFlags(previewCmd)
	root.AddCommand(previewCmd)

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Issue token supply to a wallet via the token ledger",
		RunE:  runMint,
	}
	mintCmd.Flags().String("mint", "", "mint address")
	mintCmd.Flags().String("to", "", "destination wallet")
	mintCmd.Flags().Uint64("amount", 0, "amount to issue")
	mintCmd.Flags().Bool("create", false, "create the mint if it does not exist")
	addCommonFlags(mintCmd)
	root.AddCommand(mintCmd)

	faucetCmd := &cobra.Command{
		Use:   "faucet",
		Short: "Credit native units to a wallet",
		RunE:  runFaucet,
	}
	faucetCmd.Flags().String("to", "", "destination wallet")
	faucetCmd.Flags().Uint64("amount", 0, "native amount to credit")
	addCommonFlags(faucetCmd)
	root.AddCommand(faucetCmd)

	balancesCmd := &cobra.Command{
		Use:   "balances",
		Short: "Show pool custody balances",
		RunE:  runBalances,
	}
	balancesCmd.Flags().String("quote", "", "quote mint address")
	addCommonFlags(balancesCmd)
	root.AddCommand(balancesCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("program-id", config.DefaultProgramID, "derivation namespace")
	cmd.Flags().String("ledger", "./data/ledger.json", "ledger snapshot path")
	cmd.Flags().String("out", "./data/transfers.jsonl", "transfer audit JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN (optional)")
	cmd.Flags().String("authority", "", "caller identity (base58)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// env bundles everything a command needs against one loaded ledger snapshot.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	led    *ledger.Ledger
	engine *pool.Engine
	pg     *postgres.Store
}

func newEnv(ctx context.Context, cmd *cobra.Command) (*env, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	program, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("parse program id: %w", err)
	}

	led := ledger.New(logger)
	if _, err := led.Load(cfg.Ledger); err != nil {
		return nil, err
	}

	var sink storage.Storage
	var pg *postgres.Store
	if cfg.PgDSN != "" {
		pg, err = postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		sink = pg
	} else {
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	resolver := derive.NewResolver(program)
	engine := pool.NewEngine(led, resolver, sink, logger)

	return &env{cfg: cfg, logger: logger, led: led, engine: engine, pg: pg}, nil
}

func (e *env) close() {
	if e.pg != nil {
		e.pg.Close()
	}
	e.logger.Sync()
}

func (e *env) save() error {
	return e.led.Save(e.cfg.Ledger)
}

func (e *env) authority() (solana.PublicKey, error) {
	if e.cfg.Authority == "" {
		return solana.PublicKey{}, fmt.Errorf("authority is required")
	}
	key, err := solana.PublicKeyFromBase58(e.cfg.Authority)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("parse authority: %w", err)
	}
	return key, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func pubkeyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("%s is required", name)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("parse %s: %w", name, err)
	}
	return key, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
