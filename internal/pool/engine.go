package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"fixedpool/internal/derive"
	"fixedpool/internal/ledger"
	"fixedpool/internal/model"
	"fixedpool/internal/storage"
)

// Engine executes pool lifecycle operations as all-or-nothing requests
// against the ledger. Every operation validates its inputs and the pricing
// outcome first and only then submits one atomic transfer batch, so a failed
// request never leaves partial balance changes behind.
type Engine struct {
	ledger   *ledger.Ledger
	resolver *derive.Resolver
	gateway  *Gateway
	sink     storage.Storage
	logger   *zap.Logger
}

// NewEngine builds an Engine. The audit sink may be nil.
func NewEngine(l *ledger.Ledger, r *derive.Resolver, sink storage.Storage, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		ledger:   l,
		resolver: r,
		gateway:  NewGateway(l, r),
		sink:     sink,
		logger:   logger,
	}
}

// Init creates the pool keyed by the quote mint: the pool record, the fee
// marker account, and the custody accounts owned by the derived authorities.
// It is deliberately not idempotent; a second init for the same quote mint
// fails with ledger.ErrAccountExists so the rate can never be silently reset.
func (e *Engine) Init(ctx context.Context, caller, baseMint, quoteMint solana.PublicKey, fixedRate uint32) (model.Pool, error) {
	if err := ctx.Err(); err != nil {
		return model.Pool{}, err
	}
	if err := ValidateRate(fixedRate); err != nil {
		return model.Pool{}, err
	}
	if baseMint.Equals(quoteMint) {
		return model.Pool{}, ErrSameMint
	}
	// The base side is the chain-native asset; token/token pairs would need a
	// wrapped native mint, which this pool does not support.
	if !baseMint.Equals(ledger.NativeMint) {
		return model.Pool{}, ErrBaseMustBeNative
	}

	custody, err := e.gateway.ResolveCustody(quoteMint)
	if err != nil {
		return model.Pool{}, err
	}

	record := model.Pool{
		Rate:         fixedRate,
		BaseMint:     baseMint,
		QuoteMint:    quoteMint,
		QuoteCustody: custody.QuoteCustody,
		Bump:         custody.PoolBump,
	}

	if err := e.ledger.CreateAccount(custody.Pool, e.resolver.Program(), record.Encode()); err != nil {
		return model.Pool{}, fmt.Errorf("create pool account: %w", err)
	}
	if err := e.ledger.CreateAccount(custody.Fee, e.resolver.Program(), nil); err != nil {
		return model.Pool{}, fmt.Errorf("create fee account: %w", err)
	}

	e.ledger.RegisterCustody(custody.Pool)
	e.ledger.RegisterCustody(custody.Vault)
	e.ledger.RegisterCustody(custody.Fee)

	if _, err := e.ledger.CreateAssociatedAccountIfAbsent(custody.Pool, quoteMint); err != nil {
		return model.Pool{}, fmt.Errorf("create quote custody: %w", err)
	}
	if _, err := e.ledger.CreateAssociatedAccountIfAbsent(custody.Fee, quoteMint); err != nil {
		return model.Pool{}, fmt.Errorf("create fee custody: %w", err)
	}

	e.logger.Info("pool initialized",
		zap.String("pool", custody.Pool.String()),
		zap.String("quote_mint", quoteMint.String()),
		zap.Uint32("rate", fixedRate),
		zap.Uint8("bump", custody.PoolBump),
		zap.String("payer", caller.String()),
	)

	return record, nil
}

// Pool loads and decodes the pool record keyed by the quote mint, together
// with its resolved custody topology.
func (e *Engine) Pool(quoteMint solana.PublicKey) (model.Pool, Custody, error) {
	custody, err := e.gateway.ResolveCustody(quoteMint)
	if err != nil {
		return model.Pool{}, Custody{}, err
	}

	data, err := e.ledger.Account(custody.Pool, e.resolver.Program())
	if err != nil {
		return model.Pool{}, Custody{}, fmt.Errorf("load pool %s: %w", custody.Pool, err)
	}
	record, err := model.DecodePool(data)
	if err != nil {
		return model.Pool{}, Custody{}, fmt.Errorf("decode pool %s: %w", custody.Pool, err)
	}

	return record, custody, nil
}

// Liquidity reads the live custody balances. These are the only source of
// truth for how much the pool holds; nothing is cached on the record.
func (e *Engine) Liquidity(quoteMint solana.PublicKey) (baseLiquidity, quoteLiquidity uint64, err error) {
	_, custody, err := e.Pool(quoteMint)
	if err != nil {
		return 0, 0, err
	}
	return e.ledger.NativeBalance(custody.Vault), e.ledger.TokenBalance(custody.QuoteCustody), nil
}

// AddLiquidity moves caller funds into the pool custody. Amounts may be zero;
// (0, 0) is a valid no-op. Liquidity simply accumulates, there is no
// per-provider position tracking.
func (e *Engine) AddLiquidity(ctx context.Context, caller, quoteMint solana.PublicKey, baseAmount, quoteAmount uint64) error {
	record, custody, err := e.Pool(quoteMint)
	if err != nil {
		return err
	}

	var batch []ledger.Transfer
	if baseAmount > 0 {
		leg, err := e.gateway.TransferIn(custody, record, caller, record.BaseMint, baseAmount)
		if err != nil {
			return err
		}
		batch = append(batch, leg)
	}
	if quoteAmount > 0 {
		leg, err := e.gateway.TransferIn(custody, record, caller, record.QuoteMint, quoteAmount)
		if err != nil {
			return err
		}
		batch = append(batch, leg)
	}

	if err := e.ledger.Execute(ctx, batch); err != nil {
		return &TransferError{Op: "add_liquidity", Err: err}
	}

	e.audit("add_liquidity", custody, batch)
	e.logger.Info("liquidity added",
		zap.String("pool", custody.Pool.String()),
		zap.String("provider", caller.String()),
		zap.Uint64("base_amount", baseAmount),
		zap.Uint64("quote_amount", quoteAmount),
	)
	return nil
}

// Swap prices the request against the live custody balances and then performs
// exactly three transfers: the input into custody, the fee into fee custody,
// and the net payout back to the caller under the derived authority. The
// batch is atomic; any failing leg aborts the whole request.
func (e *Engine) Swap(ctx context.Context, caller, quoteMint, fromMint, toMint solana.PublicKey, fromAmount uint64) (Quote, error) {
	record, custody, err := e.Pool(quoteMint)
	if err != nil {
		return Quote{}, err
	}

	baseLiquidity := e.ledger.NativeBalance(custody.Vault)
	quoteLiquidity := e.ledger.TokenBalance(custody.QuoteCustody)

	quote, err := PreviewSwap(record, fromMint, toMint, fromAmount, baseLiquidity, quoteLiquidity)
	if err != nil {
		return Quote{}, err
	}

	in, err := e.gateway.TransferIn(custody, record, caller, fromMint, quote.FromAmount)
	if err != nil {
		return Quote{}, err
	}
	fee, err := e.gateway.TransferFee(custody, record, toMint, quote.Fee)
	if err != nil {
		return Quote{}, err
	}
	out, err := e.gateway.TransferOut(custody, record, caller, toMint, quote.NetAmount())
	if err != nil {
		return Quote{}, err
	}

	batch := []ledger.Transfer{in, fee, out}
	if err := e.ledger.Execute(ctx, batch); err != nil {
		return Quote{}, &TransferError{Op: "swap", Err: err}
	}

	e.audit("swap", custody, batch)
	e.logger.Info("swap executed",
		zap.String("pool", custody.Pool.String()),
		zap.String("trader", caller.String()),
		zap.String("direction", quote.Direction.String()),
		zap.Uint64("from_amount", quote.FromAmount),
		zap.Uint64("to_amount", quote.NetAmount()),
		zap.Uint64("fee", quote.Fee),
	)
	return quote, nil
}

// audit records executed transfers in the sink. The batch has already
// committed, so a sink failure is logged rather than surfaced.
func (e *Engine) audit(op string, custody Custody, batch []ledger.Transfer) {
	if e.sink == nil || len(batch) == 0 {
		return
	}

	executedAt := time.Now().UTC().Format(time.RFC3339Nano)
	records := make([]model.TransferRecord, 0, len(batch))
	for _, t := range batch {
		records = append(records, model.TransferRecord{
			Op:         op,
			Pool:       custody.Pool.String(),
			Mint:       t.Mint.String(),
			From:       t.From.String(),
			To:         t.To.String(),
			Amount:     t.Amount,
			Native:     t.Mint.Equals(ledger.NativeMint),
			Authorized: t.Capability != nil,
			ExecutedAt: executedAt,
		})
	}

	if err := e.sink.PutTransferBatch(records); err != nil {
		e.logger.Warn("audit sink write failed", zap.Error(err), zap.String("op", op))
	}
}
