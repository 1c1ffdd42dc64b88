package pool

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"fixedpool/internal/derive"
	"fixedpool/internal/ledger"
)

type testEnv struct {
	engine    *Engine
	ledger    *ledger.Ledger
	quoteMint solana.PublicKey
	provider  solana.PublicKey
	trader    solana.PublicKey
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	led := ledger.New(nil)
	resolver := derive.NewResolver(solana.NewWallet().PublicKey())
	engine := NewEngine(led, resolver, nil, nil)

	quoteMint := solana.NewWallet().PublicKey()
	mintAuthority := solana.NewWallet().PublicKey()
	if err := led.CreateMint(quoteMint, mintAuthority); err != nil {
		t.Fatalf("create mint: %v", err)
	}

	provider := solana.NewWallet().PublicKey()
	trader := solana.NewWallet().PublicKey()
	for _, wallet := range []solana.PublicKey{provider, trader} {
		led.Credit(wallet, 1_000_000)
		ata, err := led.CreateAssociatedAccountIfAbsent(wallet, quoteMint)
		if err != nil {
			t.Fatalf("create ata: %v", err)
		}
		if err := led.MintTo(quoteMint, ata, mintAuthority, 1_000_000); err != nil {
			t.Fatalf("mint to: %v", err)
		}
	}

	return &testEnv{
		engine:    engine,
		ledger:    led,
		quoteMint: quoteMint,
		provider:  provider,
		trader:    trader,
	}
}

func (te *testEnv) initPool(t *testing.T, rate uint32) Custody {
	t.Helper()
	_, err := te.engine.Init(context.Background(), te.provider, ledger.NativeMint, te.quoteMint, rate)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	_, custody, err := te.engine.Pool(te.quoteMint)
	if err != nil {
		t.Fatalf("load pool: %v", err)
	}
	return custody
}

func (te *testEnv) quoteBalance(t *testing.T, owner solana.PublicKey) uint64 {
	t.Helper()
	ata, err := te.ledger.AssociatedAccount(owner, te.quoteMint)
	if err != nil {
		t.Fatalf("associated account: %v", err)
	}
	return te.ledger.TokenBalance(ata)
}

func TestInitRejectsBadRate(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	if _, err := te.engine.Init(ctx, te.provider, ledger.NativeMint, te.quoteMint, 0); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("rate 0: expected ErrInvalidRate, got %v", err)
	}
	if _, err := te.engine.Init(ctx, te.provider, ledger.NativeMint, te.quoteMint, MaxRate+1); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("rate above max: expected ErrInvalidRate, got %v", err)
	}
}

func TestInitRejectsBadPair(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	if _, err := te.engine.Init(ctx, te.provider, te.quoteMint, te.quoteMint, 10_000); !errors.Is(err, ErrSameMint) {
		t.Fatalf("expected ErrSameMint, got %v", err)
	}
	other := solana.NewWallet().PublicKey()
	if _, err := te.engine.Init(ctx, te.provider, other, te.quoteMint, 10_000); !errors.Is(err, ErrBaseMustBeNative) {
		t.Fatalf("expected ErrBaseMustBeNative, got %v", err)
	}
}

func TestInitIsNotIdempotent(t *testing.T) {
	te := newTestEnv(t)
	te.initPool(t, 10_000)

	_, err := te.engine.Init(context.Background(), te.provider, ledger.NativeMint, te.quoteMint, 20_000)
	if !errors.Is(err, ledger.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	// The original rate must survive the attempted re-init.
	record, _, err := te.engine.Pool(te.quoteMint)
	if err != nil {
		t.Fatalf("load pool: %v", err)
	}
	if record.Rate != 10_000 {
		t.Fatalf("rate was reset to %d", record.Rate)
	}
}

func TestAddLiquidityAccumulates(t *testing.T) {
	te := newTestEnv(t)
	te.initPool(t, 10_000)
	ctx := context.Background()

	if err := te.engine.AddLiquidity(ctx, te.provider, te.quoteMint, 100_000, 200_000); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	if err := te.engine.AddLiquidity(ctx, te.provider, te.quoteMint, 50_000, 0); err != nil {
		t.Fatalf("second add: %v", err)
	}

	base, quote, err := te.engine.Liquidity(te.quoteMint)
	if err != nil {
		t.Fatalf("liquidity: %v", err)
	}
	if base != 150_000 || quote != 200_000 {
		t.Fatalf("liquidity mismatch: base=%d quote=%d", base, quote)
	}
	if got := te.ledger.NativeBalance(te.provider); got != 1_000_000-150_000 {
		t.Fatalf("provider native balance: %d", got)
	}
	if got := te.quoteBalance(t, te.provider); got != 1_000_000-200_000 {
		t.Fatalf("provider quote balance: %d", got)
	}
}

func TestAddLiquidityZeroIsNoop(t *testing.T) {
	te := newTestEnv(t)
	custody := te.initPool(t, 10_000)

	if err := te.engine.AddLiquidity(context.Background(), te.provider, te.quoteMint, 0, 0); err != nil {
		t.Fatalf("add liquidity (0,0): %v", err)
	}
	if got := te.ledger.NativeBalance(custody.Vault); got != 0 {
		t.Fatalf("vault balance changed: %d", got)
	}
	if got := te.ledger.NativeBalance(te.provider); got != 1_000_000 {
		t.Fatalf("provider balance changed: %d", got)
	}
}

func TestSwapBaseToQuote(t *testing.T) {
	te := newTestEnv(t)
	custody := te.initPool(t, 10_000)
	ctx := context.Background()

	if err := te.engine.AddLiquidity(ctx, te.provider, te.quoteMint, 100_000, 100_000); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}

	quote, err := te.engine.Swap(ctx, te.trader, te.quoteMint, ledger.NativeMint, te.quoteMint, 1000)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if quote.ToAmountBeforeFee != 10_000 || quote.Fee != 500 || quote.NetAmount() != 9_500 {
		t.Fatalf("quote mismatch: %+v", quote)
	}

	if got := te.ledger.NativeBalance(te.trader); got != 1_000_000-1000 {
		t.Fatalf("trader native: %d", got)
	}
	if got := te.quoteBalance(t, te.trader); got != 1_000_000+9_500 {
		t.Fatalf("trader quote: %d", got)
	}
	if got := te.ledger.NativeBalance(custody.Vault); got != 100_000+1000 {
		t.Fatalf("vault: %d", got)
	}
	if got := te.ledger.TokenBalance(custody.QuoteCustody); got != 100_000-10_000 {
		t.Fatalf("quote custody: %d", got)
	}
	if got := te.ledger.TokenBalance(custody.FeeQuoteCustody); got != 500 {
		t.Fatalf("fee custody: %d", got)
	}
}

func TestSwapQuoteToBase(t *testing.T) {
	te := newTestEnv(t)
	custody := te.initPool(t, 10_000)
	ctx := context.Background()

	if err := te.engine.AddLiquidity(ctx, te.provider, te.quoteMint, 100_000, 100_000); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}

	quote, err := te.engine.Swap(ctx, te.trader, te.quoteMint, te.quoteMint, ledger.NativeMint, 10_000)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if quote.ToAmountBeforeFee != 1000 || quote.Fee != 50 || quote.NetAmount() != 950 {
		t.Fatalf("quote mismatch: %+v", quote)
	}

	if got := te.ledger.NativeBalance(te.trader); got != 1_000_000+950 {
		t.Fatalf("trader native: %d", got)
	}
	if got := te.quoteBalance(t, te.trader); got != 1_000_000-10_000 {
		t.Fatalf("trader quote: %d", got)
	}
	if got := te.ledger.NativeBalance(custody.Vault); got != 100_000-1000 {
		t.Fatalf("vault: %d", got)
	}
	if got := te.ledger.NativeBalance(custody.Fee); got != 50 {
		t.Fatalf("fee native: %d", got)
	}
	if got := te.ledger.TokenBalance(custody.QuoteCustody); got != 100_000+10_000 {
		t.Fatalf("quote custody: %d", got)
	}
}

func TestSwapInsufficientLiquidityLeavesBalancesUntouched(t *testing.T) {
	te := newTestEnv(t)
	custody := te.initPool(t, 10_000)
	ctx := context.Background()

	if err := te.engine.AddLiquidity(ctx, te.provider, te.quoteMint, 1000, 1000); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}

	// 1000 base would need 10_000 quote but only 1000 is custodied.
	_, err := te.engine.Swap(ctx, te.trader, te.quoteMint, ledger.NativeMint, te.quoteMint, 1000)
	if !errors.Is(err, ErrInsufficientQuoteLiquidity) {
		t.Fatalf("expected ErrInsufficientQuoteLiquidity, got %v", err)
	}

	if got := te.ledger.NativeBalance(te.trader); got != 1_000_000 {
		t.Fatalf("trader native changed: %d", got)
	}
	if got := te.quoteBalance(t, te.trader); got != 1_000_000 {
		t.Fatalf("trader quote changed: %d", got)
	}
	if got := te.ledger.NativeBalance(custody.Vault); got != 1000 {
		t.Fatalf("vault changed: %d", got)
	}
	if got := te.ledger.TokenBalance(custody.QuoteCustody); got != 1000 {
		t.Fatalf("quote custody changed: %d", got)
	}
}

func TestSwapRejectsUnknownPair(t *testing.T) {
	te := newTestEnv(t)
	te.initPool(t, 10_000)

	other := solana.NewWallet().PublicKey()
	_, err := te.engine.Swap(context.Background(), te.trader, te.quoteMint, other, te.quoteMint, 10)
	if !errors.Is(err, ErrInvalidSwapToken) {
		t.Fatalf("expected ErrInvalidSwapToken, got %v", err)
	}
}

func TestSwapTraderRoundTripPaysBothFees(t *testing.T) {
	te := newTestEnv(t)
	te.initPool(t, 10_000)
	ctx := context.Background()

	if err := te.engine.AddLiquidity(ctx, te.provider, te.quoteMint, 100_000, 100_000); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}

	out, err := te.engine.Swap(ctx, te.trader, te.quoteMint, ledger.NativeMint, te.quoteMint, 1000)
	if err != nil {
		t.Fatalf("first leg: %v", err)
	}
	back, err := te.engine.Swap(ctx, te.trader, te.quoteMint, te.quoteMint, ledger.NativeMint, out.NetAmount())
	if err != nil {
		t.Fatalf("second leg: %v", err)
	}

	native := te.ledger.NativeBalance(te.trader)
	if native >= 1_000_000 {
		t.Fatalf("trader must not profit: %d", native)
	}
	loss := 1_000_000 - native
	feeInBase := out.Fee * RateScale / 10_000
	if loss != feeInBase+back.Fee {
		t.Fatalf("loss %d != fees %d+%d", loss, feeInBase, back.Fee)
	}
	if got := te.quoteBalance(t, te.trader); got != 1_000_000 {
		t.Fatalf("trader quote should be flat after full round trip: %d", got)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorClass
	}{
		{ErrInvalidRate, ClassValidation},
		{ErrInvalidSwapToken, ClassValidation},
		{ErrInsufficientBaseLiquidity, ClassInsufficientLiquidity},
		{ErrInsufficientQuoteLiquidity, ClassInsufficientLiquidity},
		{&TransferError{Op: "swap", Err: ledger.ErrInsufficientFunds}, ClassTransfer},
		{&TransferError{Op: "swap", Err: ledger.ErrUnauthorized}, ClassDerivation},
		{derive.ErrAddressDerivationExhausted, ClassDerivation},
		{ErrAuthorityMismatch, ClassDerivation},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
