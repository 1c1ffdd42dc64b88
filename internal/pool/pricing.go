package pool

import (
	"math/big"

	"github.com/gagliardetto/solana-go"

	"fixedpool/internal/model"
)

// Rate and fee constants. The rate is a fixed-point integer scaled by
// 10^RateDecimals; the fee is a permil of the output side, deducted from the
// payout, never from the input.
const (
	RateDecimals = 3
	RateScale    = 1000
	FeePermil    = 50
	MaxRate      = uint32(1) << (32 - RateDecimals)
)

// Direction is a valid swap orientation against the pool's pair.
type Direction int

const (
	BaseToQuote Direction = iota + 1
	QuoteToBase
)

func (d Direction) String() string {
	switch d {
	case BaseToQuote:
		return "base_to_quote"
	case QuoteToBase:
		return "quote_to_base"
	default:
		return "invalid"
	}
}

// Quote is the priced outcome of a swap request. It is a pure function of the
// pool rate, the requested direction and amount, and the live custody
// balances; it carries no state of its own.
type Quote struct {
	Direction         Direction
	FromAmount        uint64
	ToAmountBeforeFee uint64
	Fee               uint64
}

// NetAmount is the payout after the fee is carved out.
func (q Quote) NetAmount() uint64 {
	return q.ToAmountBeforeFee - q.Fee
}

// ValidateRate checks the fixed rate against the pool invariants.
func ValidateRate(rate uint32) error {
	if rate == 0 || rate > MaxRate {
		return ErrInvalidRate
	}
	return nil
}

// SwapDirection resolves the requested pair against the pool's assets.
// Exactly two orientations are valid; anything else is rejected.
func SwapDirection(p model.Pool, fromMint, toMint solana.PublicKey) (Direction, error) {
	switch {
	case fromMint.Equals(p.BaseMint) && toMint.Equals(p.QuoteMint):
		return BaseToQuote, nil
	case fromMint.Equals(p.QuoteMint) && toMint.Equals(p.BaseMint):
		return QuoteToBase, nil
	default:
		return 0, ErrInvalidSwapToken
	}
}

// PreviewSwap prices a swap without touching any account. All arithmetic is
// integer big.Int with floor division; the rate is never widened to a float,
// so the liquidity checks are deterministic across platforms.
func PreviewSwap(p model.Pool, fromMint, toMint solana.PublicKey, fromAmount, baseLiquidity, quoteLiquidity uint64) (Quote, error) {
	if fromAmount == 0 {
		return Quote{}, ErrInvalidSwapAmount
	}

	dir, err := SwapDirection(p, fromMint, toMint)
	if err != nil {
		return Quote{}, err
	}

	amount := new(big.Int).SetUint64(fromAmount)
	rate := new(big.Int).SetUint64(uint64(p.Rate))
	scale := big.NewInt(RateScale)

	// to = floor(from * rate / scale) or floor(from * scale / rate)
	to := new(big.Int)
	switch dir {
	case BaseToQuote:
		to.Mul(amount, rate).Quo(to, scale)
		if to.Cmp(new(big.Int).SetUint64(quoteLiquidity)) > 0 {
			return Quote{}, ErrInsufficientQuoteLiquidity
		}
	case QuoteToBase:
		to.Mul(amount, scale).Quo(to, rate)
		if to.Cmp(new(big.Int).SetUint64(baseLiquidity)) > 0 {
			return Quote{}, ErrInsufficientBaseLiquidity
		}
	}

	fee := new(big.Int).Mul(to, big.NewInt(FeePermil))
	fee.Quo(fee, big.NewInt(1000))

	return Quote{
		Direction:         dir,
		FromAmount:        fromAmount,
		ToAmountBeforeFee: to.Uint64(),
		Fee:               fee.Uint64(),
	}, nil
}
