package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"fixedpool/internal/derive"
)

// Transfer is one balance movement inside an Execute batch. Mint selects the
// asset; NativeMint means the chain-native asset and From/To are plain
// addresses, any other mint means From/To are token account addresses.
//
// Signer authorizes debits from caller-owned accounts; the request boundary
// is assumed to have verified its signature. Capability authorizes debits
// from derived custody and is verified here by re-derivation.
type Transfer struct {
	Mint       solana.PublicKey
	From       solana.PublicKey
	To         solana.PublicKey
	Amount     uint64
	Signer     solana.PublicKey
	Capability *derive.Authorization
}

func (t Transfer) native() bool {
	return t.Mint.Equals(NativeMint)
}

// Execute applies a batch of transfers atomically: the whole batch is
// validated against projected balances before any account is mutated, so a
// failing leg leaves no partial state behind.
func (l *Ledger) Execute(ctx context.Context, batch []Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	scratchNative := make(map[solana.PublicKey]uint64)
	scratchTokens := make(map[solana.PublicKey]uint64)

	nativeBal := func(addr solana.PublicKey) uint64 {
		if v, ok := scratchNative[addr]; ok {
			return v
		}
		return l.native[addr]
	}
	tokenBal := func(addr solana.PublicKey) uint64 {
		if v, ok := scratchTokens[addr]; ok {
			return v
		}
		if acc, ok := l.tokens[addr]; ok {
			return acc.Amount
		}
		return 0
	}

	for i, t := range batch {
		if t.native() {
			if err := l.checkDebitAuthority(t, t.From); err != nil {
				return fmt.Errorf("transfer %d: %w", i, err)
			}
			if nativeBal(t.From) < t.Amount {
				return fmt.Errorf("transfer %d: %w: %s", i, ErrInsufficientFunds, t.From)
			}
			scratchNative[t.From] = nativeBal(t.From) - t.Amount
			scratchNative[t.To] = nativeBal(t.To) + t.Amount
			continue
		}

		src, ok := l.tokens[t.From]
		if !ok {
			return fmt.Errorf("transfer %d: source %s: %w", i, t.From, ErrAccountNotFound)
		}
		dst, ok := l.tokens[t.To]
		if !ok {
			return fmt.Errorf("transfer %d: destination %s: %w", i, t.To, ErrAccountNotFound)
		}
		if !src.Mint.Equals(t.Mint) || !dst.Mint.Equals(t.Mint) {
			return fmt.Errorf("transfer %d: %w", i, ErrWrongMint)
		}
		if err := l.checkDebitAuthority(t, src.Owner); err != nil {
			return fmt.Errorf("transfer %d: %w", i, err)
		}
		if tokenBal(t.From) < t.Amount {
			return fmt.Errorf("transfer %d: %w: %s", i, ErrInsufficientFunds, t.From)
		}
		scratchTokens[t.From] = tokenBal(t.From) - t.Amount
		scratchTokens[t.To] = tokenBal(t.To) + t.Amount
	}

	for addr, v := range scratchNative {
		l.native[addr] = v
	}
	for addr, v := range scratchTokens {
		l.tokens[addr].Amount = v
	}

	l.logger.Debug("batch executed", zap.Int("transfers", len(batch)))
	return nil
}

// checkDebitAuthority enforces the custody contract: derived custody can only
// be debited with a capability that re-derives to the controlling address,
// and everything else needs the controlling address as signer.
func (l *Ledger) checkDebitAuthority(t Transfer, controller solana.PublicKey) error {
	if l.custodial[controller] {
		if t.Capability == nil {
			return fmt.Errorf("%w: custody %s requires derived authority", ErrUnauthorized, controller)
		}
		if !t.Capability.Covers(controller) {
			return fmt.Errorf("%w: capability does not re-derive to %s", ErrUnauthorized, controller)
		}
		return nil
	}

	if !t.Signer.Equals(controller) {
		return fmt.Errorf("%w: signer %s, controller %s", ErrUnauthorized, t.Signer, controller)
	}
	return nil
}
