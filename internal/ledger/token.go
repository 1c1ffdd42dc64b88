package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// CreateMint registers a mint with an issuing authority.
func (l *Ledger) CreateMint(mint, authority solana.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.mints[mint]; ok {
		return ErrAccountExists
	}
	l.mints[mint] = &Mint{Authority: authority}
	return nil
}

// MintTo issues new supply into a token account. The caller identity must be
// the mint authority.
func (l *Ledger) MintTo(mint, dest, authority solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.mints[mint]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}
	if !m.Authority.Equals(authority) {
		return ErrUnauthorized
	}

	acc, ok := l.tokens[dest]
	if !ok {
		return ErrAccountNotFound
	}
	if !acc.Mint.Equals(mint) {
		return ErrWrongMint
	}

	acc.Amount += amount
	m.Supply += amount

	l.logger.Debug("minted", zap.String("mint", mint.String()), zap.String("dest", dest.String()), zap.Uint64("amount", amount))
	return nil
}

// AssociatedAccount derives the canonical token account address for an owner
// and mint. Pure derivation, no state is touched.
func (l *Ledger) AssociatedAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated account: %w", err)
	}
	return addr, nil
}

// CreateAssociatedAccountIfAbsent allocates the associated token account for
// (owner, mint) when it does not exist yet, and returns its address either way.
func (l *Ledger) CreateAssociatedAccountIfAbsent(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, err := l.AssociatedAccount(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.mints[mint]; !ok {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}
	if _, ok := l.tokens[addr]; !ok {
		l.tokens[addr] = &TokenAccount{Mint: mint, Owner: owner}
	}
	return addr, nil
}

// TokenAccountInfo loads a token account by address.
func (l *Ledger) TokenAccountInfo(addr solana.PublicKey) (TokenAccount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.tokens[addr]
	if !ok {
		return TokenAccount{}, ErrAccountNotFound
	}
	return *acc, nil
}

// TokenBalance reads the balance of a token account. Missing accounts read as
// zero, mirroring how unallocated native addresses read.
func (l *Ledger) TokenBalance(addr solana.PublicKey) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if acc, ok := l.tokens[addr]; ok {
		return acc.Amount
	}
	return 0
}
