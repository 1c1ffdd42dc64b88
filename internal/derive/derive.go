package derive

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Seed tags for the custody addresses derived from a pool's identity. All of
// them are keyed by the quote mint.
var (
	PoolSeed  = []byte("FixedRateLP_")
	FeeSeed   = []byte("FixedRateLP_fee_")
	VaultSeed = []byte("FixedRateLP_vault_")
)

// ErrAddressDerivationExhausted is returned when no valid derived address
// exists in the bump search space. This indicates a configuration bug, not a
// retryable condition.
var ErrAddressDerivationExhausted = errors.New("address derivation exhausted")

// Resolver maps (seed tag, pool identity) pairs to deterministic custody
// addresses under a fixed program namespace. Anyone holding the namespace,
// tag, and identity can re-derive the same address; no secret material is
// involved.
type Resolver struct {
	program solana.PublicKey
}

func NewResolver(program solana.PublicKey) *Resolver {
	return &Resolver{program: program}
}

// Program returns the namespace the resolver derives under.
func (r *Resolver) Program() solana.PublicKey {
	return r.program
}

// Derive searches for the derived address for (tag, identity) and returns it
// together with the bump that made the derivation land off-curve.
func (r *Resolver) Derive(tag []byte, identity solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{tag, identity.Bytes()}, r.program)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("%w: tag %q identity %s: %v", ErrAddressDerivationExhausted, tag, identity, err)
	}
	return addr, bump, nil
}

// DeriveAt re-derives the address for (tag, identity) using a known bump,
// skipping the search. It fails if the bump does not produce a valid address.
func (r *Resolver) DeriveAt(tag []byte, identity solana.PublicKey, bump uint8) (solana.PublicKey, error) {
	addr, err := solana.CreateProgramAddress([][]byte{tag, identity.Bytes(), {bump}}, r.program)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("re-derive with bump %d: %w", bump, err)
	}
	return addr, nil
}

// Authorization grants signing capability over a derived custody address.
// Holding the (namespace, tag, identity, bump) tuple is the capability: the
// ledger verifies it by re-deriving the address and comparing it against the
// account being debited.
type Authorization struct {
	Program  solana.PublicKey
	Tag      []byte
	Identity solana.PublicKey
	Bump     uint8
}

// Authorization builds the capability object for (tag, identity) with a known
// bump, so callers that persisted the bump never need to search again.
func (r *Resolver) Authorization(tag []byte, identity solana.PublicKey, bump uint8) Authorization {
	return Authorization{Program: r.program, Tag: tag, Identity: identity, Bump: bump}
}

// Address re-derives the custody address this authorization controls.
func (a Authorization) Address() (solana.PublicKey, error) {
	addr, err := solana.CreateProgramAddress([][]byte{a.Tag, a.Identity.Bytes(), {a.Bump}}, a.Program)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("authorization address: %w", err)
	}
	return addr, nil
}

// Covers reports whether the authorization controls the given address.
func (a Authorization) Covers(addr solana.PublicKey) bool {
	derived, err := a.Address()
	if err != nil {
		return false
	}
	return derived.Equals(addr)
}
