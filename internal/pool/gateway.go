package pool

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"fixedpool/internal/derive"
	"fixedpool/internal/ledger"
	"fixedpool/internal/model"
)

// ErrAuthorityMismatch means a reconstructed derived authority does not
// re-derive to the custody address it should control. Fatal; indicates a
// configuration or versioning bug.
var ErrAuthorityMismatch = errors.New("derived authority does not match custody address")

// Custody is the resolved account topology of one pool: the data-bearing pool
// record, a separate native liquidity vault, a fee authority, and the token
// custody accounts owned by the derived authorities.
type Custody struct {
	Pool      solana.PublicKey
	PoolBump  uint8
	Vault     solana.PublicKey
	VaultBump uint8
	Fee       solana.PublicKey
	FeeBump   uint8

	QuoteCustody    solana.PublicKey
	FeeQuoteCustody solana.PublicKey
}

// Gateway turns asset movements into ledger transfers, branching on whether
// the asset is native or a ledger-tracked token, and attaching the derived
// authority every time funds leave custody. It never submits anything itself;
// lifecycle operations collect its legs into one atomic batch.
type Gateway struct {
	ledger   *ledger.Ledger
	resolver *derive.Resolver
}

func NewGateway(l *ledger.Ledger, r *derive.Resolver) *Gateway {
	return &Gateway{ledger: l, resolver: r}
}

// ResolveCustody derives the full custody topology for the pool keyed by the
// quote mint. The pool authority bump is persisted in the pool record; the
// vault and fee bumps are re-found by search here, which is always possible
// because the seeds are canonical.
func (g *Gateway) ResolveCustody(quoteMint solana.PublicKey) (Custody, error) {
	poolAddr, poolBump, err := g.resolver.Derive(derive.PoolSeed, quoteMint)
	if err != nil {
		return Custody{}, err
	}
	vaultAddr, vaultBump, err := g.resolver.Derive(derive.VaultSeed, quoteMint)
	if err != nil {
		return Custody{}, err
	}
	feeAddr, feeBump, err := g.resolver.Derive(derive.FeeSeed, quoteMint)
	if err != nil {
		return Custody{}, err
	}

	quoteCustody, err := g.ledger.AssociatedAccount(poolAddr, quoteMint)
	if err != nil {
		return Custody{}, err
	}
	feeQuoteCustody, err := g.ledger.AssociatedAccount(feeAddr, quoteMint)
	if err != nil {
		return Custody{}, err
	}

	return Custody{
		Pool:            poolAddr,
		PoolBump:        poolBump,
		Vault:           vaultAddr,
		VaultBump:       vaultBump,
		Fee:             feeAddr,
		FeeBump:         feeBump,
		QuoteCustody:    quoteCustody,
		FeeQuoteCustody: feeQuoteCustody,
	}, nil
}

// TransferIn moves user funds into the pool's custody. The caller signs the
// debit; no derived authority is involved on the way in.
func (g *Gateway) TransferIn(c Custody, p model.Pool, caller, mint solana.PublicKey, amount uint64) (ledger.Transfer, error) {
	if mint.Equals(ledger.NativeMint) {
		return ledger.Transfer{
			Mint:   ledger.NativeMint,
			From:   caller,
			To:     c.Vault,
			Amount: amount,
			Signer: caller,
		}, nil
	}

	if !mint.Equals(p.QuoteMint) {
		return ledger.Transfer{}, fmt.Errorf("%w: mint %s", ErrInvalidSwapToken, mint)
	}
	source, err := g.ledger.AssociatedAccount(caller, mint)
	if err != nil {
		return ledger.Transfer{}, err
	}
	return ledger.Transfer{
		Mint:   mint,
		From:   source,
		To:     c.QuoteCustody,
		Amount: amount,
		Signer: caller,
	}, nil
}

// TransferFee carves the fee out of custody into the fee custody, signed by
// the pool's derived authority.
func (g *Gateway) TransferFee(c Custody, p model.Pool, mint solana.PublicKey, amount uint64) (ledger.Transfer, error) {
	if mint.Equals(ledger.NativeMint) {
		auth, err := g.vaultAuthority(c, p)
		if err != nil {
			return ledger.Transfer{}, err
		}
		return ledger.Transfer{
			Mint:       ledger.NativeMint,
			From:       c.Vault,
			To:         c.Fee,
			Amount:     amount,
			Capability: &auth,
		}, nil
	}

	auth, err := g.poolAuthority(c, p)
	if err != nil {
		return ledger.Transfer{}, err
	}
	return ledger.Transfer{
		Mint:       mint,
		From:       c.QuoteCustody,
		To:         c.FeeQuoteCustody,
		Amount:     amount,
		Capability: &auth,
	}, nil
}

// TransferOut pays custody funds out to the caller. Outbound custody
// transfers always carry the derived authority; the gateway refuses to build
// one when the authority does not re-derive to the custody address.
func (g *Gateway) TransferOut(c Custody, p model.Pool, caller, mint solana.PublicKey, amount uint64) (ledger.Transfer, error) {
	if mint.Equals(ledger.NativeMint) {
		auth, err := g.vaultAuthority(c, p)
		if err != nil {
			return ledger.Transfer{}, err
		}
		return ledger.Transfer{
			Mint:       ledger.NativeMint,
			From:       c.Vault,
			To:         caller,
			Amount:     amount,
			Capability: &auth,
		}, nil
	}

	dest, err := g.ledger.CreateAssociatedAccountIfAbsent(caller, mint)
	if err != nil {
		return ledger.Transfer{}, err
	}
	auth, err := g.poolAuthority(c, p)
	if err != nil {
		return ledger.Transfer{}, err
	}
	return ledger.Transfer{
		Mint:       mint,
		From:       c.QuoteCustody,
		To:         dest,
		Amount:     amount,
		Capability: &auth,
	}, nil
}

func (g *Gateway) poolAuthority(c Custody, p model.Pool) (derive.Authorization, error) {
	auth := g.resolver.Authorization(derive.PoolSeed, p.QuoteMint, p.Bump)
	if !auth.Covers(c.Pool) {
		return derive.Authorization{}, fmt.Errorf("%w: pool %s bump %d", ErrAuthorityMismatch, c.Pool, p.Bump)
	}
	return auth, nil
}

func (g *Gateway) vaultAuthority(c Custody, p model.Pool) (derive.Authorization, error) {
	auth := g.resolver.Authorization(derive.VaultSeed, p.QuoteMint, c.VaultBump)
	if !auth.Covers(c.Vault) {
		return derive.Authorization{}, fmt.Errorf("%w: vault %s bump %d", ErrAuthorityMismatch, c.Vault, c.VaultBump)
	}
	return auth, nil
}
