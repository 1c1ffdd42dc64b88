package derive

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestDeriveIsDeterministic(t *testing.T) {
	resolver := NewResolver(solana.NewWallet().PublicKey())
	identity := solana.NewWallet().PublicKey()

	addr1, bump1, err := resolver.Derive(PoolSeed, identity)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	addr2, bump2, err := resolver.Derive(PoolSeed, identity)
	if err != nil {
		t.Fatalf("derive again: %v", err)
	}
	if !addr1.Equals(addr2) || bump1 != bump2 {
		t.Fatalf("derivation not deterministic: %s/%d vs %s/%d", addr1, bump1, addr2, bump2)
	}
}

func TestDeriveAtMatchesSearch(t *testing.T) {
	resolver := NewResolver(solana.NewWallet().PublicKey())
	identity := solana.NewWallet().PublicKey()

	addr, bump, err := resolver.Derive(VaultSeed, identity)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	again, err := resolver.DeriveAt(VaultSeed, identity, bump)
	if err != nil {
		t.Fatalf("derive at bump: %v", err)
	}
	if !addr.Equals(again) {
		t.Fatalf("persisted bump re-derivation mismatch: %s vs %s", addr, again)
	}
}

func TestSeedTagsSeparateAddresses(t *testing.T) {
	resolver := NewResolver(solana.NewWallet().PublicKey())
	identity := solana.NewWallet().PublicKey()

	poolAddr, _, err := resolver.Derive(PoolSeed, identity)
	if err != nil {
		t.Fatalf("derive pool: %v", err)
	}
	feeAddr, _, err := resolver.Derive(FeeSeed, identity)
	if err != nil {
		t.Fatalf("derive fee: %v", err)
	}
	vaultAddr, _, err := resolver.Derive(VaultSeed, identity)
	if err != nil {
		t.Fatalf("derive vault: %v", err)
	}
	if poolAddr.Equals(feeAddr) || poolAddr.Equals(vaultAddr) || feeAddr.Equals(vaultAddr) {
		t.Fatalf("seed tags collided: %s %s %s", poolAddr, feeAddr, vaultAddr)
	}
}

func TestAuthorizationCovers(t *testing.T) {
	resolver := NewResolver(solana.NewWallet().PublicKey())
	identity := solana.NewWallet().PublicKey()

	addr, bump, err := resolver.Derive(PoolSeed, identity)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	auth := resolver.Authorization(PoolSeed, identity, bump)
	if !auth.Covers(addr) {
		t.Fatalf("authorization must cover its derived address")
	}
	if auth.Covers(solana.NewWallet().PublicKey()) {
		t.Fatalf("authorization must not cover unrelated addresses")
	}

	wrongTag := resolver.Authorization(FeeSeed, identity, bump)
	if wrongTag.Covers(addr) {
		t.Fatalf("authorization with wrong tag must not cover the address")
	}

	otherProgram := NewResolver(solana.NewWallet().PublicKey())
	foreign := otherProgram.Authorization(PoolSeed, identity, bump)
	if foreign.Covers(addr) {
		t.Fatalf("authorization under another namespace must not cover the address")
	}
}
