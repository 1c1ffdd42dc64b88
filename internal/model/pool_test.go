package model

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestPoolBinaryRoundTrip(t *testing.T) {
	original := Pool{
		Rate:         10_000,
		BaseMint:     solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"),
		QuoteMint:    solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
		QuoteCustody: solana.NewWallet().PublicKey(),
		Bump:         254,
	}

	encoded := original.Encode()
	if len(encoded) != PoolRecordSize {
		t.Fatalf("encoded size %d, want %d", len(encoded), PoolRecordSize)
	}

	decoded, err := DecodePool(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != original {
		t.Fatalf("round-trip mismatch: %+v != %+v", decoded, original)
	}
}

func TestDecodePoolRejectsWrongSize(t *testing.T) {
	if _, err := DecodePool(make([]byte, PoolRecordSize-1)); err == nil {
		t.Fatalf("expected error for short record")
	}
	if _, err := DecodePool(make([]byte, PoolRecordSize+1)); err == nil {
		t.Fatalf("expected error for long record")
	}
}
