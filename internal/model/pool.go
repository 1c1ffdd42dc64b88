package model

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PoolRecordSize is the fixed byte size of an encoded pool record:
// rate u32 | base mint 32 | quote mint 32 | quote custody 32 | bump 1.
const PoolRecordSize = 4 + 32 + 32 + 32 + 1

// Pool is the persisted configuration of a fixed-rate liquidity pool.
// Rate and asset identifiers are immutable after init. Liquidity is never
// cached here; the live custody balances are the single source of truth.
type Pool struct {
	// Rate is quote-per-base scaled by 10^RateDecimals.
	// rate = 10_000 with 3 rate decimals means 1 base = 10 quote.
	Rate         uint32           `json:"rate"`
	BaseMint     solana.PublicKey `json:"base_mint"`
	QuoteMint    solana.PublicKey `json:"quote_mint"`
	QuoteCustody solana.PublicKey `json:"quote_custody"`
	Bump         uint8            `json:"bump"`
}

// Encode serializes the pool record into its fixed binary layout.
func (p Pool) Encode() []byte {
	buf := make([]byte, PoolRecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], p.Rate)
	copy(buf[4:36], p.BaseMint[:])
	copy(buf[36:68], p.QuoteMint[:])
	copy(buf[68:100], p.QuoteCustody[:])
	buf[100] = p.Bump
	return buf
}

// DecodePool parses a pool record from its fixed binary layout.
func DecodePool(data []byte) (Pool, error) {
	if len(data) != PoolRecordSize {
		return Pool{}, fmt.Errorf("pool record must be %d bytes, got %d", PoolRecordSize, len(data))
	}

	var p Pool
	p.Rate = binary.LittleEndian.Uint32(data[0:4])
	copy(p.BaseMint[:], data[4:36])
	copy(p.QuoteMint[:], data[36:68])
	copy(p.QuoteCustody[:], data[68:100])
	p.Bump = data[100]
	return p, nil
}
