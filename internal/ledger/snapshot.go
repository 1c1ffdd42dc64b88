package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gagliardetto/solana-go"
)

type snapshot struct {
	Native    map[string]uint64       `json:"native"`
	Tokens    map[string]TokenAccount `json:"tokens"`
	Data      map[string]DataAccount  `json:"data"`
	Mints     map[string]Mint         `json:"mints"`
	Custodial []string                `json:"custodial"`
	UpdatedAt string                  `json:"updated_at"`
}

// Save persists the full ledger state to disk, written atomically via a temp
// file rename.
func (l *Ledger) Save(path string) error {
	l.mu.RLock()
	snap := snapshot{
		Native:    make(map[string]uint64, len(l.native)),
		Tokens:    make(map[string]TokenAccount, len(l.tokens)),
		Data:      make(map[string]DataAccount, len(l.data)),
		Mints:     make(map[string]Mint, len(l.mints)),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for addr, v := range l.native {
		snap.Native[addr.String()] = v
	}
	for addr, acc := range l.tokens {
		snap.Tokens[addr.String()] = *acc
	}
	for addr, acc := range l.data {
		snap.Data[addr.String()] = *acc
	}
	for mint, m := range l.mints {
		snap.Mints[mint.String()] = *m
	}
	for addr := range l.custodial {
		snap.Custodial = append(snap.Custodial, addr.String())
	}
	l.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal ledger snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}

	return nil
}

// Load restores ledger state from a snapshot file. A missing file is not an
// error; it reports found=false and leaves the ledger empty.
func (l *Ledger) Load(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return false, fmt.Errorf("parse snapshot: %w", err)
	}

	native := make(map[solana.PublicKey]uint64, len(snap.Native))
	for s, v := range snap.Native {
		addr, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return false, fmt.Errorf("parse native address %q: %w", s, err)
		}
		native[addr] = v
	}
	tokens := make(map[solana.PublicKey]*TokenAccount, len(snap.Tokens))
	for s, acc := range snap.Tokens {
		addr, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return false, fmt.Errorf("parse token address %q: %w", s, err)
		}
		accCopy := acc
		tokens[addr] = &accCopy
	}
	dataAccs := make(map[solana.PublicKey]*DataAccount, len(snap.Data))
	for s, acc := range snap.Data {
		addr, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return false, fmt.Errorf("parse data address %q: %w", s, err)
		}
		accCopy := acc
		dataAccs[addr] = &accCopy
	}
	mints := make(map[solana.PublicKey]*Mint, len(snap.Mints))
	for s, m := range snap.Mints {
		mint, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return false, fmt.Errorf("parse mint %q: %w", s, err)
		}
		mintCopy := m
		mints[mint] = &mintCopy
	}
	custodial := make(map[solana.PublicKey]bool, len(snap.Custodial))
	for _, s := range snap.Custodial {
		addr, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return false, fmt.Errorf("parse custody address %q: %w", s, err)
		}
		custodial[addr] = true
	}

	l.mu.Lock()
	l.native = native
	l.tokens = tokens
	l.data = dataAccs
	l.mints = mints
	l.custodial = custodial
	l.mu.Unlock()

	return true, nil
}
