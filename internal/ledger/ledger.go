package ledger

import (
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Sentinel errors surfaced by ledger operations. Callers distinguish classes
// with errors.Is.
var (
	ErrAccountExists     = errors.New("account already exists")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnauthorized      = errors.New("authority does not control source account")
	ErrWrongMint         = errors.New("token account mint mismatch")
	ErrUnknownMint       = errors.New("unknown mint")
)

// NativeMint identifies the chain-native asset in transfer requests.
var NativeMint = solana.SolMint

// TokenAccount holds a balance of one mint on behalf of an owner.
type TokenAccount struct {
	Mint   solana.PublicKey `json:"mint"`
	Owner  solana.PublicKey `json:"owner"`
	Amount uint64           `json:"amount"`
}

// DataAccount is a program-owned record account.
type DataAccount struct {
	Owner solana.PublicKey `json:"owner"`
	Data  []byte           `json:"data"`
}

// Mint tracks a token mint and the authority allowed to issue supply.
type Mint struct {
	Authority solana.PublicKey `json:"authority"`
	Supply    uint64           `json:"supply"`
}

// Ledger is an in-process stand-in for the runtime that owns account state
// and executes balance transfers on request. Each Execute batch is applied
// under one lock, giving the whole-request serialization the pool engine
// assumes.
type Ledger struct {
	mu sync.RWMutex

	native    map[solana.PublicKey]uint64
	tokens    map[solana.PublicKey]*TokenAccount
	data      map[solana.PublicKey]*DataAccount
	mints     map[solana.PublicKey]*Mint
	custodial map[solana.PublicKey]bool

	logger *zap.Logger
}

func New(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		native:    make(map[solana.PublicKey]uint64),
		tokens:    make(map[solana.PublicKey]*TokenAccount),
		data:      make(map[solana.PublicKey]*DataAccount),
		mints:     make(map[solana.PublicKey]*Mint),
		custodial: make(map[solana.PublicKey]bool),
		logger:    logger,
	}
}

// CreateAccount allocates a program-owned data account. It fails fast if the
// address is already allocated, which is what makes pool init non-idempotent.
func (l *Ledger) CreateAccount(addr, owner solana.PublicKey, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.data[addr]; ok {
		return ErrAccountExists
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	l.data[addr] = &DataAccount{Owner: owner, Data: stored}

	l.logger.Debug("account created", zap.String("address", addr.String()), zap.String("owner", owner.String()), zap.Int("size", len(data)))
	return nil
}

// Account loads a data account, checking it is owned by the expected program.
func (l *Ledger) Account(addr, expectedOwner solana.PublicKey) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.data[addr]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if !acc.Owner.Equals(expectedOwner) {
		return nil, ErrUnauthorized
	}

	out := make([]byte, len(acc.Data))
	copy(out, acc.Data)
	return out, nil
}

// RegisterCustody marks an address as a derived custody point. Debits from it
// (or from token accounts it owns) are refused unless the transfer carries a
// capability that re-derives to it.
func (l *Ledger) RegisterCustody(addr solana.PublicKey) {
	l.mu.Lock()
	l.custodial[addr] = true
	l.mu.Unlock()
}

// IsCustody reports whether an address was registered as derived custody.
func (l *Ledger) IsCustody(addr solana.PublicKey) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.custodial[addr]
}

// NativeBalance reads the native-asset balance of an address. Unallocated
// addresses read as zero.
func (l *Ledger) NativeBalance(addr solana.PublicKey) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.native[addr]
}

// Credit adds native units to an address. Used to fund signers; pool custody
// only ever gains native units through Execute.
func (l *Ledger) Credit(addr solana.PublicKey, amount uint64) {
	l.mu.Lock()
	l.native[addr] += amount
	l.mu.Unlock()
}
