package pool

import (
	"errors"
	"fmt"

	"fixedpool/internal/derive"
	"fixedpool/internal/ledger"
)

// Validation failures. Rejected before any transfer is issued; the caller can
// retry with corrected input.
var (
	ErrInvalidRate       = errors.New("fixed rate must be > 0 and within the representable range")
	ErrSameMint          = errors.New("base and quote mint must differ")
	ErrBaseMustBeNative  = errors.New("base asset must be the native mint")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidSwapAmount = errors.New("swap amount must be > 0")
	ErrInvalidSwapToken  = errors.New("swap pair does not match the pool's assets")
)

// Liquidity failures. Rejected before any transfer; retry with a smaller
// amount or wait for more liquidity.
var (
	ErrInsufficientBaseLiquidity  = errors.New("insufficient base liquidity")
	ErrInsufficientQuoteLiquidity = errors.New("insufficient quote liquidity")
)

// TransferError wraps a ledger failure during an operation. The whole request
// is aborted; no partial state is retained because transfers only execute
// after all validation passed.
type TransferError struct {
	Op  string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s: transfer failed: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ErrorClass buckets every failure an operation can surface.
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	ClassValidation
	ClassInsufficientLiquidity
	ClassTransfer
	ClassDerivation
)

func (c ErrorClass) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassInsufficientLiquidity:
		return "insufficient_liquidity"
	case ClassTransfer:
		return "transfer"
	case ClassDerivation:
		return "derivation"
	default:
		return "unknown"
	}
}

// Classify maps an operation error to its class.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassUnknown
	case errors.Is(err, ErrInvalidRate),
		errors.Is(err, ErrSameMint),
		errors.Is(err, ErrBaseMustBeNative),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidSwapAmount),
		errors.Is(err, ErrInvalidSwapToken):
		return ClassValidation
	case errors.Is(err, ErrInsufficientBaseLiquidity),
		errors.Is(err, ErrInsufficientQuoteLiquidity):
		return ClassInsufficientLiquidity
	case errors.Is(err, derive.ErrAddressDerivationExhausted),
		errors.Is(err, ErrAuthorityMismatch),
		errors.Is(err, ledger.ErrUnauthorized):
		return ClassDerivation
	default:
		var te *TransferError
		if errors.As(err, &te) {
			if errors.Is(te.Err, ledger.ErrUnauthorized) {
				return ClassDerivation
			}
			return ClassTransfer
		}
		return ClassUnknown
	}
}
