package runtime

import "errors"

// Transaction-level rejections. Program-specific failures are returned as the
// program's own error values.
var (
	ErrUnknownProgram          = errors.New("unknown program")
	ErrAccountAccessMismatch   = errors.New("account list does not match the instruction")
	ErrDuplicateAccount        = errors.New("account listed more than once")
	ErrAlreadyProcessed        = errors.New("transaction already processed")
	ErrAccountAlreadyInUse     = errors.New("account already in use")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrMissingSignature        = errors.New("missing required signature")
	ErrReadonlyModified        = errors.New("instruction modified a read-only account")
	ErrExternalAccountModified = errors.New("instruction modified data of an account it does not own")
	ErrExternalLamportSpend    = errors.New("instruction spent lamports from an account it does not own")
	ErrUnbalancedLamports      = errors.New("instruction changed the lamport total")
	ErrInvalidAirdrop          = errors.New("invalid airdrop request")
	ErrAirdropLimit            = errors.New("airdrop exceeds the per-request limit")
)

var rejections = []error{
	ErrUnknownProgram, ErrAccountAccessMismatch, ErrDuplicateAccount,
	ErrAlreadyProcessed, ErrAccountAlreadyInUse, ErrInsufficientFunds,
	ErrMissingSignature, ErrReadonlyModified, ErrExternalAccountModified,
	ErrExternalLamportSpend, ErrUnbalancedLamports, ErrInvalidAirdrop,
	ErrAirdropLimit,
}

// IsRejection reports whether err is one of the runtime's transaction-level
// rejections, as opposed to an infrastructure failure.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
