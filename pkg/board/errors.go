package board

import "fmt"

// Error is a board program error. Code is stable across releases and is what
// the node reports to clients; Name and Msg are descriptive.
type Error struct {
	Code   uint32
	Name   string
	Msg    string
	detail string
}

func (e *Error) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("%s (%d): %s: %s", e.Name, e.Code, e.Msg, e.detail)
	}
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

// Is matches any *Error with the same code, so errors.Is works on values
// returned with extra detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) withDetail(format string, args ...any) *Error {
	return &Error{Code: e.Code, Name: e.Name, Msg: e.Msg, detail: fmt.Sprintf(format, args...)}
}

var (
	ErrInstructionMissing           = &Error{Code: 100, Name: "InstructionMissing", Msg: "instruction data is shorter than a discriminator"}
	ErrInstructionUnknown           = &Error{Code: 101, Name: "InstructionUnknown", Msg: "unknown instruction discriminator"}
	ErrInstructionDidNotDeserialize = &Error{Code: 102, Name: "InstructionDidNotDeserialize", Msg: "instruction arguments could not be decoded"}
	ErrAccountNotInitialized        = &Error{Code: 200, Name: "AccountNotInitialized", Msg: "board account has not been initialized"}
	ErrAccountDiscriminatorMismatch = &Error{Code: 201, Name: "AccountDiscriminatorMismatch", Msg: "account is not a board"}
	ErrAccountDidNotDeserialize     = &Error{Code: 202, Name: "AccountDidNotDeserialize", Msg: "board account data is corrupt"}
	ErrAccountOwnedByWrongProgram   = &Error{Code: 203, Name: "AccountOwnedByWrongProgram", Msg: "board account is not owned by the board program"}
	ErrCapacityExceeded             = &Error{Code: 204, Name: "CapacityExceeded", Msg: "board account is full"}
	ErrConstraintSigner             = &Error{Code: 300, Name: "ConstraintSigner", Msg: "a required signature is missing"}
	ErrConstraintMut                = &Error{Code: 301, Name: "ConstraintMut", Msg: "a required account is not writable"}
	ErrConstraintSystemProgram      = &Error{Code: 302, Name: "ConstraintSystemProgram", Msg: "expected the system program account"}
)

var errorsByCode = map[uint32]*Error{}

func init() {
	for _, e := range []*Error{
		ErrInstructionMissing, ErrInstructionUnknown, ErrInstructionDidNotDeserialize,
		ErrAccountNotInitialized, ErrAccountDiscriminatorMismatch, ErrAccountDidNotDeserialize,
		ErrAccountOwnedByWrongProgram, ErrCapacityExceeded,
		ErrConstraintSigner, ErrConstraintMut, ErrConstraintSystemProgram,
	} {
		errorsByCode[e.Code] = e
	}
}

// ErrorByCode returns the program error with the given code, or nil.
func ErrorByCode(code uint32) *Error {
	return errorsByCode[code]
}

func capacityError(need, have int) *Error {
	return ErrCapacityExceeded.withDetail("need %d bytes, account holds %d", need, have)
}

func deserializeError(err error) *Error {
	return ErrAccountDidNotDeserialize.withDetail("%v", err)
}
