package runtime

import (
	"fmt"

	"github.com/jmerrifield20/linkboard/internal/accounts"
	"github.com/jmerrifield20/linkboard/pkg/address"
)

// AccountStorageOverhead is the per-account byte count charged on top of the
// data length when computing rent.
const AccountStorageOverhead = 128

// Rent holds the parameters of the rent-exemption formula.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionYears      uint64
}

// DefaultRent is the rent schedule used unless configured otherwise.
var DefaultRent = Rent{LamportsPerByteYear: 3480, ExemptionYears: 2}

// MinimumBalance returns the lamports an account of space data bytes must
// hold to be rent exempt.
func (r Rent) MinimumBalance(space uint64) uint64 {
	return (AccountStorageOverhead + space) * r.LamportsPerByteYear * r.ExemptionYears
}

// CreateAccount allocates target as a fresh rent-exempt account of space
// zeroed bytes owned by owner, funded by payer. Both accounts must be
// writable signers of the transaction.
func (ic *InvokeContext) CreateAccount(payer, target *accounts.Account, space uint64, owner address.Address) error {
	pi, ti := ic.indexOf(payer), ic.indexOf(target)
	if pi < 0 || ti < 0 {
		return fmt.Errorf("create account: account not part of this transaction")
	}
	if !ic.IsSigner(pi) {
		return fmt.Errorf("%w: payer %s", ErrMissingSignature, payer.Address)
	}
	if !ic.IsSigner(ti) {
		return fmt.Errorf("%w: new account %s", ErrMissingSignature, target.Address)
	}
	if target.Exists() {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, target.Address)
	}

	lamports := ic.rent.MinimumBalance(space)
	if payer.Lamports < lamports {
		return fmt.Errorf("%w: payer %s has %d lamports, needs %d",
			ErrInsufficientFunds, payer.Address, payer.Lamports, lamports)
	}

	payer.Lamports -= lamports
	target.Lamports += lamports
	target.Owner = owner
	target.Data = make([]byte, space)
	return nil
}
