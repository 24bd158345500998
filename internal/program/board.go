// Package program hosts the board program on the node runtime.
package program

import (
	"fmt"

	"github.com/jmerrifield20/linkboard/internal/runtime"
	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/board"
)

var (
	initializeAccounts = []runtime.AccessSpec{
		{Name: "board", Signer: true, Writable: true},
		{Name: "payer", Signer: true, Writable: true},
		{Name: "system_program"},
	}
	appendAccounts = []runtime.AccessSpec{
		{Name: "board", Writable: true},
		{Name: "submitter", Signer: true, Writable: true},
	}
)

// Board implements runtime.Program for the board program.
type Board struct {
	initializeIx *runtime.Instruction
	appendIx     *runtime.Instruction
}

// NewBoard returns the board program.
func NewBoard() *Board {
	return &Board{
		initializeIx: &runtime.Instruction{
			Name:     board.InstructionInitialize,
			Accounts: initializeAccounts,
			Execute:  initialize,
		},
		appendIx: &runtime.Instruction{
			Name:     board.InstructionAppend,
			Accounts: appendAccounts,
			Execute:  appendLink,
		},
	}
}

// ID implements runtime.Program.
func (p *Board) ID() address.Address { return board.ProgramID }

// Resolve implements runtime.Program.
func (p *Board) Resolve(data []byte) (*runtime.Instruction, []byte, error) {
	name, args, err := board.ParseInstruction(data)
	if err != nil {
		return nil, nil, err
	}
	switch name {
	case board.InstructionInitialize:
		return p.initializeIx, args, nil
	case board.InstructionAppend:
		return p.appendIx, args, nil
	}
	return nil, nil, board.ErrInstructionUnknown
}

// checkAccounts enforces the signer and writable constraints of specs.
func checkAccounts(ic *runtime.InvokeContext, specs []runtime.AccessSpec) error {
	for i, s := range specs {
		if s.Signer && !ic.IsSigner(i) {
			return fmt.Errorf("%w: %s", board.ErrConstraintSigner, s.Name)
		}
		if s.Writable && !ic.IsWritable(i) {
			return fmt.Errorf("%w: %s", board.ErrConstraintMut, s.Name)
		}
	}
	return nil
}

// initialize allocates the board account and writes an empty board to it.
func initialize(ic *runtime.InvokeContext) error {
	if err := checkAccounts(ic, initializeAccounts); err != nil {
		return err
	}
	acct, payer, system := ic.Accounts[0], ic.Accounts[1], ic.Accounts[2]
	if system.Address != address.SystemProgram {
		return fmt.Errorf("%w: got %s", board.ErrConstraintSystemProgram, system.Address)
	}

	if err := ic.CreateAccount(payer, acct, board.Space, ic.ProgramID); err != nil {
		return err
	}
	return (&board.Board{}).MarshalInto(acct.Data)
}

// appendLink adds one entry, submitted by the signing submitter, to an
// initialised board.
func appendLink(ic *runtime.InvokeContext) error {
	link, err := board.DecodeAppendArgs(ic.Args)
	if err != nil {
		return err
	}
	if err := checkAccounts(ic, appendAccounts); err != nil {
		return err
	}

	acct, submitter := ic.Accounts[0], ic.Accounts[1]
	if !acct.Exists() {
		return fmt.Errorf("%w: %s", board.ErrAccountNotInitialized, acct.Address)
	}
	if acct.Owner != ic.ProgramID {
		return fmt.Errorf("%w: %s is owned by %s", board.ErrAccountOwnedByWrongProgram, acct.Address, acct.Owner)
	}

	b, err := board.Unmarshal(acct.Data)
	if err != nil {
		return err
	}
	b.Append(board.Entry{Link: link, Submitter: submitter.Address})
	return b.MarshalInto(acct.Data)
}
