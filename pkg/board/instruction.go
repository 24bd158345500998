package board

import (
	"unicode/utf8"

	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/txn"
	"github.com/jmerrifield20/linkboard/pkg/wire"
)

// Instruction names accepted by the board program.
const (
	InstructionInitialize = "initialize"
	InstructionAppend     = "append"
)

var (
	initializeDiscriminator = discriminator("global:" + InstructionInitialize)
	appendDiscriminator     = discriminator("global:" + InstructionAppend)
)

// InitializeMessage builds the message that creates a board at boardAddr,
// funded by payer. Both must sign.
//
// Accounts: [board (signer, writable), payer (signer, writable), system program].
func InitializeMessage(boardAddr, payer address.Address, nonce uint64) txn.Message {
	return txn.Message{
		ProgramID: ProgramID,
		Accounts: []txn.AccountMeta{
			{Address: boardAddr, Signer: true, Writable: true},
			{Address: payer, Signer: true, Writable: true},
			{Address: address.SystemProgram},
		},
		Data:  append([]byte(nil), initializeDiscriminator[:]...),
		Nonce: nonce,
	}
}

// AppendMessage builds the message that appends link to the board at
// boardAddr on behalf of submitter, who must sign.
//
// Accounts: [board (writable), submitter (signer, writable)].
func AppendMessage(boardAddr, submitter address.Address, link string, nonce uint64) txn.Message {
	w := wire.NewWriter(DiscriminatorSize + 4 + len(link))
	w.WriteFixed(appendDiscriminator[:])
	w.WriteString(link)
	return txn.Message{
		ProgramID: ProgramID,
		Accounts: []txn.AccountMeta{
			{Address: boardAddr, Writable: true},
			{Address: submitter, Signer: true, Writable: true},
		},
		Data:  w.Bytes(),
		Nonce: nonce,
	}
}

// ParseInstruction splits instruction data into the instruction name and its
// encoded arguments.
func ParseInstruction(data []byte) (name string, args []byte, err error) {
	if len(data) < DiscriminatorSize {
		return "", nil, ErrInstructionMissing
	}
	var d [DiscriminatorSize]byte
	copy(d[:], data)
	switch d {
	case initializeDiscriminator:
		return InstructionInitialize, data[DiscriminatorSize:], nil
	case appendDiscriminator:
		return InstructionAppend, data[DiscriminatorSize:], nil
	default:
		return "", nil, ErrInstructionUnknown
	}
}

// DecodeAppendArgs decodes the link argument of an append instruction.
// Trailing bytes and links that are not valid UTF-8 are rejected.
func DecodeAppendArgs(args []byte) (string, error) {
	r := wire.NewReader(args)
	link, err := r.ReadString()
	if err != nil {
		return "", ErrInstructionDidNotDeserialize.withDetail("%v", err)
	}
	if !utf8.ValidString(link) {
		return "", ErrInstructionDidNotDeserialize.withDetail("link is not valid UTF-8")
	}
	if r.Remaining() != 0 {
		return "", ErrInstructionDidNotDeserialize.withDetail("%d trailing bytes", r.Remaining())
	}
	return link, nil
}
