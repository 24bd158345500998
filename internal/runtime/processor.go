package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmerrifield20/linkboard/internal/accounts"
	"github.com/jmerrifield20/linkboard/internal/journal"
	"github.com/jmerrifield20/linkboard/internal/replay"
	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/txn"
	"github.com/jmerrifield20/linkboard/pkg/wire"
	"go.uber.org/zap"
)

// InstructionAirdrop is the journal instruction name of faucet credits.
const InstructionAirdrop = "airdrop"

// Results passed to a ResultRecordFunc.
const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// ResultRecordFunc is called once per processed transaction with the
// instruction name ("unknown" if it never resolved) and its result.
type ResultRecordFunc func(instruction, result string)

// JournalGapRecordFunc is called when an applied transaction could not be
// journaled.
type JournalGapRecordFunc func(instruction string)

// Processor applies transactions to the account store.
type Processor struct {
	store      accounts.Store
	journal    journal.Journal // nil = no journal writes
	guard      replay.Guard
	programs   map[address.Address]Program
	locks      lockTable
	rent       Rent
	committer  Committer // nil = Store.Update, then Journal.Append
	maxAirdrop uint64    // 0 = unlimited
	onResult   ResultRecordFunc
	onGap      JournalGapRecordFunc
	logger     *zap.Logger
}

// NewProcessor creates a Processor. jrnl may be nil to disable journaling.
func NewProcessor(store accounts.Store, jrnl journal.Journal, guard replay.Guard, logger *zap.Logger) *Processor {
	return &Processor{
		store:    store,
		journal:  jrnl,
		guard:    guard,
		programs: make(map[address.Address]Program),
		rent:     DefaultRent,
		logger:   logger,
	}
}

// Register makes prog invocable. Registering the same ID twice replaces the
// earlier program.
func (p *Processor) Register(prog Program) {
	p.programs[prog.ID()] = prog
}

// SetRent replaces the rent schedule.
func (p *Processor) SetRent(r Rent) { p.rent = r }

// Rent returns the rent schedule in force.
func (p *Processor) Rent() Rent { return p.rent }

// SetMaxAirdrop caps the lamports a single Airdrop may credit.
func (p *Processor) SetMaxAirdrop(lamports uint64) { p.maxAirdrop = lamports }

// SetResultRecord installs a callback for per-transaction metrics.
func (p *Processor) SetResultRecord(fn ResultRecordFunc) { p.onResult = fn }

// SetJournalGapRecord installs a callback for applied transactions that
// missed the journal.
func (p *Processor) SetJournalGapRecord(fn JournalGapRecordFunc) { p.onGap = fn }

// SetCommitter makes c commit account changes together with their journal
// entry. c must write to the same store and journal the Processor was
// created with.
func (p *Processor) SetCommitter(c Committer) { p.committer = c }

// Store returns the account store the processor writes to.
func (p *Processor) Store() accounts.Store { return p.store }

// Process verifies tx and applies it. The account writes of an applied
// transaction are committed atomically; a rejected transaction changes
// nothing.
func (p *Processor) Process(ctx context.Context, tx *txn.Transaction) (*Receipt, error) {
	instruction := "unknown"
	receipt, rejected, err := p.process(ctx, tx, &instruction)
	switch {
	case err == nil:
		p.record(instruction, ResultApplied)
	case rejected:
		p.record(instruction, ResultRejected)
		p.logger.Warn("transaction rejected",
			zap.String("signature", tx.ID()),
			zap.String("instruction", instruction),
			zap.Error(err),
		)
	default:
		p.record(instruction, ResultError)
		p.logger.Error("transaction failed",
			zap.String("signature", tx.ID()),
			zap.String("instruction", instruction),
			zap.Error(err),
		)
	}
	return receipt, err
}

func (p *Processor) process(ctx context.Context, tx *txn.Transaction, instruction *string) (_ *Receipt, rejected bool, _ error) {
	msg := &tx.Message
	prog, ok := p.programs[msg.ProgramID]
	if !ok {
		return nil, true, fmt.Errorf("%w: %s", ErrUnknownProgram, msg.ProgramID)
	}
	if err := tx.Verify(); err != nil {
		return nil, true, err
	}
	addrs, err := distinctAddresses(msg.Accounts)
	if err != nil {
		return nil, true, err
	}

	ins, args, err := prog.Resolve(msg.Data)
	if err != nil {
		return nil, true, err
	}
	*instruction = ins.Name
	if len(ins.Accounts) != len(msg.Accounts) {
		return nil, true, fmt.Errorf("%w: %s expects %d accounts, got %d",
			ErrAccountAccessMismatch, ins.Name, len(ins.Accounts), len(msg.Accounts))
	}

	id := tx.ID()
	reserved, err := p.guard.Reserve(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("replay guard: %w", err)
	}
	if !reserved {
		return nil, true, fmt.Errorf("%w: %s", ErrAlreadyProcessed, id)
	}
	if p.journal != nil {
		seen, err := p.journal.Contains(ctx, id)
		if err != nil {
			p.release(ctx, id)
			return nil, false, fmt.Errorf("journal lookup: %w", err)
		}
		if seen {
			return nil, true, fmt.Errorf("%w: %s", ErrAlreadyProcessed, id)
		}
	}

	unlock := p.locks.lock(msg.Accounts)
	defer unlock()
	rec := journal.Record{
		Signature:   id,
		Program:     msg.ProgramID.String(),
		Instruction: ins.Name,
		Payer:       msg.FeePayer().String(),
		Payload:     msg.Bytes(),
	}
	var execErr error
	slot, err := p.commit(ctx, addrs, func(accts []*accounts.Account) error {
		before := make([]*accounts.Account, len(accts))
		for i, a := range accts {
			before[i] = a.Clone()
		}
		ic := &InvokeContext{
			ctx:       ctx,
			ProgramID: msg.ProgramID,
			Accounts:  accts,
			Metas:     msg.Accounts,
			Args:      args,
			rent:      p.rent,
		}
		if execErr = ins.Execute(ic); execErr != nil {
			return execErr
		}
		execErr = checkTransition(msg.ProgramID, msg.Accounts, before, accts)
		return execErr
	}, rec)
	if err != nil {
		if errors.Is(err, journal.ErrDuplicate) {
			return nil, true, fmt.Errorf("%w: %s", ErrAlreadyProcessed, id)
		}
		p.release(ctx, id)
		if execErr != nil && errors.Is(err, execErr) {
			return nil, true, err
		}
		return nil, false, fmt.Errorf("commit %s: %w", ins.Name, err)
	}

	p.logger.Debug("transaction applied",
		zap.String("signature", id),
		zap.String("instruction", ins.Name),
		zap.Int("slot", slot),
	)
	return &Receipt{Signature: id, Instruction: ins.Name, Slot: slot}, false, nil
}

// Airdrop credits lamports to addr out of thin air. It is the node's faucet
// and returns the new balance.
func (p *Processor) Airdrop(ctx context.Context, to address.Address, lamports uint64) (*Receipt, uint64, error) {
	if lamports == 0 || to.IsZero() {
		return nil, 0, ErrInvalidAirdrop
	}
	if p.maxAirdrop > 0 && lamports > p.maxAirdrop {
		return nil, 0, fmt.Errorf("%w: %d > %d", ErrAirdropLimit, lamports, p.maxAirdrop)
	}

	w := wire.NewWriter(40)
	w.WriteFixed(to[:])
	w.WriteU64(lamports)
	id := uuid.NewString()
	rec := journal.Record{
		Signature:   id,
		Program:     address.SystemProgram.String(),
		Instruction: InstructionAirdrop,
		Payer:       to.String(),
		Payload:     w.Bytes(),
	}

	unlock := p.locks.lock([]txn.AccountMeta{{Address: to, Writable: true}})
	defer unlock()
	var balance uint64
	slot, err := p.commit(ctx, []address.Address{to}, func(accts []*accounts.Account) error {
		a := accts[0]
		if a.Lamports+lamports < a.Lamports {
			return fmt.Errorf("%w: balance overflow", ErrInvalidAirdrop)
		}
		a.Lamports += lamports
		balance = a.Lamports
		return nil
	}, rec)
	if err != nil {
		p.record(InstructionAirdrop, ResultError)
		return nil, 0, fmt.Errorf("airdrop: %w", err)
	}
	p.record(InstructionAirdrop, ResultApplied)

	p.logger.Info("airdrop",
		zap.String("to", to.String()),
		zap.Uint64("lamports", lamports),
		zap.Uint64("balance", balance),
	)
	return &Receipt{Signature: id, Instruction: InstructionAirdrop, Slot: slot}, balance, nil
}

// commit applies fn to addrs and journals rec, returning the journal slot.
// Through a Committer both happen atomically. Otherwise the accounts are
// committed first and a failed journal append is logged and counted rather
// than returned, since the state change can no longer be undone.
func (p *Processor) commit(ctx context.Context, addrs []address.Address, fn accounts.UpdateFunc, rec journal.Record) (int, error) {
	if p.committer != nil {
		entry, err := p.committer.Commit(ctx, addrs, fn, rec)
		if err != nil {
			return 0, err
		}
		return entry.Index, nil
	}
	if err := p.store.Update(ctx, addrs, fn); err != nil {
		return 0, err
	}
	if p.journal == nil {
		return 0, nil
	}
	entry, err := p.journal.Append(ctx, rec)
	if err != nil {
		p.logger.Error("journal append failed after commit",
			zap.String("signature", rec.Signature),
			zap.String("instruction", rec.Instruction),
			zap.Error(err),
		)
		if p.onGap != nil {
			p.onGap(rec.Instruction)
		}
		return 0, nil
	}
	return entry.Index, nil
}

func (p *Processor) release(ctx context.Context, id string) {
	if err := p.guard.Release(ctx, id); err != nil {
		p.logger.Warn("release replay reservation", zap.String("signature", id), zap.Error(err))
	}
}

func (p *Processor) record(instruction, result string) {
	if p.onResult != nil {
		p.onResult(instruction, result)
	}
}

func distinctAddresses(metas []txn.AccountMeta) ([]address.Address, error) {
	seen := make(map[address.Address]struct{}, len(metas))
	out := make([]address.Address, 0, len(metas))
	for _, m := range metas {
		if _, dup := seen[m.Address]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, m.Address)
		}
		seen[m.Address] = struct{}{}
		out = append(out, m.Address)
	}
	return out, nil
}

// checkTransition enforces the account rules described in the package doc.
func checkTransition(programID address.Address, metas []txn.AccountMeta, before, after []*accounts.Account) error {
	var sumBefore, sumAfter uint64
	for i, m := range metas {
		b, a := before[i], after[i]
		sumBefore += b.Lamports
		sumAfter += a.Lamports

		if b.Equal(a) {
			continue
		}
		if !m.Writable {
			return fmt.Errorf("%w: %s", ErrReadonlyModified, m.Address)
		}
		if a.Owner != b.Owner || !bytes.Equal(a.Data, b.Data) {
			fresh := !b.Exists() && a.Owner == programID
			if b.Owner != programID && !fresh {
				return fmt.Errorf("%w: %s", ErrExternalAccountModified, m.Address)
			}
		}
		if a.Lamports < b.Lamports && b.Owner != programID && !m.Signer {
			return fmt.Errorf("%w: %s", ErrExternalLamportSpend, m.Address)
		}
	}
	if sumBefore != sumAfter {
		return fmt.Errorf("%w: %d before, %d after", ErrUnbalancedLamports, sumBefore, sumAfter)
	}
	return nil
}
