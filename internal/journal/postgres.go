package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// advisoryLockKey serialises Append across node processes sharing a database.
const advisoryLockKey = int64(7_340_112_905)

const (
	uniqueViolation = "23505"
	signatureIndex  = "tx_journal_signature_key"
)

const entryColumns = `slot, timestamp, signature, program, instruction, payer, data_hash, prev_hash, hash`

// PostgresJournal persists the journal to the tx_journal table. The genesis
// row is inserted by the schema migration.
type PostgresJournal struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres creates a PostgresJournal backed by the given connection pool.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *PostgresJournal {
	return &PostgresJournal{pool: pool, logger: logger}
}

func scanEntry(row pgx.Row) (*Entry, error) {
	e := &Entry{}
	err := row.Scan(
		&e.Index, &e.Timestamp, &e.Signature, &e.Program,
		&e.Instruction, &e.Payer, &e.DataHash, &e.PrevHash, &e.Hash,
	)
	return e, err
}

// Append implements Journal.
// It runs AppendTx in a transaction of its own.
func (j *PostgresJournal) Append(ctx context.Context, rec Record) (*Entry, error) {
	tx, err := j.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	entry, err := j.AppendTx(ctx, tx, rec)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit journal tx: %w", err)
	}
	return entry, nil
}

// AppendTx appends rec inside tx. It takes a transaction-scoped advisory
// lock, reads the chain tail, computes the new hash and inserts the entry.
// The entry only becomes visible when the caller commits tx.
func (j *PostgresJournal) AppendTx(ctx context.Context, tx pgx.Tx, rec Record) (*Entry, error) {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	var prevSlot int
	var prevHash string
	if err := tx.QueryRow(ctx,
		"SELECT slot, hash FROM tx_journal ORDER BY slot DESC LIMIT 1",
	).Scan(&prevSlot, &prevHash); err != nil {
		return nil, fmt.Errorf("read journal tail: %w", err)
	}

	entry := &Entry{
		Index:       prevSlot + 1,
		Timestamp:   now(),
		Signature:   rec.Signature,
		Program:     rec.Program,
		Instruction: rec.Instruction,
		Payer:       rec.Payer,
		DataHash:    sha256Sum(rec.Payload),
		PrevHash:    prevHash,
	}
	entry.Hash = hashEntry(entry)

	if _, err := tx.Exec(ctx,
		`INSERT INTO tx_journal (`+entryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.Index, entry.Timestamp, entry.Signature, entry.Program,
		entry.Instruction, entry.Payer, entry.DataHash, entry.PrevHash, entry.Hash,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == signatureIndex {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, rec.Signature)
		}
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}

	j.logger.Debug("journal entry appended",
		zap.Int("slot", entry.Index),
		zap.String("instruction", entry.Instruction),
		zap.String("signature", entry.Signature),
	)
	return entry, nil
}

// Get implements Journal.
func (j *PostgresJournal) Get(ctx context.Context, slot int) (*Entry, error) {
	e, err := scanEntry(j.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM tx_journal WHERE slot = $1`, slot,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("slot %d: %w", slot, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get journal entry %d: %w", slot, err)
	}
	return e, nil
}

// Len implements Journal.
func (j *PostgresJournal) Len(ctx context.Context) (int, error) {
	var n int
	if err := j.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tx_journal").Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}

// Verify implements Journal. It streams every row in slot order; O(n) in
// journal length.
func (j *PostgresJournal) Verify(ctx context.Context) error {
	rows, err := j.pool.Query(ctx, `SELECT `+entryColumns+` FROM tx_journal ORDER BY slot ASC`)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var prev *Entry
	for rows.Next() {
		curr, err := scanEntry(rows)
		if err != nil {
			return fmt.Errorf("scan journal row: %w", err)
		}
		if prev == nil {
			if curr.Hash != GenesisHash {
				return fmt.Errorf("genesis entry has wrong hash: got %q", curr.Hash)
			}
			prev = curr
			continue
		}
		if err := verifyLink(prev, curr); err != nil {
			return err
		}
		prev = curr
	}
	return rows.Err()
}

// Root implements Journal.
func (j *PostgresJournal) Root(ctx context.Context) (string, error) {
	var hash string
	if err := j.pool.QueryRow(ctx,
		"SELECT hash FROM tx_journal ORDER BY slot DESC LIMIT 1",
	).Scan(&hash); err != nil {
		return "", fmt.Errorf("get journal root: %w", err)
	}
	return hash, nil
}

// Contains implements Journal.
func (j *PostgresJournal) Contains(ctx context.Context, signature string) (bool, error) {
	if signature == "" {
		return false, nil
	}
	var ok bool
	if err := j.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM tx_journal WHERE signature = $1)", signature,
	).Scan(&ok); err != nil {
		return false, fmt.Errorf("look up signature: %w", err)
	}
	return ok, nil
}

// Ping reports whether the journal database is reachable.
func (j *PostgresJournal) Ping(ctx context.Context) error {
	return j.pool.Ping(ctx)
}
