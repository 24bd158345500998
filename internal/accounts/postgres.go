package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/linkboard/pkg/address"
	"go.uber.org/zap"
)

// PostgresStore persists accounts to the accounts table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a PostgresStore backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, addr address.Address) (*Account, error) {
	a := &Account{Address: addr}
	var owner []byte
	err := s.pool.QueryRow(ctx,
		`SELECT owner, lamports, data FROM accounts WHERE address = $1`, addr[:],
	).Scan(&owner, &a.Lamports, &a.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", addr, err)
	}
	if a.Owner, err = address.FromBytes(owner); err != nil {
		return nil, fmt.Errorf("account %s: owner column: %w", addr, err)
	}
	return a, nil
}

// TxHook runs inside an UpdateTx transaction after the account writes and
// before the commit. An error rolls the whole transaction back.
type TxHook func(ctx context.Context, tx pgx.Tx) error

// Update implements Store.
func (s *PostgresStore) Update(ctx context.Context, addrs []address.Address, fn UpdateFunc) error {
	return s.UpdateTx(ctx, addrs, fn, nil)
}

// UpdateTx is Update with an optional hook that writes more rows in the same
// database transaction.
// Rows are locked with SELECT … FOR UPDATE in address order, the callback
// runs against copies, changed accounts are upserted, then hook runs and
// the transaction commits.
func (s *PostgresStore) UpdateTx(ctx context.Context, addrs []address.Address, fn UpdateFunc, hook TxHook) error {
	if err := checkDistinct(addrs); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	keys := make([][]byte, len(addrs))
	for i, a := range addrs {
		keys[i] = a.Bytes()
	}

	rows, err := tx.Query(ctx,
		`SELECT address, owner, lamports, data FROM accounts
		 WHERE address = ANY($1) ORDER BY address FOR UPDATE`, keys,
	)
	if err != nil {
		return fmt.Errorf("lock accounts: %w", err)
	}
	loaded := make(map[address.Address]*Account, len(addrs))
	for rows.Next() {
		var rawAddr, rawOwner []byte
		a := &Account{}
		if err := rows.Scan(&rawAddr, &rawOwner, &a.Lamports, &a.Data); err != nil {
			rows.Close()
			return fmt.Errorf("scan account: %w", err)
		}
		if a.Address, err = address.FromBytes(rawAddr); err != nil {
			rows.Close()
			return fmt.Errorf("address column: %w", err)
		}
		if a.Owner, err = address.FromBytes(rawOwner); err != nil {
			rows.Close()
			return fmt.Errorf("owner column: %w", err)
		}
		loaded[a.Address] = a
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read accounts: %w", err)
	}

	before := make([]*Account, len(addrs))
	working := make([]*Account, len(addrs))
	for i, addr := range addrs {
		if a, ok := loaded[addr]; ok {
			before[i] = a
		} else {
			before[i] = empty(addr)
		}
		working[i] = before[i].Clone()
	}

	if err := fn(working); err != nil {
		return err
	}

	changed := 0
	for i, a := range working {
		a.Address = addrs[i]
		if a.Equal(before[i]) {
			continue
		}
		changed++
		if !a.Exists() {
			if _, err := tx.Exec(ctx, `DELETE FROM accounts WHERE address = $1`, a.Address[:]); err != nil {
				return fmt.Errorf("delete account %s: %w", a.Address, err)
			}
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO accounts (address, owner, lamports, data, updated_at)
			 VALUES ($1, $2, $3, $4, now())
			 ON CONFLICT (address) DO UPDATE
			 SET owner = EXCLUDED.owner, lamports = EXCLUDED.lamports,
			     data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
			a.Address[:], a.Owner[:], int64(a.Lamports), a.Data,
		); err != nil {
			return fmt.Errorf("write account %s: %w", a.Address, err)
		}
	}

	if hook != nil {
		if err := hook(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit accounts tx: %w", err)
	}

	s.logger.Debug("accounts updated",
		zap.Int("loaded", len(addrs)),
		zap.Int("changed", changed),
	)
	return nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
