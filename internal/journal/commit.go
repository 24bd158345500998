package journal

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jmerrifield20/linkboard/internal/accounts"
	"github.com/jmerrifield20/linkboard/pkg/address"
)

// PostgresCommitter commits account changes and their journal entry in one
// database transaction, so an applied transaction always has a slot and a
// journal failure leaves the accounts untouched.
type PostgresCommitter struct {
	store   *accounts.PostgresStore
	journal *PostgresJournal
}

// NewPostgresCommitter pairs a store and a journal that share a database.
func NewPostgresCommitter(store *accounts.PostgresStore, jrnl *PostgresJournal) *PostgresCommitter {
	return &PostgresCommitter{store: store, journal: jrnl}
}

// Commit runs fn over addrs like Store.Update and appends rec before the
// transaction commits.
func (c *PostgresCommitter) Commit(ctx context.Context, addrs []address.Address, fn accounts.UpdateFunc, rec Record) (*Entry, error) {
	var entry *Entry
	err := c.store.UpdateTx(ctx, addrs, fn, func(ctx context.Context, tx pgx.Tx) error {
		e, err := c.journal.AppendTx(ctx, tx, rec)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
