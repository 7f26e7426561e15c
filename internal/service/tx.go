package service

import (
	"context"
	"database/sql"

	"github.com/bacready/bacready-api/internal/store"
)

// TxRunner runs a function within a database transaction. Services depend
// on this instead of *sql.DB so tests can substitute a pass-through runner.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn store.TxFn) error
}

// sqlTxRunner backs TxRunner with a real database connection.
type sqlTxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a TxRunner over the given database.
func NewTxRunner(db *sql.DB) TxRunner {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	return store.RunInTransaction(ctx, r.db, fn)
}
