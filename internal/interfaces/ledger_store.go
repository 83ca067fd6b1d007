package interfaces

import (
	"context"
	"time"

	"github.com/simplebank/ledger-engine/internal/models"
)

// LedgerStore is the persistence contract the ledger engine depends on: an
// accounts table plus an append-only transaction log. Any ACID-capable
// backend satisfies it; the one hard requirement is ApplyTransaction's
// atomicity.
type LedgerStore interface {
	// CreateAccount inserts a new account. Returns models.ErrAccountExists
	// if the id is taken.
	CreateAccount(ctx context.Context, account models.Account) error

	// GetAccount returns the committed state of one account, or
	// models.ErrNotFound.
	GetAccount(ctx context.Context, accountID string) (models.Account, error)

	// ApplyTransaction applies every balance change and appends the record
	// as one atomic unit: no reader may observe a balance that reflects the
	// mutation without the record existing, or vice versa. Each change is a
	// compare-and-set on OldBalance; any mismatch aborts the whole apply
	// with models.ErrConflict. The store assigns the record's ID from its
	// monotonic sequence and returns the stored record.
	ApplyTransaction(ctx context.Context, changes []models.BalanceChange, record models.Transaction) (models.Transaction, error)

	// ListByAccount returns every record where the account is sender or
	// receiver, newest first (timestamp descending, then id descending).
	ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)

	// ListByAccountBetween is ListByAccount restricted to records whose
	// timestamp lies in [from, to] inclusive.
	ListByAccountBetween(ctx context.Context, accountID string, from, to time.Time) ([]models.Transaction, error)
}
