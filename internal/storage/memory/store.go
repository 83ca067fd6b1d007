// Package memory is an in-memory LedgerStore for tests and single-process
// deployments. All state lives behind one mutex; query methods hand out
// copies so callers can never reach internal state.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/simplebank/ledger-engine/internal/interfaces"
	"github.com/simplebank/ledger-engine/internal/models"
)

type MemoryLedgerStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	log      []models.Transaction
	nextID   int64 // monotonic record sequence, next value to assign
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts: make(map[string]models.Account),
		nextID:   1,
	}
}

func (m *MemoryLedgerStore) CreateAccount(ctx context.Context, account models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.ID]; exists {
		return models.ErrAccountExists
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context, accountID string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[accountID]
	if !ok {
		return models.Account{}, models.ErrNotFound
	}
	return acct, nil
}

// ApplyTransaction verifies every compare-and-set, then writes all balances
// and appends the record while still holding the store lock, so readers see
// either none of the mutation or all of it.
func (m *MemoryLedgerStore) ApplyTransaction(ctx context.Context, changes []models.BalanceChange, record models.Transaction) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range changes {
		acct, ok := m.accounts[ch.AccountID]
		if !ok {
			return models.Transaction{}, models.ErrNotFound
		}
		if !acct.Balance.Equal(ch.OldBalance) {
			return models.Transaction{}, models.ErrConflict
		}
	}
	for _, ch := range changes {
		acct := m.accounts[ch.AccountID]
		acct.Balance = ch.NewBalance
		m.accounts[ch.AccountID] = acct
	}

	record.ID = m.nextID
	m.nextID++
	m.log = append(m.log, record)
	return record, nil
}

func (m *MemoryLedgerStore) ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Transaction
	for _, t := range m.log {
		if t.Involves(accountID) {
			result = append(result, t)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MemoryLedgerStore) ListByAccountBetween(ctx context.Context, accountID string, from, to time.Time) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Transaction
	for _, t := range m.log {
		if !t.Involves(accountID) {
			continue
		}
		if t.Timestamp.Before(from) || t.Timestamp.After(to) {
			continue
		}
		result = append(result, t)
	}
	sortNewestFirst(result)
	return result, nil
}

func sortNewestFirst(ts []models.Transaction) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].Timestamp.Equal(ts[j].Timestamp) {
			return ts[i].Timestamp.After(ts[j].Timestamp)
		}
		return ts[i].ID > ts[j].ID
	})
}

// Compile-time check: MemoryLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
