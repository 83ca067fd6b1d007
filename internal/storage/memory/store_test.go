package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplebank/ledger-engine/internal/models"
)

func openAccount(t *testing.T, store *MemoryLedgerStore, id, balance string) {
	t.Helper()
	err := store.CreateAccount(context.Background(), models.Account{
		ID:        id,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestCreateAccountDuplicate(t *testing.T) {
	store := NewMemoryLedgerStore()
	openAccount(t, store, "alice", "0")

	err := store.CreateAccount(context.Background(), models.Account{ID: "alice"})
	assert.ErrorIs(t, err, models.ErrAccountExists)
}

func TestGetAccountNotFound(t *testing.T) {
	store := NewMemoryLedgerStore()
	_, err := store.GetAccount(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestApplyTransactionAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	openAccount(t, store, "alice", "0")

	alice := "alice"
	for want := int64(1); want <= 3; want++ {
		rec, err := store.ApplyTransaction(ctx, nil, models.Transaction{
			Receiver:  &alice,
			Amount:    decimal.RequireFromString("1.00"),
			Timestamp: time.Now(),
			Type:      models.TypeCredit,
		})
		require.NoError(t, err)
		assert.Equal(t, want, rec.ID)
	}
}

func TestApplyTransactionCASMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	openAccount(t, store, "alice", "100.00")

	alice := "alice"
	_, err := store.ApplyTransaction(ctx, []models.BalanceChange{{
		AccountID:  "alice",
		OldBalance: decimal.RequireFromString("90.00"), // stale read
		NewBalance: decimal.RequireFromString("80.00"),
	}}, models.Transaction{
		Sender:    &alice,
		Amount:    decimal.RequireFromString("10.00"),
		Timestamp: time.Now(),
		Type:      models.TypeDebit,
	})
	assert.ErrorIs(t, err, models.ErrConflict)

	acct, err := store.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.RequireFromString("100.00")))

	records, err := store.ListByAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, records, "a failed apply must leave no record")
}

func TestApplyTransactionUnknownAccount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	_, err := store.ApplyTransaction(ctx, []models.BalanceChange{{
		AccountID:  "ghost",
		OldBalance: decimal.Zero,
		NewBalance: decimal.RequireFromString("5.00"),
	}}, models.Transaction{Type: models.TypeCredit, Timestamp: time.Now()})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestApplyTransactionAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	openAccount(t, store, "alice", "100.00")
	openAccount(t, store, "bob", "50.00")

	alice, bob := "alice", "bob"
	// Second change carries a stale read; neither balance may move.
	_, err := store.ApplyTransaction(ctx, []models.BalanceChange{
		{AccountID: "alice", OldBalance: decimal.RequireFromString("100.00"), NewBalance: decimal.RequireFromString("90.00")},
		{AccountID: "bob", OldBalance: decimal.RequireFromString("49.00"), NewBalance: decimal.RequireFromString("59.00")},
	}, models.Transaction{
		Sender:    &alice,
		Receiver:  &bob,
		Amount:    decimal.RequireFromString("10.00"),
		Timestamp: time.Now(),
		Type:      models.TypeTransfer,
	})
	assert.ErrorIs(t, err, models.ErrConflict)

	acct, _ := store.GetAccount(ctx, "alice")
	assert.True(t, acct.Balance.Equal(decimal.RequireFromString("100.00")))
	acct, _ = store.GetAccount(ctx, "bob")
	assert.True(t, acct.Balance.Equal(decimal.RequireFromString("50.00")))
}
