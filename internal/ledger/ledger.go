// Package ledger implements the balance-mutation and transaction-recording
// engine. Every mutating operation is serializable per account: the balance
// read, the funds check, and the write happen inside one critical section,
// and the store applies the balance change together with the ledger append
// as a single atomic unit.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simplebank/ledger-engine/internal/interfaces"
	"github.com/simplebank/ledger-engine/internal/models"
	"github.com/simplebank/ledger-engine/internal/models/events"
)

// maxApplyRetries bounds transparent retries of conflicted applies before
// models.ErrConflict is surfaced to the caller.
const maxApplyRetries = 3

// Ledger orchestrates credit, debit, and transfer against a LedgerStore.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher
	topic     string

	muMap map[string]*sync.Mutex // per-account lock, lazily created
	mapMu sync.Mutex             // protects muMap itself
}

// NewLedger creates an engine on top of any store implementation
// (memory, postgres, ...).
func NewLedger(store interfaces.LedgerStore) *Ledger {
	return &Ledger{
		store: store,
		muMap: make(map[string]*sync.Mutex),
	}
}

// SetPublisher enables best-effort post-commit event publication on the
// given topic. Publish failures are logged, never returned to callers.
func (l *Ledger) SetPublisher(p interfaces.EventPublisher, topic string) {
	l.publisher = p
	l.topic = topic
}

func (l *Ledger) getAccountLock(accountID string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[accountID]; !exists {
		l.muMap[accountID] = &sync.Mutex{}
	}
	return l.muMap[accountID]
}

// OpenAccount creates a zero-balance account. Registration and credential
// handling live outside the engine; this is the hook they call.
func (l *Ledger) OpenAccount(ctx context.Context, accountID string) (models.Account, error) {
	if strings.TrimSpace(accountID) == "" {
		return models.Account{}, fmt.Errorf("ledger: empty account id")
	}
	acct := models.Account{
		ID:        accountID,
		Balance:   decimal.Zero,
		CreatedAt: time.Now(),
	}
	if err := l.store.CreateAccount(ctx, acct); err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

// GetBalance returns the committed balance, models.ErrNotFound for an
// unknown account. Reads take no lock; they see whatever state is committed
// at the time of the read.
func (l *Ledger) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	acct, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Balance, nil
}

// Credit increases the account's balance by amount and appends a CREDIT
// record with the account as receiver.
func (l *Ledger) Credit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return models.Transaction{}, err
	}
	desc := normalizeDescription(description, "Account credited")

	// Publication happens after the critical section: the account lock is
	// released as soon as the mutation has committed, so a slow broker never
	// stalls other operations on the account.
	var rec models.Transaction
	err := func() error {
		mu := l.getAccountLock(accountID)
		mu.Lock()
		defer mu.Unlock()

		return l.applyWithRetry(func() error {
			acct, err := l.store.GetAccount(ctx, accountID)
			if err != nil {
				return err
			}
			record := models.Transaction{
				Receiver:    &accountID,
				Amount:      amount,
				Timestamp:   time.Now(),
				Type:        models.TypeCredit,
				Description: desc,
			}
			changes := []models.BalanceChange{{
				AccountID:  accountID,
				OldBalance: acct.Balance,
				NewBalance: acct.Balance.Add(amount),
			}}
			rec, err = l.store.ApplyTransaction(ctx, changes, record)
			return err
		})
	}()
	if err != nil {
		return models.Transaction{}, err
	}
	l.publish(rec)
	return rec, nil
}

// Debit decreases the account's balance by amount and appends a DEBIT record
// with the account as sender. The funds check runs against the balance read
// inside the same atomic attempt, never a stale snapshot.
func (l *Ledger) Debit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return models.Transaction{}, err
	}
	desc := normalizeDescription(description, "Account debited")

	var rec models.Transaction
	err := func() error {
		mu := l.getAccountLock(accountID)
		mu.Lock()
		defer mu.Unlock()

		return l.applyWithRetry(func() error {
			acct, err := l.store.GetAccount(ctx, accountID)
			if err != nil {
				return err
			}
			if acct.Balance.LessThan(amount) {
				return models.ErrInsufficientFunds
			}
			record := models.Transaction{
				Sender:      &accountID,
				Amount:      amount,
				Timestamp:   time.Now(),
				Type:        models.TypeDebit,
				Description: desc,
			}
			changes := []models.BalanceChange{{
				AccountID:  accountID,
				OldBalance: acct.Balance,
				NewBalance: acct.Balance.Sub(amount),
			}}
			rec, err = l.store.ApplyTransaction(ctx, changes, record)
			return err
		})
	}()
	if err != nil {
		return models.Transaction{}, err
	}
	l.publish(rec)
	return rec, nil
}

// Transfer atomically moves amount from one account to another and appends
// exactly one TRANSFER record referencing both.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal, description string) (models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return models.Transaction{}, err
	}
	if fromID == toID {
		return models.Transaction{}, models.ErrSelfTransfer
	}
	desc := normalizeDescription(description, fmt.Sprintf("Transfer from %s to %s", fromID, toID))

	var rec models.Transaction
	err := func() error {
		senderMu := l.getAccountLock(fromID)
		receiverMu := l.getAccountLock(toID)

		// Lock in account-id order regardless of role so two
		// opposite-direction transfers on the same pair can never deadlock.
		if fromID < toID {
			senderMu.Lock()
			receiverMu.Lock()
		} else {
			receiverMu.Lock()
			senderMu.Lock()
		}
		defer senderMu.Unlock()
		defer receiverMu.Unlock()

		return l.applyWithRetry(func() error {
			sender, err := l.store.GetAccount(ctx, fromID)
			if err != nil {
				return err
			}
			receiver, err := l.store.GetAccount(ctx, toID)
			if err != nil {
				return err
			}
			if sender.Balance.LessThan(amount) {
				return models.ErrInsufficientFunds
			}
			record := models.Transaction{
				Sender:      &fromID,
				Receiver:    &toID,
				Amount:      amount,
				Timestamp:   time.Now(),
				Type:        models.TypeTransfer,
				Description: desc,
			}
			changes := []models.BalanceChange{
				{AccountID: fromID, OldBalance: sender.Balance, NewBalance: sender.Balance.Sub(amount)},
				{AccountID: toID, OldBalance: receiver.Balance, NewBalance: receiver.Balance.Add(amount)},
			}
			if changes[0].AccountID > changes[1].AccountID {
				changes[0], changes[1] = changes[1], changes[0]
			}
			rec, err = l.store.ApplyTransaction(ctx, changes, record)
			return err
		})
	}()
	if err != nil {
		return models.Transaction{}, err
	}
	l.publish(rec)
	return rec, nil
}

// applyWithRetry runs one read-check-apply attempt, transparently retrying
// when a concurrent writer invalidated the balance read. Any other error
// aborts immediately with no state change.
func (l *Ledger) applyWithRetry(attempt func() error) error {
	var err error
	for i := 0; i < maxApplyRetries; i++ {
		err = attempt()
		if !errors.Is(err, models.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("ledger: gave up after %d attempts: %w", maxApplyRetries, models.ErrConflict)
}

// publish emits the post-commit event, keyed by the initiating account
// (sender when present, receiver otherwise). Callers invoke it after
// releasing the account locks.
func (l *Ledger) publish(rec models.Transaction) {
	if l.publisher == nil {
		return
	}
	key := ""
	if rec.Sender != nil {
		key = *rec.Sender
	} else if rec.Receiver != nil {
		key = *rec.Receiver
	}
	evt := events.TransactionPosted{
		EventID:       uuid.NewString(),
		TransactionID: rec.ID,
		Type:          string(rec.Type),
		Sender:        rec.Sender,
		Receiver:      rec.Receiver,
		Amount:        rec.Amount,
		OccurredAt:    rec.Timestamp,
	}
	if err := l.publisher.Publish(l.topic, key, evt); err != nil {
		log.Printf("ledger: publish record %d: %v", rec.ID, err)
	}
}

// validateAmount rejects non-positive amounts and amounts finer than the
// ledger's fixed scale of two decimal places. Trailing zeros are fine:
// 10.000 is exactly representable at scale 2, 0.005 is not.
func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 || !amount.Equal(amount.Truncate(2)) {
		return models.ErrInvalidAmount
	}
	return nil
}

func normalizeDescription(description, fallback string) string {
	if description == "" {
		return fallback
	}
	if r := []rune(description); len(r) > models.MaxDescriptionLen {
		return string(r[:models.MaxDescriptionLen])
	}
	return description
}
