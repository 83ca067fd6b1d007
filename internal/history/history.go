// Package history is the read side of the ledger: it answers per-account
// transaction-history queries against the append-only log. It never mutates
// anything.
package history

import (
	"context"
	"time"

	"github.com/simplebank/ledger-engine/internal/interfaces"
	"github.com/simplebank/ledger-engine/internal/models"
)

// Service reads the transaction log for reporting.
type Service struct {
	store interfaces.LedgerStore
}

func NewService(store interfaces.LedgerStore) *Service {
	return &Service{store: store}
}

// List returns every record where the account is sender or receiver, newest
// first (timestamp descending, ties broken by descending record id).
func (s *Service) List(ctx context.Context, accountID string) ([]models.Transaction, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.ListByAccount(ctx, accountID)
}

// ListRange is List restricted to a calendar-date window. fromDate and
// toDate are dates, not instants: the window is expanded to
// [fromDate 00:00:00, toDate 23:59:59.999999999] in each date's location
// before filtering, both ends inclusive.
func (s *Service) ListRange(ctx context.Context, accountID string, fromDate, toDate time.Time) ([]models.Transaction, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	from := startOfDay(fromDate)
	to := endOfDay(toDate)
	return s.store.ListByAccountBetween(ctx, accountID, from, to)
}

func startOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location())
}

func endOfDay(d time.Time) time.Time {
	return startOfDay(d).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
