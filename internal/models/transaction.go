package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger record.
type TransactionType string

const (
	TypeCredit   TransactionType = "CREDIT"   // money added to an account
	TypeDebit    TransactionType = "DEBIT"    // money removed from an account
	TypeTransfer TransactionType = "TRANSFER" // money moved between two accounts
)

// MaxDescriptionLen bounds the free-text description on a record.
const MaxDescriptionLen = 500

// Transaction is one immutable ledger record. Sender is nil for CREDIT,
// Receiver is nil for DEBIT, and TRANSFER carries both. The ID is assigned
// by the store from a monotonic sequence; records are never updated or
// deleted after the apply that created them.
type Transaction struct {
	ID          int64           `json:"id"`
	Sender      *string         `json:"sender"`
	Receiver    *string         `json:"receiver"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description,omitempty"`
}

// Involves reports whether the account appears on either side of the record.
func (t Transaction) Involves(accountID string) bool {
	if t.Sender != nil && *t.Sender == accountID {
		return true
	}
	return t.Receiver != nil && *t.Receiver == accountID
}
