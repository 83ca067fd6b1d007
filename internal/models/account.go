package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a bank account holder's balance row. The ID is the username
// assigned at registration and never changes.
type Account struct {
	ID        string          `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// BalanceChange is one compare-and-set unit applied by a store: the balance
// of AccountID moves from OldBalance to NewBalance, or the whole apply fails.
type BalanceChange struct {
	AccountID  string
	OldBalance decimal.Decimal
	NewBalance decimal.Decimal
}
