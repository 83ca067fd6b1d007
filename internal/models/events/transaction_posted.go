package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionPosted is published after a mutation has committed.
type TransactionPosted struct {
	EventID       string          `json:"event_id"`
	TransactionID int64           `json:"transaction_id"`
	Type          string          `json:"type"`
	Sender        *string         `json:"sender"`
	Receiver      *string         `json:"receiver"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
