package models

import "errors"

// Domain errors returned by the ledger engine and its stores. Mutating
// operations guarantee no partial state change when any of these is returned.
var (
	// ErrInvalidAmount: the amount is zero, negative, or finer than two
	// decimal places.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrNotFound: the account id does not resolve.
	ErrNotFound = errors.New("account not found")

	// ErrInsufficientFunds: a debit or transfer exceeds the sender's balance.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrSelfTransfer: transfer source and target are the same account.
	ErrSelfTransfer = errors.New("cannot transfer money to yourself")

	// ErrConflict: a concurrent writer invalidated the balance read. The
	// engine retries these a bounded number of times before surfacing one.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrAccountExists: an account with that id has already been opened.
	ErrAccountExists = errors.New("account already exists")
)
