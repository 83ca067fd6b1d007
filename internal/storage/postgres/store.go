// Package postgres is the PostgreSQL LedgerStore, built on database/sql and
// lib/pq. Balance updates are conditional on the previously read balance, so
// the engine's compare-and-set contract holds across processes, not just
// within one.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/simplebank/ledger-engine/internal/interfaces"
	"github.com/simplebank/ledger-engine/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id         TEXT PRIMARY KEY,
	balance    NUMERIC(15,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
	id          BIGSERIAL PRIMARY KEY,
	sender_id   TEXT REFERENCES accounts(id),
	receiver_id TEXT REFERENCES accounts(id),
	amount      NUMERIC(15,2) NOT NULL CHECK (amount > 0),
	type        TEXT NOT NULL,
	description VARCHAR(500),
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions (sender_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_receiver ON transactions (receiver_id, created_at DESC);
`

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{db: db}
}

// Migrate creates the accounts and transactions tables if missing.
func (p *PostgresLedgerStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *PostgresLedgerStore) CreateAccount(ctx context.Context, account models.Account) error {
	const query = `INSERT INTO accounts (id, balance, created_at) VALUES ($1, $2, $3)`

	_, err := p.db.ExecContext(ctx, query, account.ID, account.Balance, account.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return models.ErrAccountExists
	}
	return err
}

func (p *PostgresLedgerStore) GetAccount(ctx context.Context, accountID string) (models.Account, error) {
	const query = `SELECT id, balance, created_at FROM accounts WHERE id = $1`

	var acct models.Account
	err := p.db.QueryRowContext(ctx, query, accountID).Scan(&acct.ID, &acct.Balance, &acct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, models.ErrNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

// ApplyTransaction runs every balance compare-and-set plus the record insert
// in one serializable database transaction. A balance that moved since the
// engine's read, or a serialization failure, surfaces as models.ErrConflict
// for the engine to retry.
func (p *PostgresLedgerStore) ApplyTransaction(ctx context.Context, changes []models.BalanceChange, record models.Transaction) (models.Transaction, error) {
	dbTx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return models.Transaction{}, err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	const updateQuery = `UPDATE accounts SET balance = $1 WHERE id = $2 AND balance = $3`
	for _, ch := range changes {
		var res sql.Result
		res, err = dbTx.ExecContext(ctx, updateQuery, ch.NewBalance, ch.AccountID, ch.OldBalance)
		if err != nil {
			return models.Transaction{}, mapConflict(err)
		}
		var n int64
		n, err = res.RowsAffected()
		if err != nil {
			return models.Transaction{}, err
		}
		if n == 0 {
			err = models.ErrConflict
			return models.Transaction{}, err
		}
	}

	const insertQuery = `INSERT INTO transactions (sender_id, receiver_id, amount, type, description, created_at)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err = dbTx.QueryRowContext(ctx, insertQuery,
		record.Sender, record.Receiver, record.Amount, record.Type, record.Description, record.Timestamp,
	).Scan(&record.ID)
	if err != nil {
		return models.Transaction{}, mapConflict(err)
	}

	if err = dbTx.Commit(); err != nil {
		return models.Transaction{}, mapConflict(err)
	}
	return record, nil
}

func (p *PostgresLedgerStore) ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	const query = `SELECT id, sender_id, receiver_id, amount, type, description, created_at
	FROM transactions
	WHERE sender_id = $1 OR receiver_id = $1
	ORDER BY created_at DESC, id DESC`

	rows, err := p.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (p *PostgresLedgerStore) ListByAccountBetween(ctx context.Context, accountID string, from, to time.Time) ([]models.Transaction, error) {
	const query = `SELECT id, sender_id, receiver_id, amount, type, description, created_at
	FROM transactions
	WHERE (sender_id = $1 OR receiver_id = $1) AND created_at >= $2 AND created_at <= $3
	ORDER BY created_at DESC, id DESC`

	rows, err := p.db.QueryContext(ctx, query, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var result []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var description sql.NullString
		if err := rows.Scan(&t.ID, &t.Sender, &t.Receiver, &t.Amount, &t.Type, &description, &t.Timestamp); err != nil {
			return nil, err
		}
		t.Description = description.String
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// mapConflict translates serialization failures and deadlocks into the
// retryable sentinel; everything else passes through.
func mapConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return models.ErrConflict
		}
	}
	return err
}

// Compile-time check: PostgresLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
