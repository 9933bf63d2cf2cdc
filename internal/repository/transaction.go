package repository

import (
	"context"
	"database/sql"
	"fmt"

	"account-ledger-api/internal/model"
)

const transactionColumns = `id, from_account, to_account, amount, description, status, sender_name, receiver_name, created_at`

// Rows are stamped at insert time, after the account row locks are held, so seq follows
// commit order for any one account.
const (
	appendTransactionQuery = `
		INSERT INTO transactions (id, from_account, to_account, amount, description, status, sender_name, receiver_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, clock_timestamp())
		RETURNING ` + transactionColumns

	listTransactionsQuery = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE from_account = $1 OR to_account = $1
		ORDER BY seq DESC
	`
)

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	transaction := &model.Transaction{}
	err := row.Scan(
		&transaction.ID,
		&transaction.From,
		&transaction.To,
		&transaction.Amount,
		&transaction.Description,
		&transaction.Status,
		&transaction.SenderName,
		&transaction.ReceiverName,
		&transaction.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// TransactionRepository handles transaction-log database operations.
// The log is write-once: there is no update or delete.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Append inserts a transaction record within a transaction
func (r *TransactionRepository) Append(ctx context.Context, tx *sql.Tx, transaction *model.Transaction) (*model.Transaction, error) {
	created, err := scanTransaction(tx.QueryRowContext(ctx, appendTransactionQuery,
		transaction.ID,
		transaction.From,
		transaction.To,
		transaction.Amount,
		transaction.Description,
		transaction.Status,
		transaction.SenderName,
		transaction.ReceiverName,
	))
	if err != nil {
		if classified := classifyPQError(err); classified != nil {
			return nil, classified
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return created, nil
}

// ListByAccountNumber retrieves transactions sent or received by an account, newest first
func (r *TransactionRepository) ListByAccountNumber(ctx context.Context, accountNumber string) ([]*model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, listTransactionsQuery, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get account transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*model.Transaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, transaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
