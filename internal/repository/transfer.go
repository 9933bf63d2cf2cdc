package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"account-ledger-api/internal/model"
)

// TransferTx is the unit of work a transfer runs in. Accounts fetched through it
// stay locked until the surrounding RunInTx returns.
type TransferTx interface {
	GetAccountForUpdate(ctx context.Context, accountNumber string) (*model.Account, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	AppendTransaction(ctx context.Context, transaction *model.Transaction) (*model.Transaction, error)
}

// TransferRepository runs transfers in serializable database transactions
type TransferRepository struct {
	db           *sql.DB
	accounts     *AccountRepository
	transactions *TransactionRepository
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(db *sql.DB, accounts *AccountRepository, transactions *TransactionRepository) *TransferRepository {
	return &TransferRepository{
		db:           db,
		accounts:     accounts,
		transactions: transactions,
	}
}

// RunInTx calls fn inside a transaction, committing if fn returns nil and rolling back otherwise
func (r *TransferRepository) RunInTx(ctx context.Context, fn func(tx TransferTx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after a successful Commit

	if err := fn(&pgTransferTx{tx: tx, repo: r}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if classified := classifyPQError(err); classified != nil {
			return classified
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type pgTransferTx struct {
	tx   *sql.Tx
	repo *TransferRepository
}

func (t *pgTransferTx) GetAccountForUpdate(ctx context.Context, accountNumber string) (*model.Account, error) {
	return t.repo.accounts.GetForUpdate(ctx, t.tx, accountNumber)
}

func (t *pgTransferTx) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	return t.repo.accounts.UpdateBalance(ctx, t.tx, id, balance)
}

func (t *pgTransferTx) AppendTransaction(ctx context.Context, transaction *model.Transaction) (*model.Transaction, error) {
	return t.repo.transactions.Append(ctx, t.tx, transaction)
}
