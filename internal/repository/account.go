package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"account-ledger-api/internal/model"
)

const accountColumns = `id, fullname, email, password_hash, phone, account_number, balance, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	account := &model.Account{}
	err := row.Scan(
		&account.ID,
		&account.Fullname,
		&account.Email,
		&account.PasswordHash,
		&account.Phone,
		&account.AccountNumber,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// AccountRepository handles account-related database operations
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. Unique violations are reported as *ConflictError.
func (r *AccountRepository) Create(ctx context.Context, account *model.Account) (*model.Account, error) {
	query := `
		INSERT INTO accounts (id, fullname, email, password_hash, phone, account_number, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + accountColumns

	created, err := scanAccount(r.db.QueryRowContext(ctx, query,
		account.ID,
		account.Fullname,
		account.Email,
		account.PasswordHash,
		account.Phone,
		account.AccountNumber,
		account.Balance,
	))
	if err != nil {
		if classified := classifyPQError(err); classified != nil {
			return nil, classified
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return created, nil
}

// GetByEmail retrieves an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getBy(ctx, "email", email)
}

// GetByPhone retrieves an account by phone number
func (r *AccountRepository) GetByPhone(ctx context.Context, phone string) (*model.Account, error) {
	return r.getBy(ctx, "phone", phone)
}

// GetByAccountNumber retrieves an account by account number
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	return r.getBy(ctx, "account_number", accountNumber)
}

// getBy is only called with fixed column names, never with caller input
func (r *AccountRepository) getBy(ctx context.Context, column, value string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + column + ` = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by %s: %w", column, err)
	}

	return account, nil
}

// List returns every account ordered by creation time
func (r *AccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*model.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// DeleteAll removes every account and returns how many were deleted
func (r *AccountRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete accounts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// GetForUpdate retrieves an account by account number with a row-level lock held until tx ends
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, accountNumber string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1 FOR UPDATE`

	account, err := scanAccount(tx.QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		if classified := classifyPQError(err); classified != nil {
			return nil, classified
		}
		return nil, fmt.Errorf("failed to get account for update: %w", err)
	}

	return account, nil
}

// UpdateBalance updates an account's balance within a transaction
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := tx.ExecContext(ctx, query, newBalance, id)
	if err != nil {
		if classified := classifyPQError(err); classified != nil {
			return classified
		}
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}
