package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"account-ledger-api/internal/credential"
	"account-ledger-api/internal/model"
	"account-ledger-api/internal/repository"
)

// AccountStore persists accounts
type AccountStore interface {
	Create(ctx context.Context, account *model.Account) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByPhone(ctx context.Context, phone string) (*model.Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// PasswordVerifier is a one-way credential hash
type PasswordVerifier interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

var conflictMessages = map[string]string{
	repository.FieldEmail:         "Email already registered",
	repository.FieldPhone:         "Phone number already registered",
	repository.FieldAccountNumber: "Account number already exists",
}

// AccountService handles account business logic
type AccountService struct {
	accounts  AccountStore
	passwords PasswordVerifier
	logger    *logrus.Logger
}

// NewAccountService creates a new account service
func NewAccountService(accounts AccountStore, passwords PasswordVerifier, logger *logrus.Logger) *AccountService {
	return &AccountService{
		accounts:  accounts,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates an account with the default balance. Email, phone and the derived
// account number are checked for collisions in that order.
func (s *AccountService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	accountNumber := model.AccountNumberFromPhone(req.Phone)

	uniqueChecks := []struct {
		field  string
		lookup func(context.Context, string) (*model.Account, error)
		value  string
	}{
		{repository.FieldEmail, s.accounts.GetByEmail, req.Email},
		{repository.FieldPhone, s.accounts.GetByPhone, req.Phone},
		{repository.FieldAccountNumber, s.accounts.GetByAccountNumber, accountNumber},
	}
	for _, check := range uniqueChecks {
		_, err := check.lookup(ctx, check.value)
		if err == nil {
			return nil, conflictError(check.field)
		}
		if !errors.Is(err, repository.ErrAccountNotFound) {
			return nil, internalError("Error registering user", err)
		}
	}

	hashed, err := s.passwords.Hash(req.Password)
	if err != nil {
		if errors.Is(err, credential.ErrPasswordTooLong) {
			return nil, &ServiceError{
				Code:    model.ErrCodeValidation,
				Message: "Password must not exceed 72 bytes",
				Field:   "password",
			}
		}
		return nil, internalError("Error registering user", err)
	}

	account, err := s.accounts.Create(ctx, &model.Account{
		ID:            uuid.New(),
		Fullname:      req.Fullname,
		Email:         req.Email,
		PasswordHash:  hashed,
		Phone:         req.Phone,
		AccountNumber: accountNumber,
		Balance:       model.DefaultBalance,
	})
	if err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			return nil, conflictError(conflict.Field)
		}
		return nil, internalError("Error registering user", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email":          account.Email,
		"account_number": account.AccountNumber,
	}).Info("User registered")

	return account, nil
}

func conflictError(field string) error {
	message, ok := conflictMessages[field]
	if !ok {
		message = "Account already exists"
	}
	return &ServiceError{
		Code:    model.ErrCodeConflict,
		Message: message,
		Field:   field,
	}
}

// Authenticate checks credentials. Unknown emails and wrong passwords produce the same error.
func (s *AccountService) Authenticate(ctx context.Context, req *model.LoginRequest) (*model.Account, error) {
	invalid := &ServiceError{
		Code:    model.ErrCodeInvalidCredentials,
		Message: "Invalid credentials",
	}

	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.passwords.Verify("", req.Password)
			return nil, invalid
		}
		return nil, internalError("Error logging in", err)
	}

	if !s.passwords.Verify(account.PasswordHash, req.Password) {
		return nil, invalid
	}

	s.logger.WithFields(logrus.Fields{
		"email":          account.Email,
		"account_number": account.AccountNumber,
	}).Info("User logged in")

	return account, nil
}

// FindByAccountNumber retrieves an account by account number
func (s *AccountService) FindByAccountNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	if accountNumber == "" {
		return nil, &ServiceError{
			Code:    model.ErrCodeValidation,
			Message: "Account number is required",
			Field:   "account",
		}
	}

	account, err := s.accounts.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, &ServiceError{
				Code:    model.ErrCodeNotFound,
				Message: "User not found",
			}
		}
		return nil, internalError("Error fetching user", err)
	}

	return account, nil
}

// GetBalance returns the current balance of an account
func (s *AccountService) GetBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	account, err := s.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// GetDisplayName returns the full name registered for an account, used to confirm a recipient
func (s *AccountService) GetDisplayName(ctx context.Context, accountNumber string) (string, error) {
	account, err := s.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return "", err
	}
	return account.Fullname, nil
}

// ListAll returns every account
func (s *AccountService) ListAll(ctx context.Context) ([]*model.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, internalError("Error fetching users", err)
	}

	s.logger.WithField("count", len(accounts)).Debug("Fetched users")
	return accounts, nil
}

// DeleteAll destroys every account. Transactions and notifications are kept.
func (s *AccountService) DeleteAll(ctx context.Context) (int64, error) {
	deleted, err := s.accounts.DeleteAll(ctx)
	if err != nil {
		return 0, internalError("Error deleting users", err)
	}

	s.logger.WithField("deleted", deleted).Warn("All users deleted")
	return deleted, nil
}
