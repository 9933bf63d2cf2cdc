package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"account-ledger-api/internal/events"
	"account-ledger-api/internal/model"
	"account-ledger-api/internal/repository"
)

// TransferStore runs a transfer as a single unit of work
type TransferStore interface {
	RunInTx(ctx context.Context, fn func(tx repository.TransferTx) error) error
}

// TransactionStore reads the transaction log
type TransactionStore interface {
	ListByAccountNumber(ctx context.Context, accountNumber string) ([]*model.Transaction, error)
}

// EventPublisher receives committed transfers
type EventPublisher interface {
	PublishTransfer(ctx context.Context, event events.TransferEvent) error
}

// TransactionService handles transfers and the transaction log
type TransactionService struct {
	transfers     TransferStore
	transactions  TransactionStore
	notifications *NotificationService
	publisher     EventPublisher
	logger        *logrus.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	transfers TransferStore,
	transactions TransactionStore,
	notifications *NotificationService,
	publisher EventPublisher,
	logger *logrus.Logger,
) *TransactionService {
	return &TransactionService{
		transfers:     transfers,
		transactions:  transactions,
		notifications: notifications,
		publisher:     publisher,
		logger:        logger,
	}
}

// Transfer moves amount from one account to another. The debit, the credit and the
// log entry commit together; the receiver notification and the event follow on a
// best-effort basis.
func (s *TransactionService) Transfer(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	if req.From == req.To {
		return nil, &ServiceError{
			Code:    model.ErrCodeSelfTransfer,
			Message: "Sender and receiver cannot be the same",
		}
	}

	amount := *req.Amount
	var sender, receiver *model.Account
	var transaction *model.Transaction

	err := s.transfers.RunInTx(ctx, func(tx repository.TransferTx) error {
		locked := make(map[string]*model.Account, 2)
		for _, accountNumber := range lockOrder(req.From, req.To) {
			account, err := tx.GetAccountForUpdate(ctx, accountNumber)
			if err != nil {
				if errors.Is(err, repository.ErrAccountNotFound) {
					return &ServiceError{
						Code:    model.ErrCodeNotFound,
						Message: "Sender or receiver not found",
					}
				}
				return err
			}
			locked[accountNumber] = account
		}
		sender, receiver = locked[req.From], locked[req.To]

		if sender.Balance.LessThan(amount) {
			return &ServiceError{
				Code:    model.ErrCodeInsufficientFunds,
				Message: "Insufficient funds",
			}
		}

		sender.Balance = sender.Balance.Sub(amount)
		receiver.Balance = receiver.Balance.Add(amount)

		if err := tx.UpdateBalance(ctx, sender.ID, sender.Balance); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, receiver.ID, receiver.Balance); err != nil {
			return err
		}

		var err error
		transaction, err = tx.AppendTransaction(ctx, &model.Transaction{
			ID:           uuid.New(),
			From:         sender.AccountNumber,
			To:           receiver.AccountNumber,
			Amount:       amount,
			Description:  req.Description,
			Status:       model.TransactionStatusSuccessful,
			SenderName:   sender.Fullname,
			ReceiverName: receiver.Fullname,
		})
		return err
	})
	if err != nil {
		return nil, transferError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"transaction_id": transaction.ID,
		"from":           sender.AccountNumber,
		"to":             receiver.AccountNumber,
		"amount":         amount.String(),
	}).Info("Transfer successful")

	s.afterTransfer(context.WithoutCancel(ctx), sender, receiver, transaction)

	return &model.TransferResult{
		Message:         "Transaction successful",
		SenderBalance:   sender.Balance,
		ReceiverBalance: receiver.Balance,
		Sender: model.TransferParty{
			Fullname:      sender.Fullname,
			AccountNumber: sender.AccountNumber,
			Balance:       sender.Balance,
		},
		Receiver: model.TransferParty{
			Fullname:      receiver.Fullname,
			AccountNumber: receiver.AccountNumber,
			Balance:       receiver.Balance,
		},
		Transaction: transaction,
	}, nil
}

// lockOrder returns the two account numbers in ascending order so that opposing
// transfers acquire row locks in the same sequence
func lockOrder(a, b string) []string {
	if a < b {
		return []string{a, b}
	}
	return []string{b, a}
}

func transferError(err error) error {
	var serviceErr *ServiceError
	switch {
	case errors.As(err, &serviceErr):
		return serviceErr
	case errors.Is(err, repository.ErrConcurrentUpdate):
		return &ServiceError{
			Code:    model.ErrCodeConflict,
			Message: "Concurrent update detected, please retry",
			Err:     err,
		}
	case errors.Is(err, repository.ErrInsufficientFunds):
		return &ServiceError{
			Code:    model.ErrCodeInsufficientFunds,
			Message: "Insufficient funds",
		}
	}
	return internalError("Error processing transaction", err)
}

func (s *TransactionService) afterTransfer(ctx context.Context, sender, receiver *model.Account, transaction *model.Transaction) {
	message := fmt.Sprintf("You received %s from %s (%s)",
		transaction.Amount.String(), sender.Fullname, sender.AccountNumber)
	if _, err := s.notifications.Notify(ctx, receiver.ID, message); err != nil {
		s.logger.WithError(err).WithField("transaction_id", transaction.ID).
			Warn("Failed to create transfer notification")
	}

	if s.publisher == nil {
		return
	}
	event := events.TransferEvent{
		TransactionID: transaction.ID,
		From:          transaction.From,
		To:            transaction.To,
		Amount:        transaction.Amount,
		SenderName:    transaction.SenderName,
		ReceiverName:  transaction.ReceiverName,
		Timestamp:     transaction.Timestamp,
	}
	if err := s.publisher.PublishTransfer(ctx, event); err != nil {
		s.logger.WithError(err).WithField("transaction_id", transaction.ID).
			Warn("Failed to publish transfer event")
	}
}

// ListTransactions returns the transfers an account sent or received, newest first.
// History outlives the account, so the account is not required to still exist.
func (s *TransactionService) ListTransactions(ctx context.Context, accountNumber string) ([]*model.Transaction, error) {
	if accountNumber == "" {
		return nil, &ServiceError{
			Code:    model.ErrCodeValidation,
			Message: "Account number is required",
			Field:   "accountNumber",
		}
	}

	transactions, err := s.transactions.ListByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, internalError("Error fetching transactions", err)
	}

	return transactions, nil
}
