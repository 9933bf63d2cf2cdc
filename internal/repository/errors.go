package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Repository errors
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrConcurrentUpdate     = errors.New("concurrent update detected")
	ErrInsufficientFunds    = errors.New("insufficient funds")
)

// Fields that carry a uniqueness constraint on accounts
const (
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldAccountNumber = "accountNumber"
)

// ConflictError reports which unique account field was violated
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAccountAlreadyExists, e.Field)
}

func (e *ConflictError) Unwrap() error {
	return ErrAccountAlreadyExists
}

// postgres error classes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pqUniqueViolation      = pq.ErrorCode("23505")
	pqCheckViolation       = pq.ErrorCode("23514")
	pqSerializationFailure = pq.ErrorCode("40001")
	pqDeadlockDetected     = pq.ErrorCode("40P01")
)

// classifyPQError maps driver errors onto repository errors, returning nil if err is not recognised
func classifyPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		return &ConflictError{Field: fieldForConstraint(pqErr.Constraint)}
	case pqCheckViolation:
		if strings.Contains(pqErr.Constraint, "balance") {
			return ErrInsufficientFunds
		}
	case pqSerializationFailure, pqDeadlockDetected:
		return ErrConcurrentUpdate
	}
	return nil
}

func fieldForConstraint(constraint string) string {
	switch {
	case strings.Contains(constraint, "email"):
		return FieldEmail
	case strings.Contains(constraint, "account_number"):
		return FieldAccountNumber
	case strings.Contains(constraint, "phone"):
		return FieldPhone
	}
	return constraint
}
