package service

import (
	"errors"

	"account-ledger-api/internal/model"
)

// ServiceError represents a service-level error
type ServiceError struct {
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Cause returns the message of the underlying error, if any
func (e *ServiceError) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func validationError(err error) error {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return &ServiceError{
			Code:    model.ErrCodeValidation,
			Message: validationErr.Message,
			Field:   validationErr.Field,
		}
	}
	return internalError("Invalid request", err)
}

func internalError(message string, err error) error {
	return &ServiceError{
		Code:    model.ErrCodeInternalError,
		Message: message,
		Err:     err,
	}
}

// IsCode reports whether err is a *ServiceError with the given code
func IsCode(err error, code string) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr) && serviceErr.Code == code
}
