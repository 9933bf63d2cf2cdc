package model

import "time"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse is returned by operations with nothing else to report
type MessageResponse struct {
	Message string `json:"message"`
	Count   *int64 `json:"count,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Database  DatabaseHealth `json:"database"`
}

// DatabaseHealth represents database connectivity status
type DatabaseHealth struct {
	Driver         string `json:"driver"`
	Status         string `json:"status"`
	Migration      string `json:"migrationVersion,omitempty"`
	ConnectionPool string `json:"connectionPool,omitempty"`
}

// Common error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeSelfTransfer        = "SELF_TRANSFER"
	ErrCodeIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
)
