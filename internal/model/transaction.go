package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an append-only record of a completed transfer.
// Names are copied at transfer time so later profile changes do not rewrite history.
type Transaction struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	From         string            `json:"from" db:"from_account"`
	To           string            `json:"to" db:"to_account"`
	Amount       decimal.Decimal   `json:"amount" db:"amount"`
	Description  *string           `json:"description,omitempty" db:"description"`
	Status       TransactionStatus `json:"status" db:"status"`
	SenderName   string            `json:"senderName" db:"sender_name"`
	ReceiverName string            `json:"receiverName" db:"receiver_name"`
	Timestamp    time.Time         `json:"timestamp" db:"created_at"`
}

// TransactionStatus represents the status of a transaction
type TransactionStatus string

// Failed transfers are never logged, so a single status exists
const TransactionStatusSuccessful TransactionStatus = "successful"

// MaxAmount is the largest value a NUMERIC(20, 2) column holds
var MaxAmount = decimal.RequireFromString("999999999999999999.99")

// Bounds checked before any rescaling, which costs time proportional to the exponent.
// A coefficient under 2^128 has at most 39 digits, so an exponent below -41 always
// leaves a non-zero digit past the second decimal place.
const (
	maxAmountCoefficientBits = 128
	maxAmountExponent        = 18
	minAmountExponent        = -41
)

// TransferRequest represents the request to move funds between two accounts
type TransferRequest struct {
	From        string           `json:"from"`
	To          string           `json:"to"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description,omitempty"`
}

// UnmarshalJSON accepts the amount either as a JSON number or as a numeric string
func (r *TransferRequest) UnmarshalJSON(data []byte) error {
	var temp struct {
		From        string          `json:"from"`
		To          string          `json:"to"`
		Amount      json.RawMessage `json:"amount"`
		Description *string         `json:"description,omitempty"`
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	r.From = temp.From
	r.To = temp.To
	r.Description = temp.Description
	r.Amount = nil

	raw := bytes.TrimSpace(temp.Amount)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`)) {
		return nil
	}

	var amount decimal.Decimal
	if err := amount.UnmarshalJSON(raw); err != nil {
		return &ValidationError{
			Field:   "amount",
			Message: "amount must be a number",
		}
	}
	r.Amount = &amount

	return nil
}

// Validate validates the transfer request.
// Sender and receiver equality is left to the transfer service, which reports it as its own error kind.
func (r *TransferRequest) Validate() error {
	if r.From == "" || r.To == "" || r.Amount == nil {
		return &ValidationError{
			Field:   "",
			Message: "All fields required",
		}
	}

	if !r.Amount.IsPositive() {
		return &ValidationError{
			Field:   "amount",
			Message: "amount must be positive",
		}
	}

	if r.Amount.Coefficient().BitLen() > maxAmountCoefficientBits {
		return &ValidationError{
			Field:   "amount",
			Message: "amount has too many digits",
		}
	}

	if r.Amount.Exponent() > maxAmountExponent {
		return tooLargeError()
	}

	if r.Amount.Exponent() < minAmountExponent || !r.Amount.Equal(r.Amount.Round(2)) {
		return &ValidationError{
			Field:   "amount",
			Message: "amount cannot have more than 2 decimal places",
		}
	}

	if r.Amount.GreaterThan(MaxAmount) {
		return tooLargeError()
	}

	if r.Description != nil && len(*r.Description) > 255 {
		return &ValidationError{
			Field:   "description",
			Message: "description cannot exceed 255 characters",
		}
	}

	return nil
}

func tooLargeError() error {
	return &ValidationError{
		Field:   "amount",
		Message: "amount cannot exceed " + MaxAmount.String(),
	}
}

// TransferParty describes one side of a completed transfer
type TransferParty struct {
	Fullname      string          `json:"fullname"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
}

// TransferResult is returned after a successful transfer
type TransferResult struct {
	Message         string          `json:"message"`
	SenderBalance   decimal.Decimal `json:"senderBalance"`
	ReceiverBalance decimal.Decimal `json:"receiverBalance"`
	Sender          TransferParty   `json:"sender"`
	Receiver        TransferParty   `json:"receiver"`
	Transaction     *Transaction    `json:"transaction"`
}

// TransactionListResponse lists the transfers an account took part in
type TransactionListResponse struct {
	AccountNumber string         `json:"accountNumber"`
	Transactions  []*Transaction `json:"transactions"`
}
