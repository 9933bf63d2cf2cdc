package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultBalance is credited to every account at registration
var DefaultBalance = decimal.NewFromInt(300000)

// accountNumberLength is the number of trailing phone digits that form the account number
const accountNumberLength = 10

var phonePattern = regexp.MustCompile(`^0\d{10}$`)

// Account represents a registered user and their balance
type Account struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Fullname      string          `json:"fullname" db:"fullname"`
	Email         string          `json:"email" db:"email"`
	PasswordHash  string          `json:"-" db:"password_hash"`
	Phone         string          `json:"phone" db:"phone"`
	AccountNumber string          `json:"accountNumber" db:"account_number"`
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// AccountSummary is the public projection of an account
type AccountSummary struct {
	ID            uuid.UUID       `json:"id"`
	Fullname      string          `json:"fullname"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
}

// Summary strips the account down to the fields returned to callers
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:            a.ID,
		Fullname:      a.Fullname,
		Email:         a.Email,
		Phone:         a.Phone,
		AccountNumber: a.AccountNumber,
		Balance:       a.Balance,
	}
}

// AccountNumberFromPhone derives the account number from the last ten digits of a phone number
func AccountNumberFromPhone(phone string) string {
	if len(phone) <= accountNumberLength {
		return phone
	}
	return phone[len(phone)-accountNumberLength:]
}

// RegisterRequest represents the request to register a new account
type RegisterRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// Validate validates the register request
func (r *RegisterRequest) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"fullname", r.Fullname},
		{"email", r.Email},
		{"password", r.Password},
		{"phone", r.Phone},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{
				Field:   f.field,
				Message: "All fields required",
			}
		}
	}

	if !phonePattern.MatchString(r.Phone) {
		return &ValidationError{
			Field:   "phone",
			Message: "Phone number must be 11 digits and start with 0",
		}
	}

	return nil
}

// LoginRequest represents the request to authenticate an account
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountResponse is returned by register and login
type AccountResponse struct {
	Message string         `json:"message"`
	User    AccountSummary `json:"user"`
}

// BalanceResponse is returned by the balance lookup
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// DisplayNameResponse is returned by the recipient name lookup
type DisplayNameResponse struct {
	Fullname string `json:"fullname"`
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}
