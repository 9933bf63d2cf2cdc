package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPQError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField string
		wantErr   error
	}{
		{
			name:      "email unique violation",
			err:       &pq.Error{Code: "23505", Constraint: "accounts_email_key"},
			wantField: FieldEmail,
			wantErr:   ErrAccountAlreadyExists,
		},
		{
			name:      "phone unique violation",
			err:       &pq.Error{Code: "23505", Constraint: "accounts_phone_key"},
			wantField: FieldPhone,
			wantErr:   ErrAccountAlreadyExists,
		},
		{
			name:      "account number unique violation",
			err:       fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "accounts_account_number_key"}),
			wantField: FieldAccountNumber,
			wantErr:   ErrAccountAlreadyExists,
		},
		{
			name:    "serialization failure",
			err:     &pq.Error{Code: "40001"},
			wantErr: ErrConcurrentUpdate,
		},
		{
			name:    "deadlock",
			err:     &pq.Error{Code: "40P01"},
			wantErr: ErrConcurrentUpdate,
		},
		{
			name:    "negative balance",
			err:     &pq.Error{Code: "23514", Constraint: "accounts_balance_check"},
			wantErr: ErrInsufficientFunds,
		},
		{
			name: "other check violation",
			err:  &pq.Error{Code: "23514", Constraint: "transactions_amount_check"},
		},
		{
			name: "unrelated driver error",
			err:  &pq.Error{Code: "42P01"},
		},
		{
			name: "not a driver error",
			err:  errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyPQError(tt.err)

			if tt.wantErr == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.wantErr)

			if tt.wantField != "" {
				var conflict *ConflictError
				if assert.ErrorAs(t, got, &conflict) {
					assert.Equal(t, tt.wantField, conflict.Field)
				}
			}
		})
	}
}

func TestGenerateKeyHash(t *testing.T) {
	a := GenerateKeyHash("key-1")
	assert.Len(t, a, 64)
	assert.Equal(t, a, GenerateKeyHash("key-1"))
	assert.NotEqual(t, a, GenerateKeyHash("key-2"))
	assert.NotContains(t, a, "key-1")
}
