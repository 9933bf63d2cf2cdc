package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-ledger-api/internal/model"
)

func TestTransferRequest_Validate(t *testing.T) {
	longDescription := string(make([]byte, 256))

	tests := []struct {
		name        string
		req         model.TransferRequest
		shouldError bool
		errorMsg    string
	}{
		{
			name: "valid request",
			req:  model.TransferRequest{From: "9155802922", To: "8012345678", Amount: decimalPtr("100.50")},
		},
		{
			name:        "missing from",
			req:         model.TransferRequest{To: "8012345678", Amount: decimalPtr("1")},
			shouldError: true,
			errorMsg:    "All fields required",
		},
		{
			name:        "missing amount",
			req:         model.TransferRequest{From: "9155802922", To: "8012345678"},
			shouldError: true,
			errorMsg:    "All fields required",
		},
		{
			name:        "zero amount",
			req:         model.TransferRequest{From: "9155802922", To: "8012345678", Amount: decimalPtr("0")},
			shouldError: true,
			errorMsg:    "amount must be positive",
		},
		{
			name:        "negative amount",
			req:         model.TransferRequest{From: "9155802922", To: "8012345678", Amount: decimalPtr("-10")},
			shouldError: true,
			errorMsg:    "amount must be positive",
		},
		{
			name:        "too many decimal places",
			req:         model.TransferRequest{From: "9155802922", To: "8012345678", Amount: decimalPtr("1.001")},
			shouldError: true,
			errorMsg:    "amount cannot have more than 2 decimal places",
		},
		{
			name: "largest storable amount",
			req:  model.TransferRequest{From: "9155802922", To: "8012345678", Amount: decimalPtr("999999999999999999.99")},
		},
		{
			name:        "above largest storable amount",
			req:         model.TransferRequest{From: "9155802922", To: "8012345678", Amount: decimalPtr("1000000000000000000")},
			shouldError: true,
			errorMsg:    "amount cannot exceed 999999999999999999.99",
		},
		{
			name:        "large exponent",
			req:         model.TransferRequest{From: "9155802922", To: "8012345678", Amount: decimalPtr("1e19")},
			shouldError: true,
			errorMsg:    "amount cannot exceed",
		},
		{
			name: "trailing zeros within two places",
			req:  model.TransferRequest{From: "9155802922", To: "8012345678", Amount: decimalPtr("12.5000")},
		},
		{
			name:        "too many digits",
			req:         model.TransferRequest{From: "9155802922", To: "8012345678", Amount: decimalPtr("1234567890123456789012345678901234567890")},
			shouldError: true,
			errorMsg:    "amount has too many digits",
		},
		{
			name:        "description too long",
			req:         model.TransferRequest{From: "9155802922", To: "8012345678", Amount: decimalPtr("1"), Description: &longDescription},
			shouldError: true,
			errorMsg:    "description cannot exceed 255 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()

			if tt.shouldError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransferRequest_UnmarshalAmount(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantAmount string
		wantNil    bool
		wantErr    bool
	}{
		{name: "number", body: `{"amount": 50000}`, wantAmount: "50000"},
		{name: "numeric string", body: `{"amount": "125.75"}`, wantAmount: "125.75"},
		{name: "missing", body: `{}`, wantNil: true},
		{name: "null", body: `{"amount": null}`, wantNil: true},
		{name: "empty string", body: `{"amount": ""}`, wantNil: true},
		{name: "not a number", body: `{"amount": "lots"}`, wantErr: true},
		{name: "boolean", body: `{"amount": true}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req model.TransferRequest
			err := json.Unmarshal([]byte(tt.body), &req)

			if tt.wantErr {
				var validationErr *model.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, req.Amount)
				return
			}
			require.NotNil(t, req.Amount)
			assertDecimal(t, tt.wantAmount, *req.Amount)
		})
	}
}

func TestTransferRequest_ValidateExtremeExponents(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		errorMsg string
	}{
		{name: "1e1000000", body: `{"from":"1","to":"2","amount":1e1000000}`, errorMsg: "amount cannot exceed"},
		{name: "1e10000000", body: `{"from":"1","to":"2","amount":1e10000000}`, errorMsg: "amount cannot exceed"},
		{name: "1e-10000000", body: `{"from":"1","to":"2","amount":1e-10000000}`, errorMsg: "more than 2 decimal places"},
		{name: "string exponent", body: `{"from":"1","to":"2","amount":"5e2000000000"}`, errorMsg: "amount cannot exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req model.TransferRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			start := time.Now()
			err := req.Validate()
			elapsed := time.Since(start)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
			assert.Less(t, elapsed, time.Second)
		})
	}
}

func TestTransactionService_Transfer(t *testing.T) {
	env := newTestEnv(t)
	sender := env.register(t, "Ann", "a@x.com", "09155802922")
	receiver := env.register(t, "Bob", "b@x.com", "08012345678")
	ctx := context.Background()

	result, err := env.transactions.Transfer(ctx, &model.TransferRequest{
		From:        sender.AccountNumber,
		To:          receiver.AccountNumber,
		Amount:      decimalPtr("50000"),
		Description: stringPtr("rent"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Transaction successful", result.Message)
	assertDecimal(t, "250000", result.SenderBalance)
	assertDecimal(t, "350000", result.ReceiverBalance)
	assert.Equal(t, "Ann", result.Sender.Fullname)
	assert.Equal(t, "Bob", result.Receiver.Fullname)

	require.NotNil(t, result.Transaction)
	assert.Equal(t, sender.AccountNumber, result.Transaction.From)
	assert.Equal(t, receiver.AccountNumber, result.Transaction.To)
	assertDecimal(t, "50000", result.Transaction.Amount)
	assert.Equal(t, model.TransactionStatusSuccessful, result.Transaction.Status)
	assert.Equal(t, "Ann", result.Transaction.SenderName)
	assert.Equal(t, "Bob", result.Transaction.ReceiverName)
	assert.False(t, result.Transaction.Timestamp.IsZero())

	assertDecimal(t, "250000", env.balance(t, sender.AccountNumber))
	assertDecimal(t, "350000", env.balance(t, receiver.AccountNumber))

	for _, accountNumber := range []string{sender.AccountNumber, receiver.AccountNumber} {
		transactions, err := env.transactions.ListTransactions(ctx, accountNumber)
		require.NoError(t, err)
		require.Len(t, transactions, 1)
		assert.Equal(t, result.Transaction.ID, transactions[0].ID)
	}

	notifications, err := env.notifications.ListUnread(ctx, receiver.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "You received 50000 from Ann (9155802922)", notifications[0].Message)

	senderNotifications, err := env.notifications.ListUnread(ctx, sender.ID)
	require.NoError(t, err)
	assert.Empty(t, senderNotifications)

	require.Equal(t, 1, env.publisher.count())
	assert.Equal(t, result.Transaction.ID, env.publisher.events[0].TransactionID)
}

func TestTransactionService_TransferConservesTotal(t *testing.T) {
	amounts := []string{"0.01", "1", "999.99", "150000", "300000"}

	for _, amount := range amounts {
		t.Run(amount, func(t *testing.T) {
			env := newTestEnv(t)
			sender := env.register(t, "Ann", "a@x.com", "09155802922")
			receiver := env.register(t, "Bob", "b@x.com", "08012345678")

			_, err := env.transactions.Transfer(context.Background(), &model.TransferRequest{
				From:   sender.AccountNumber,
				To:     receiver.AccountNumber,
				Amount: decimalPtr(amount),
			})
			require.NoError(t, err)

			total := env.balance(t, sender.AccountNumber).Add(env.balance(t, receiver.AccountNumber))
			assertDecimal(t, "600000", total)
			assertDecimal(t, "300000", env.balance(t, receiver.AccountNumber).Sub(decimal.RequireFromString(amount)))
		})
	}
}

func TestTransactionService_TransferFailures(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		amount   *decimal.Decimal
		wantCode string
		wantMsg  string
	}{
		{
			name:     "self transfer",
			from:     "9155802922",
			to:       "9155802922",
			amount:   decimalPtr("10"),
			wantCode: model.ErrCodeSelfTransfer,
			wantMsg:  "Sender and receiver cannot be the same",
		},
		{
			name:     "self transfer beyond balance",
			from:     "9155802922",
			to:       "9155802922",
			amount:   decimalPtr("1000000"),
			wantCode: model.ErrCodeSelfTransfer,
		},
		{
			name:     "unknown receiver",
			from:     "9155802922",
			to:       "0000000000",
			amount:   decimalPtr("10"),
			wantCode: model.ErrCodeNotFound,
			wantMsg:  "Sender or receiver not found",
		},
		{
			name:     "unknown sender",
			from:     "0000000000",
			to:       "8012345678",
			amount:   decimalPtr("10"),
			wantCode: model.ErrCodeNotFound,
			wantMsg:  "Sender or receiver not found",
		},
		{
			name:     "insufficient funds",
			from:     "9155802922",
			to:       "8012345678",
			amount:   decimalPtr("300000.01"),
			wantCode: model.ErrCodeInsufficientFunds,
			wantMsg:  "Insufficient funds",
		},
		{
			name:     "missing amount",
			from:     "9155802922",
			to:       "8012345678",
			wantCode: model.ErrCodeValidation,
			wantMsg:  "All fields required",
		},
		{
			name:     "zero amount",
			from:     "9155802922",
			to:       "8012345678",
			amount:   decimalPtr("0"),
			wantCode: model.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			sender := env.register(t, "Ann", "a@x.com", "09155802922")
			receiver := env.register(t, "Bob", "b@x.com", "08012345678")
			ctx := context.Background()

			_, err := env.transactions.Transfer(ctx, &model.TransferRequest{
				From:   tt.from,
				To:     tt.to,
				Amount: tt.amount,
			})
			assertCode(t, err, tt.wantCode)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}

			assertDecimal(t, "300000", env.balance(t, sender.AccountNumber))
			assertDecimal(t, "300000", env.balance(t, receiver.AccountNumber))

			transactions, err := env.transactions.ListTransactions(ctx, sender.AccountNumber)
			require.NoError(t, err)
			assert.Empty(t, transactions)

			notifications, err := env.notifications.ListUnread(ctx, receiver.ID)
			require.NoError(t, err)
			assert.Empty(t, notifications)
			assert.Zero(t, env.publisher.count())
		})
	}
}

func TestTransactionService_ConcurrentTransfersNeverOverdraw(t *testing.T) {
	env := newTestEnv(t)
	sender := env.register(t, "Ann", "a@x.com", "09155802922")
	receiver := env.register(t, "Bob", "b@x.com", "08012345678")

	const attempts = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.transactions.Transfer(context.Background(), &model.TransferRequest{
				From:   sender.AccountNumber,
				To:     receiver.AccountNumber,
				Amount: decimalPtr("20000"),
			})
			if err != nil {
				assert.True(t, IsCode(err, model.ErrCodeInsufficientFunds), "unexpected error: %v", err)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 15, succeeded)
	assertDecimal(t, "0", env.balance(t, sender.AccountNumber))
	assertDecimal(t, "600000", env.balance(t, receiver.AccountNumber))

	transactions, err := env.transactions.ListTransactions(context.Background(), sender.AccountNumber)
	require.NoError(t, err)
	assert.Len(t, transactions, succeeded)
}

func TestTransactionService_OpposingTransfers(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "Ann", "a@x.com", "09155802922")
	b := env.register(t, "Bob", "b@x.com", "08012345678")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		from, to := a.AccountNumber, b.AccountNumber
		if i%2 == 1 {
			from, to = to, from
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.transactions.Transfer(context.Background(), &model.TransferRequest{
				From:   from,
				To:     to,
				Amount: decimalPtr("1000"),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assertDecimal(t, "300000", env.balance(t, a.AccountNumber))
	assertDecimal(t, "300000", env.balance(t, b.AccountNumber))
}

func TestTransactionService_ListTransactionsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "Ann", "a@x.com", "09155802922")
	b := env.register(t, "Bob", "b@x.com", "08012345678")
	c := env.register(t, "Cid", "c@x.com", "07098765432")
	ctx := context.Background()

	transfers := []struct {
		from, to, amount string
	}{
		{a.AccountNumber, b.AccountNumber, "1"},
		{b.AccountNumber, a.AccountNumber, "2"},
		{b.AccountNumber, c.AccountNumber, "3"},
		{c.AccountNumber, a.AccountNumber, "4"},
	}
	for _, tr := range transfers {
		_, err := env.transactions.Transfer(ctx, &model.TransferRequest{
			From:   tr.from,
			To:     tr.to,
			Amount: decimalPtr(tr.amount),
		})
		require.NoError(t, err)
	}

	transactions, err := env.transactions.ListTransactions(ctx, a.AccountNumber)
	require.NoError(t, err)
	require.Len(t, transactions, 3)
	assertDecimal(t, "4", transactions[0].Amount)
	assertDecimal(t, "2", transactions[1].Amount)
	assertDecimal(t, "1", transactions[2].Amount)

	transactions, err = env.transactions.ListTransactions(ctx, "0000000000")
	require.NoError(t, err)
	assert.Empty(t, transactions)

	_, err = env.transactions.ListTransactions(ctx, "")
	assertCode(t, err, model.ErrCodeValidation)
}

type failingNotificationStore struct{}

func (failingNotificationStore) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	return nil, errors.New("inbox unavailable")
}

func (failingNotificationStore) ListUnread(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	return nil, errors.New("inbox unavailable")
}

func (failingNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, errors.New("inbox unavailable")
}

func TestTransactionService_SideEffectFailuresDoNotFailTransfer(t *testing.T) {
	env := newTestEnv(t)
	sender := env.register(t, "Ann", "a@x.com", "09155802922")
	receiver := env.register(t, "Bob", "b@x.com", "08012345678")

	publisher := &recordingPublisher{err: errors.New("broker down")}
	transactions := NewTransactionService(
		env.store.Transfers(),
		env.store.Transactions(),
		NewNotificationService(failingNotificationStore{}, quietLogger()),
		publisher,
		quietLogger(),
	)

	result, err := transactions.Transfer(context.Background(), &model.TransferRequest{
		From:   sender.AccountNumber,
		To:     receiver.AccountNumber,
		Amount: decimalPtr("100"),
	})
	require.NoError(t, err)
	assertDecimal(t, "299900", result.SenderBalance)
	assert.Equal(t, 1, publisher.count())
}
