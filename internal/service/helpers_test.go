package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"account-ledger-api/internal/credential"
	"account-ledger-api/internal/events"
	"account-ledger-api/internal/model"
	"account-ledger-api/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TransferEvent
	err    error
}

func (p *recordingPublisher) PublishTransfer(ctx context.Context, event events.TransferEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type testEnv struct {
	store         *repository.MemoryStore
	accounts      *AccountService
	transactions  *TransactionService
	notifications *NotificationService
	publisher     *recordingPublisher
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	verifier, err := credential.NewBcryptVerifier(bcrypt.MinCost)
	require.NoError(t, err)

	logger := quietLogger()
	store := repository.NewMemoryStore()
	publisher := &recordingPublisher{}
	notifications := NewNotificationService(store.Notifications(), logger)

	return &testEnv{
		store:         store,
		accounts:      NewAccountService(store.Accounts(), verifier, logger),
		transactions:  NewTransactionService(store.Transfers(), store.Transactions(), notifications, publisher, logger),
		notifications: notifications,
		publisher:     publisher,
	}
}

func (e *testEnv) register(t *testing.T, fullname, email, phone string) *model.Account {
	t.Helper()
	account, err := e.accounts.Register(context.Background(), &model.RegisterRequest{
		Fullname: fullname,
		Email:    email,
		Password: "secret",
		Phone:    phone,
	})
	require.NoError(t, err)
	return account
}

func (e *testEnv) balance(t *testing.T, accountNumber string) decimal.Decimal {
	t.Helper()
	balance, err := e.accounts.GetBalance(context.Background(), accountNumber)
	require.NoError(t, err)
	return balance
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, IsCode(err, code), "want code %s, got %v", code, err)
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func stringPtr(s string) *string {
	return &s
}
