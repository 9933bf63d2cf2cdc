package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"account-ledger-api/internal/model"
)

// MemoryStore keeps every table in process memory. It backs local runs and tests
// and mirrors the Postgres repositories method for method.
type MemoryStore struct {
	mu            sync.RWMutex
	now           func() time.Time
	accounts      []*model.Account
	transactions  []*model.Transaction
	notifications []*model.Notification
	idempotency   map[string]*IdempotencyRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:         func() time.Time { return time.Now().UTC() },
		idempotency: make(map[string]*IdempotencyRecord),
	}
}

// Accounts returns the account repository view of the store
func (s *MemoryStore) Accounts() *MemoryAccountRepository {
	return &MemoryAccountRepository{store: s}
}

// Transactions returns the transaction log view of the store
func (s *MemoryStore) Transactions() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{store: s}
}

// Transfers returns the transfer unit-of-work view of the store
func (s *MemoryStore) Transfers() *MemoryTransferRepository {
	return &MemoryTransferRepository{store: s}
}

// Notifications returns the notification inbox view of the store
func (s *MemoryStore) Notifications() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{store: s}
}

// Idempotency returns the idempotency key view of the store
func (s *MemoryStore) Idempotency() *MemoryIdempotencyRepository {
	return &MemoryIdempotencyRepository{store: s}
}

// CheckHealth always reports healthy; there is nothing to reach
func (s *MemoryStore) CheckHealth(ctx context.Context) model.DatabaseHealth {
	return model.DatabaseHealth{
		Driver: "memory",
		Status: "healthy",
	}
}

// findAccount expects s.mu to be held
func (s *MemoryStore) findAccount(match func(*model.Account) bool) *model.Account {
	for _, account := range s.accounts {
		if match(account) {
			return account
		}
	}
	return nil
}

func cloneAccount(a *model.Account) *model.Account {
	c := *a
	return &c
}

func cloneTransaction(t *model.Transaction) *model.Transaction {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	return &c
}

// MemoryAccountRepository is the in-memory counterpart of AccountRepository
type MemoryAccountRepository struct {
	store *MemoryStore
}

// Create inserts a new account, checking email, phone and account number uniqueness in that order
func (r *MemoryAccountRepository) Create(ctx context.Context, account *model.Account) (*model.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	checks := []struct {
		field string
		match func(*model.Account) bool
	}{
		{FieldEmail, func(a *model.Account) bool { return a.Email == account.Email }},
		{FieldPhone, func(a *model.Account) bool { return a.Phone == account.Phone }},
		{FieldAccountNumber, func(a *model.Account) bool { return a.AccountNumber == account.AccountNumber }},
	}
	for _, check := range checks {
		if s.findAccount(check.match) != nil {
			return nil, &ConflictError{Field: check.field}
		}
	}

	created := cloneAccount(account)
	now := s.now()
	created.CreatedAt = now
	created.UpdatedAt = now
	s.accounts = append(s.accounts, created)

	return cloneAccount(created), nil
}

// GetByEmail retrieves an account by email
func (r *MemoryAccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getBy(func(a *model.Account) bool { return a.Email == email })
}

// GetByPhone retrieves an account by phone number
func (r *MemoryAccountRepository) GetByPhone(ctx context.Context, phone string) (*model.Account, error) {
	return r.getBy(func(a *model.Account) bool { return a.Phone == phone })
}

// GetByAccountNumber retrieves an account by account number
func (r *MemoryAccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	return r.getBy(func(a *model.Account) bool { return a.AccountNumber == accountNumber })
}

func (r *MemoryAccountRepository) getBy(match func(*model.Account) bool) (*model.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	account := s.findAccount(match)
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

// List returns every account in creation order
func (r *MemoryAccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*model.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, cloneAccount(account))
	}
	return accounts, nil
}

// DeleteAll removes every account. Transactions and notifications are left in place.
func (r *MemoryAccountRepository) DeleteAll(ctx context.Context) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := int64(len(s.accounts))
	s.accounts = nil
	return deleted, nil
}

// MemoryTransactionRepository is the in-memory counterpart of TransactionRepository
type MemoryTransactionRepository struct {
	store *MemoryStore
}

// ListByAccountNumber retrieves transactions sent or received by an account, newest first
func (r *MemoryTransactionRepository) ListByAccountNumber(ctx context.Context, accountNumber string) ([]*model.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	transactions := make([]*model.Transaction, 0)
	for i := len(s.transactions) - 1; i >= 0; i-- {
		t := s.transactions[i]
		if t.From == accountNumber || t.To == accountNumber {
			transactions = append(transactions, cloneTransaction(t))
		}
	}
	return transactions, nil
}

// MemoryTransferRepository runs transfers while holding the store's write lock
type MemoryTransferRepository struct {
	store *MemoryStore
}

// RunInTx calls fn with exclusive access to the store. Staged writes are applied only if fn returns nil.
func (r *MemoryTransferRepository) RunInTx(ctx context.Context, fn func(tx TransferTx) error) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTransferTx{
		store:    s,
		balances: make(map[uuid.UUID]decimal.Decimal),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	for _, account := range s.accounts {
		if balance, ok := tx.balances[account.ID]; ok {
			account.Balance = balance
			account.UpdatedAt = now
		}
	}
	s.transactions = append(s.transactions, tx.transactions...)

	return nil
}

// memTransferTx runs with MemoryStore.mu held by RunInTx
type memTransferTx struct {
	store        *MemoryStore
	balances     map[uuid.UUID]decimal.Decimal
	transactions []*model.Transaction
}

func (t *memTransferTx) GetAccountForUpdate(ctx context.Context, accountNumber string) (*model.Account, error) {
	account := t.store.findAccount(func(a *model.Account) bool { return a.AccountNumber == accountNumber })
	if account == nil {
		return nil, ErrAccountNotFound
	}

	c := cloneAccount(account)
	if balance, ok := t.balances[c.ID]; ok {
		c.Balance = balance
	}
	return c, nil
}

func (t *memTransferTx) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	if t.store.findAccount(func(a *model.Account) bool { return a.ID == id }) == nil {
		return ErrAccountNotFound
	}
	if balance.IsNegative() {
		return ErrInsufficientFunds
	}
	t.balances[id] = balance
	return nil
}

func (t *memTransferTx) AppendTransaction(ctx context.Context, transaction *model.Transaction) (*model.Transaction, error) {
	created := cloneTransaction(transaction)
	created.Timestamp = t.store.now()
	t.transactions = append(t.transactions, created)
	return cloneTransaction(created), nil
}

// MemoryNotificationRepository is the in-memory counterpart of NotificationRepository
type MemoryNotificationRepository struct {
	store *MemoryStore
}

// Create stores a new unread notification
func (r *MemoryNotificationRepository) Create(ctx context.Context, notification *model.Notification) (*model.Notification, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *notification
	created.Read = false
	created.CreatedAt = s.now()
	s.notifications = append(s.notifications, &created)

	c := created
	return &c, nil
}

// ListUnread retrieves a user's unread notifications, newest first
func (r *MemoryNotificationRepository) ListUnread(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	notifications := make([]*model.Notification, 0)
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.UserID == userID && !n.Read {
			c := *n
			notifications = append(notifications, &c)
		}
	}
	return notifications, nil
}

// MarkAllRead flips every unread notification of a user to read and returns how many changed
func (r *MemoryNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

// MemoryIdempotencyRepository is the in-memory counterpart of IdempotencyRepository
type MemoryIdempotencyRepository struct {
	store *MemoryStore
}

// StoreRequest claims an idempotency key. It returns false if a live claim already exists.
func (r *MemoryIdempotencyRepository) StoreRequest(ctx context.Context, keyHash, requestBody string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.idempotency[keyHash]; ok && existing.ExpiresAt.After(now) {
		return false, nil
	}

	s.idempotency[keyHash] = &IdempotencyRecord{
		KeyHash:     keyHash,
		RequestBody: requestBody,
		CreatedAt:   now,
		ExpiresAt:   now.Add(IdempotencyTTL),
	}
	return true, nil
}

// GetRequest retrieves a stored idempotency record, or nil if none is live
func (r *MemoryIdempotencyRepository) GetRequest(ctx context.Context, keyHash string) (*IdempotencyRecord, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.idempotency[keyHash]
	if !ok || !record.ExpiresAt.After(s.now()) {
		return nil, nil
	}
	c := *record
	return &c, nil
}

// UpdateResponse updates the response for an idempotency key
func (r *MemoryIdempotencyRepository) UpdateResponse(ctx context.Context, keyHash, responseBody string, status int) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.idempotency[keyHash]; ok {
		record.ResponseBody = &responseBody
		record.ResponseStatus = &status
	}
	return nil
}

// DeleteRequest releases a claimed key so the request can be retried
func (r *MemoryIdempotencyRepository) DeleteRequest(ctx context.Context, keyHash string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.idempotency, keyHash)
	return nil
}

// CleanupExpired removes expired idempotency keys
func (r *MemoryIdempotencyRepository) CleanupExpired(ctx context.Context) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for key, record := range s.idempotency {
		if !record.ExpiresAt.After(now) {
			delete(s.idempotency, key)
			removed++
		}
	}
	return removed, nil
}
