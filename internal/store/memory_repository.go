/**
 * @description
 * This file implements the `Repository` interface with an in-process store.
 * A single mutex serializes every mutation, which gives each operation the
 * same atomic, isolated, all-or-nothing semantics the PostgreSQL repository
 * gets from row locks and transactions. It is used by tests and is suitable
 * for local development when no database is available.
 *
 * All returned records are value copies so callers can never mutate internal
 * state through a shared pointer.
 */

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onlinebank/ledger-service/internal/domain"
)

// MemoryRepository is a mutex-guarded in-process implementation of Repository.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

// NewMemoryRepository creates an empty in-memory account store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]*domain.Account)}
}

func copyOf(a *domain.Account) *domain.Account {
	cp := *a
	return &cp
}

// FindAccountByNo returns a snapshot of the account with the given number.
func (r *MemoryRepository) FindAccountByNo(ctx context.Context, accountNo string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapStoreError(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountNo]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyOf(account), nil
}

// ListAccounts returns snapshots of all accounts, most recently created first.
func (r *MemoryRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapStoreError(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		accounts = append(accounts, *a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// CreateAccount inserts the account if its number is not taken. The existence
// check and the insert happen under one critical section.
func (r *MemoryRepository) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapStoreError(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.AccountNo]; exists {
		return nil, ErrDuplicateAccount
	}

	now := time.Now().UTC()
	created := &domain.Account{
		ID:            uuid.New(),
		AccountNo:     account.AccountNo,
		HolderName:    account.HolderName,
		Balance:       account.Balance,
		IsKYCVerified: account.IsKYCVerified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.accounts[created.AccountNo] = created
	return copyOf(created), nil
}

// UpdateBalance atomically applies delta subject to balance+delta >= 0.
func (r *MemoryRepository) UpdateBalance(ctx context.Context, accountNo string, delta int64) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapStoreError(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountNo]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if account.Balance+delta < 0 {
		return nil, ErrInsufficientBalance
	}

	account.Balance += delta
	account.UpdatedAt = time.Now().UTC()
	return copyOf(account), nil
}

// Transfer atomically moves amount from sender to receiver; both mutations
// happen under one critical section so no partial state is ever observable.
func (r *MemoryRepository) Transfer(ctx context.Context, senderNo, receiverNo string, amount int64) (*domain.Account, *domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, mapStoreError(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	sender, ok := r.accounts[senderNo]
	if !ok {
		return nil, nil, ErrSenderNotFound
	}
	receiver, ok := r.accounts[receiverNo]
	if !ok {
		return nil, nil, ErrReceiverNotFound
	}
	if !sender.IsKYCVerified {
		return nil, nil, ErrKYCNotVerified
	}
	if sender.Balance < amount {
		return nil, nil, ErrInsufficientBalance
	}

	now := time.Now().UTC()
	sender.Balance -= amount
	receiver.Balance += amount
	sender.UpdatedAt = now
	receiver.UpdatedAt = now
	return copyOf(sender), copyOf(receiver), nil
}
