/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for
 * all data access operations required by the ledger-service. By defining an
 * interface, we decouple the ledger engine from the specific database
 * implementation (PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/onlinebank/ledger-service/internal/domain"
)

// Sentinel errors surfaced by repository implementations. The engine and the
// API layer match on these with errors.Is; no caller inspects error strings.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrSenderNotFound      = errors.New("sender account not found")
	ErrReceiverNotFound    = errors.New("receiver account not found")
	ErrDuplicateAccount    = errors.New("account number already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrKYCNotVerified      = errors.New("sender must be KYC verified to transfer money")
	ErrTransactionAborted  = errors.New("transaction aborted due to conflicting concurrent access")
	ErrTimeout             = errors.New("operation timed out")
)

// Repository defines the set of methods for interacting with the account store.
//
// Every method that mutates balances must be atomic: the precondition check and
// the write happen in one store transaction, and no partial state is ever
// visible to concurrent callers.
type Repository interface {
	// FindAccountByNo returns the account with the given account number, or
	// ErrAccountNotFound.
	FindAccountByNo(ctx context.Context, accountNo string) (*domain.Account, error)

	// ListAccounts returns all accounts, most recently created first.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// CreateAccount inserts the account if its account number is not taken.
	// The existence check and the insert are a single indivisible operation;
	// concurrent creations with the same account number cannot both succeed.
	// Returns ErrDuplicateAccount when the number exists.
	CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)

	// UpdateBalance atomically applies delta (positive for deposits, negative
	// for withdrawals) to the account's balance, subject to the precondition
	// balance+delta >= 0. Returns the updated account, ErrAccountNotFound, or
	// ErrInsufficientBalance when the precondition fails.
	UpdateBalance(ctx context.Context, accountNo string, delta int64) (*domain.Account, error)

	// Transfer atomically moves amount from the sender to the receiver in a
	// single multi-record transaction. Both rows are locked in a deterministic
	// order, all preconditions (existence, sender KYC, sender balance) are
	// re-validated against the locked state, and both writes commit together
	// or not at all. On success both post-transfer accounts are returned.
	Transfer(ctx context.Context, senderNo, receiverNo string, amount int64) (*domain.Account, *domain.Account, error)
}
