/**
 * @description
 * This file implements the `Repository` interface using PostgreSQL as the
 * backing store. It uses the pgx library and its connection pool for database
 * interactions, and relies on row-level locks (`SELECT ... FOR UPDATE`) inside
 * explicit transactions for every balance mutation so that preconditions are
 * always evaluated against locked, current state.
 *
 * Key features:
 * - Insert-if-absent account creation backed by the unique index on account_no
 *   (unique-violation SQLSTATE 23505 is mapped to ErrDuplicateAccount).
 * - Single-account balance mutations lock the row, check the non-negativity
 *   precondition, and update in one transaction.
 * - Transfers lock both rows in lexicographic account-number order to avoid
 *   lock-ordering deadlocks, re-validate every precondition on the locked
 *   rows, and retry a bounded number of times on serialization failures.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and connection pooling.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/onlinebank/ledger-service/internal/domain"
)

// transferMaxAttempts bounds retries on transient serialization conflicts.
// Business-rule failures are never retried.
const transferMaxAttempts = 3

const accountColumns = "id, account_no, holder_name, balance, is_kyc_verified, created_at, updated_at"

// PostgresRepository is the PostgreSQL implementation of the Repository interface.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new repository backed by the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.AccountNo, &a.HolderName, &a.Balance, &a.IsKYCVerified, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAccountByNo returns the account with the given account number.
func (r *PostgresRepository) FindAccountByNo(ctx context.Context, accountNo string) (*domain.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE account_no = $1", accountColumns)
	account, err := scanAccount(r.db.QueryRow(ctx, query, accountNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, mapStoreError(err)
	}
	return account, nil
}

// ListAccounts returns all accounts, most recently created first.
func (r *PostgresRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts ORDER BY created_at DESC", accountColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.AccountNo, &a.HolderName, &a.Balance, &a.IsKYCVerified, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// CreateAccount inserts a new account. The unique index on account_no makes
// the existence check and the insert a single indivisible operation even under
// concurrent creation attempts.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	query := fmt.Sprintf(`
		INSERT INTO accounts (account_no, holder_name, balance, is_kyc_verified)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, accountColumns)

	created, err := scanAccount(r.db.QueryRow(ctx, query,
		account.AccountNo,
		account.HolderName,
		account.Balance,
		account.IsKYCVerified,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, mapStoreError(err)
	}
	return created, nil
}

// UpdateBalance atomically applies delta to an account's balance. The row is
// locked for the duration of the transaction, so the precondition
// balance+delta >= 0 and the update form one atomic unit against concurrent
// mutations of the same account.
func (r *PostgresRepository) UpdateBalance(ctx context.Context, accountNo string, delta int64) (*domain.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, "SELECT balance FROM accounts WHERE account_no = $1 FOR UPDATE", accountNo).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, mapStoreError(err)
	}

	if balance+delta < 0 {
		return nil, ErrInsufficientBalance
	}

	query := fmt.Sprintf(`
		UPDATE accounts SET balance = balance + $1, updated_at = NOW()
		WHERE account_no = $2
		RETURNING %s
	`, accountColumns)
	updated, err := scanAccount(tx.QueryRow(ctx, query, delta, accountNo))
	if err != nil {
		return nil, mapStoreError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapStoreError(err)
	}
	return updated, nil
}

// Transfer atomically moves amount from sender to receiver. Transient
// serialization conflicts are retried a bounded number of times; every other
// failure aborts immediately and leaves both accounts unchanged.
func (r *PostgresRepository) Transfer(ctx context.Context, senderNo, receiverNo string, amount int64) (*domain.Account, *domain.Account, error) {
	var lastErr error
	for attempt := 1; attempt <= transferMaxAttempts; attempt++ {
		sender, receiver, err := r.transferOnce(ctx, senderNo, receiverNo, amount)
		if err == nil {
			return sender, receiver, nil
		}
		if !isSerializationFailure(err) {
			return nil, nil, err
		}
		lastErr = err
		log.Printf("level=warn component=store msg=\"transfer serialization conflict; retrying\" attempt=%d sender=%s receiver=%s", attempt, senderNo, receiverNo)
	}
	return nil, nil, fmt.Errorf("%w: %v", ErrTransactionAborted, lastErr)
}

func (r *PostgresRepository) transferOnce(ctx context.Context, senderNo, receiverNo string, amount int64) (*domain.Account, *domain.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, mapStoreError(err)
	}
	defer tx.Rollback(ctx)

	// Lock both rows in lexicographic account-number order so two concurrent
	// transfers over the same pair in opposite directions cannot deadlock.
	firstNo, secondNo := lockOrder(senderNo, receiverNo)

	lockQuery := fmt.Sprintf("SELECT %s FROM accounts WHERE account_no = $1 FOR UPDATE", accountColumns)

	lock := func(no string) (*domain.Account, error) {
		account, err := scanAccount(tx.QueryRow(ctx, lockQuery, no))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				if no == senderNo {
					return nil, ErrSenderNotFound
				}
				return nil, ErrReceiverNotFound
			}
			return nil, mapStoreError(err)
		}
		return account, nil
	}

	first, err := lock(firstNo)
	if err != nil {
		return nil, nil, err
	}
	second, err := lock(secondNo)
	if err != nil {
		return nil, nil, err
	}

	sender, receiver := first, second
	if first.AccountNo != senderNo {
		sender, receiver = second, first
	}
	_ = receiver

	// Re-validate on the locked rows: state may have changed between any
	// earlier lookup and lock acquisition.
	if !sender.IsKYCVerified {
		return nil, nil, ErrKYCNotVerified
	}
	if sender.Balance < amount {
		return nil, nil, ErrInsufficientBalance
	}

	updateQuery := fmt.Sprintf(`
		UPDATE accounts SET balance = balance + $1, updated_at = NOW()
		WHERE account_no = $2
		RETURNING %s
	`, accountColumns)

	updatedSender, err := scanAccount(tx.QueryRow(ctx, updateQuery, -amount, senderNo))
	if err != nil {
		return nil, nil, mapStoreError(err)
	}
	updatedReceiver, err := scanAccount(tx.QueryRow(ctx, updateQuery, amount, receiverNo))
	if err != nil {
		return nil, nil, mapStoreError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, mapStoreError(err)
	}
	return updatedSender, updatedReceiver, nil
}

// lockOrder returns the two account numbers in the deterministic order in
// which their rows must be locked.
func lockOrder(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// isUniqueViolation reports whether err is a unique-constraint violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isSerializationFailure reports whether err is a transient conflict worth
// retrying: serialization_failure (40001) or deadlock_detected (40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// mapStoreError converts low-level driver failures into the repository's
// sentinel errors where a caller can act on them. Context expiry becomes
// ErrTimeout so callers can tell retryable infrastructure failures from
// business-rule rejections.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return err
	}
}
