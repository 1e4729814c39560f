package app

import (
	"errors"

	"github.com/onlinebank/ledger-service/internal/store"
)

// Validation errors. These are detected before any store interaction, so a
// request failing with one of them has had no side effects.
var (
	ErrInvalidAmount = errors.New("amount must be a positive number with at most two decimal places")
	ErrMissingField  = errors.New("required field is missing")
	ErrSameAccount   = errors.New("sender and receiver accounts must be different")
	ErrRateLimited   = errors.New("too many transfer attempts; slow down")
)

// IsRetryable reports whether the caller may safely retry the failed
// operation. Only store-level conflicts and timeouts are retryable; every
// business-rule rejection is terminal.
func IsRetryable(err error) bool {
	return errors.Is(err, store.ErrTransactionAborted) || errors.Is(err, store.ErrTimeout)
}
