/**
 * @description
 * Pure validation helpers for the ledger engine. These functions have no side
 * effects and touch no external resources; the engine runs them before any
 * store access so that invalid requests fail fast with zero side effects.
 */

package app

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// minorUnitsPerMajor converts between major currency units and the int64
// cent amounts the ledger stores.
const minorUnitsPerMajor = 100

// ParseAmount converts a raw amount in major currency units into minor units.
// It rejects non-finite values, non-positive values, and values with sub-cent
// precision. No rounding is applied.
func ParseAmount(raw float64) (int64, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, ErrInvalidAmount
	}
	if raw <= 0 {
		return 0, ErrInvalidAmount
	}

	scaled := raw * minorUnitsPerMajor
	cents := math.Round(scaled)
	// Binary floats cannot represent most decimal fractions exactly, so allow
	// the tiny representation error of a two-decimal value while still
	// rejecting genuine sub-cent amounts like 10.001.
	if math.Abs(scaled-cents) > 1e-6 {
		return 0, ErrInvalidAmount
	}
	if cents <= 0 || cents > math.MaxInt64 {
		return 0, ErrInvalidAmount
	}
	return int64(cents), nil
}

// ValidateDistinctAccounts fails when a transfer references the same account
// on both sides. Account numbers are case-sensitive, so this is an exact match.
func ValidateDistinctAccounts(senderNo, receiverNo string) error {
	if senderNo == receiverNo {
		return ErrSameAccount
	}
	return nil
}

// ValidateRequiredFields fails when any named field is empty after trimming
// surrounding whitespace. Field names appear in the error for the caller.
func ValidateRequiredFields(fields map[string]string) error {
	missing := []string{}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}
