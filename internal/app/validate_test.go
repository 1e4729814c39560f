package app

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     float64
		want    int64
		wantErr error
	}{
		{name: "whole units", raw: 100, want: 10000},
		{name: "two decimal places", raw: 99.99, want: 9999},
		{name: "single cent", raw: 0.01, want: 1},
		{name: "large amount keeps precision", raw: 1234567.89, want: 123456789},
		{name: "zero rejected", raw: 0, wantErr: ErrInvalidAmount},
		{name: "negative rejected", raw: -5, wantErr: ErrInvalidAmount},
		{name: "sub-cent precision rejected", raw: 10.001, wantErr: ErrInvalidAmount},
		{name: "NaN rejected", raw: math.NaN(), wantErr: ErrInvalidAmount},
		{name: "positive infinity rejected", raw: math.Inf(1), wantErr: ErrInvalidAmount},
		{name: "negative infinity rejected", raw: math.Inf(-1), wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %d cents, got %d", tt.want, got)
			}
		})
	}
}

func TestValidateDistinctAccounts(t *testing.T) {
	if err := ValidateDistinctAccounts("ACC1", "ACC1"); !errors.Is(err, ErrSameAccount) {
		t.Fatalf("expected ErrSameAccount, got %v", err)
	}
	if err := ValidateDistinctAccounts("ACC1", "ACC2"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	// Account numbers are case-sensitive, so these are distinct.
	if err := ValidateDistinctAccounts("acc1", "ACC1"); err != nil {
		t.Fatalf("expected nil error for case-distinct numbers, got %v", err)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	err := ValidateRequiredFields(map[string]string{
		"account_no":  "  ",
		"holder_name": "Ada Lovelace",
	})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if !strings.Contains(err.Error(), "account_no") {
		t.Fatalf("expected field name in error, got %v", err)
	}
	if strings.Contains(err.Error(), "holder_name") {
		t.Fatalf("did not expect populated field in error, got %v", err)
	}

	err = ValidateRequiredFields(map[string]string{
		"account_no":  "ACC1",
		"holder_name": "Ada Lovelace",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
