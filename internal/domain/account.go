/**
 * @description
 * This file defines the core domain models for the ledger-service. These structs
 * represent the account entity and the data transfer objects (DTOs) used by the
 * business logic, database, and API layers.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (cents), which
 *   avoids floating-point inaccuracies with financial data. API requests accept
 *   amounts in major units and are converted during validation.
 * - Using distinct types for API requests and database models keeps the layers
 *   decoupled and type safe.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a single bank account in the ledger. This struct maps
// directly to the `accounts` table in the database.
type Account struct {
	ID            uuid.UUID `json:"id"`
	AccountNo     string    `json:"account_no"`
	HolderName    string    `json:"holder_name"`
	Balance       int64     `json:"balance"` // in cents
	IsKYCVerified bool      `json:"is_kyc_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateAccountRequest is the DTO for incoming account creation API requests.
type CreateAccountRequest struct {
	AccountNo      string  `json:"account_no"`
	HolderName     string  `json:"holder_name"`
	InitialDeposit float64 `json:"initial_deposit"` // in major units, default 0
	IsKYCVerified  bool    `json:"is_kyc_verified"`
}

// AmountRequest is the DTO for deposit and withdrawal API requests.
type AmountRequest struct {
	Amount float64 `json:"amount"` // in major units
}

// TransferRequest is the DTO for incoming transfer API requests.
type TransferRequest struct {
	SenderAccountNo   string  `json:"sender_account_no"`
	ReceiverAccountNo string  `json:"receiver_account_no"`
	Amount            float64 `json:"amount"` // in major units
}

// TransferResult carries both post-transfer account records back to the caller.
type TransferResult struct {
	Sender   *Account `json:"sender"`
	Receiver *Account `json:"receiver"`
}

// LedgerEvent is the message payload published to RabbitMQ after a balance
// mutation has durably committed.
type LedgerEvent struct {
	EventID               uuid.UUID `json:"event_id"`
	Type                  string    `json:"type"` // e.g. 'transfer.completed'
	AccountNo             string    `json:"account_no"`
	CounterpartyAccountNo string    `json:"counterparty_account_no,omitempty"`
	Amount                int64     `json:"amount"` // in cents
	Timestamp             time.Time `json:"timestamp"`
}

// Ledger event types.
const (
	EventAccountCreated    = "account.created"
	EventDepositCompleted  = "deposit.completed"
	EventWithdrawCompleted = "withdrawal.completed"
	EventTransferCompleted = "transfer.completed"
)
