/**
 * @description
 * This file contains the core business logic for the ledger-service. The
 * `Service` struct orchestrates all account operations, coordinating between
 * the repository and the message broker.
 *
 * Key features:
 * - Implements the four atomic ledger operations: CreateAccount, Deposit,
 *   Withdraw, and Transfer, plus balance inquiry and listing.
 * - Pure validation always runs before any store access, so validation
 *   failures have no side effects.
 * - All balance mutations delegate their precondition checks to the store's
 *   transaction scope; the engine never caches balances across calls.
 * - Publishes ledger events to RabbitMQ after a mutation has durably
 *   committed. Publishing is best effort and never fails the operation.
 *
 * @dependencies
 * - context, errors, log, strings, time: Standard Go libraries.
 * - github.com/google/uuid: Event identifiers.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Event publishing.
 */

package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onlinebank/ledger-service/internal/domain"
	"github.com/onlinebank/ledger-service/internal/store"
	"github.com/onlinebank/ledger-service/pkg/rabbitmq"
)

// TransferRateLimiter is implemented by distributed limiters that bound how
// often a single account may initiate transfers.
type TransferRateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core ledger operations.
type Service struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher
	eventExchange string

	rateLimiter          TransferRateLimiter
	transferRateLimit    int
	transferRateLimitWin time.Duration
}

// NewService creates a new ledger service instance. producer may be nil when
// no broker is configured; events are then skipped.
func NewService(repo store.Repository, producer rabbitmq.Publisher, eventExchange string) *Service {
	return &Service{
		repo:          repo,
		eventProducer: producer,
		eventExchange: eventExchange,
	}
}

// SetTransferRateLimiter enables per-sender rate limiting on transfers.
func (s *Service) SetTransferRateLimiter(limiter TransferRateLimiter, perMinute int) {
	s.rateLimiter = limiter
	s.transferRateLimit = perMinute
	s.transferRateLimitWin = time.Minute
}

// CreateAccount atomically creates a new account. An initial deposit of
// exactly zero is allowed; any other value must be a valid positive amount.
func (s *Service) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	if err := ValidateRequiredFields(map[string]string{
		"account_no":  req.AccountNo,
		"holder_name": req.HolderName,
	}); err != nil {
		return nil, err
	}

	var balance int64
	if req.InitialDeposit != 0 {
		parsed, err := ParseAmount(req.InitialDeposit)
		if err != nil {
			return nil, err
		}
		balance = parsed
	}

	account := &domain.Account{
		AccountNo:     strings.TrimSpace(req.AccountNo),
		HolderName:    strings.TrimSpace(req.HolderName),
		Balance:       balance,
		IsKYCVerified: req.IsKYCVerified,
	}

	created, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.LedgerEvent{
		Type:      domain.EventAccountCreated,
		AccountNo: created.AccountNo,
		Amount:    created.Balance,
	})
	return created, nil
}

// GetAccount returns the current state of an account.
func (s *Service) GetAccount(ctx context.Context, accountNo string) (*domain.Account, error) {
	if err := ValidateRequiredFields(map[string]string{"account_no": accountNo}); err != nil {
		return nil, err
	}
	return s.repo.FindAccountByNo(ctx, accountNo)
}

// ListAccounts returns all accounts, most recently created first.
func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// Deposit atomically increments an account's balance. The increment happens in
// one store transaction, so concurrent deposits cannot lose updates.
func (s *Service) Deposit(ctx context.Context, accountNo string, rawAmount float64) (*domain.Account, error) {
	if err := ValidateRequiredFields(map[string]string{"account_no": accountNo}); err != nil {
		return nil, err
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.UpdateBalance(ctx, accountNo, amount)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.LedgerEvent{
		Type:      domain.EventDepositCompleted,
		AccountNo: account.AccountNo,
		Amount:    amount,
	})
	return account, nil
}

// Withdraw atomically decrements an account's balance. The sufficiency check
// and the decrement are one atomic unit inside the store transaction, so
// concurrent withdrawals can never overdraw the account.
func (s *Service) Withdraw(ctx context.Context, accountNo string, rawAmount float64) (*domain.Account, error) {
	if err := ValidateRequiredFields(map[string]string{"account_no": accountNo}); err != nil {
		return nil, err
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.UpdateBalance(ctx, accountNo, -amount)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.LedgerEvent{
		Type:      domain.EventWithdrawCompleted,
		AccountNo: account.AccountNo,
		Amount:    amount,
	})
	return account, nil
}

// Transfer atomically moves funds between two accounts. Validation runs first
// with no side effects; the store then re-validates existence, sender KYC, and
// sender balance on locked rows and applies both writes in one transaction.
// On success both post-transfer account records are returned.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	if err := ValidateRequiredFields(map[string]string{
		"sender_account_no":   req.SenderAccountNo,
		"receiver_account_no": req.ReceiverAccountNo,
	}); err != nil {
		return nil, err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if err := ValidateDistinctAccounts(req.SenderAccountNo, req.ReceiverAccountNo); err != nil {
		return nil, err
	}

	if err := s.consumeTransferRateLimit(ctx, req.SenderAccountNo); err != nil {
		return nil, err
	}

	sender, receiver, err := s.repo.Transfer(ctx, req.SenderAccountNo, req.ReceiverAccountNo, amount)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.LedgerEvent{
		Type:                  domain.EventTransferCompleted,
		AccountNo:             sender.AccountNo,
		CounterpartyAccountNo: receiver.AccountNo,
		Amount:                amount,
	})
	return &domain.TransferResult{Sender: sender, Receiver: receiver}, nil
}

func (s *Service) consumeTransferRateLimit(ctx context.Context, senderNo string) error {
	if s.rateLimiter == nil || s.transferRateLimit <= 0 {
		return nil
	}
	count, retryAfter, err := s.rateLimiter.ConsumeRateLimit(ctx, "transfer", senderNo, s.transferRateLimit, s.transferRateLimitWin)
	if err != nil {
		// Limiter outages must not block money movement.
		log.Printf("level=warn component=ledger msg=\"rate limiter unavailable; allowing transfer\" sender=%s err=%v", senderNo, err)
		return nil
	}
	if count > s.transferRateLimit {
		log.Printf("level=info component=ledger msg=\"transfer rate limited\" sender=%s count=%d retry_after_s=%d", senderNo, count, retryAfter)
		return ErrRateLimited
	}
	return nil
}

// publishEvent emits a ledger event after a committed mutation. Failures are
// logged and swallowed: eventing is informational and must never report a
// committed operation as failed.
func (s *Service) publishEvent(ctx context.Context, event domain.LedgerEvent) {
	if s.eventProducer == nil {
		return
	}
	event.EventID = uuid.New()
	event.Timestamp = time.Now().UTC()

	if err := s.eventProducer.Publish(ctx, s.eventExchange, "ledger."+event.Type, event); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("level=warn component=ledger msg=\"event publish failed\" type=%s account=%s err=%v", event.Type, event.AccountNo, err)
	}
}
