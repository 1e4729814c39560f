package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/onlinebank/ledger-service/internal/domain"
)

func seedAccount(t *testing.T, r *MemoryRepository, accountNo string, balance int64, kyc bool) *domain.Account {
	t.Helper()
	account, err := r.CreateAccount(context.Background(), &domain.Account{
		AccountNo:     accountNo,
		HolderName:    "Holder " + accountNo,
		Balance:       balance,
		IsKYCVerified: kyc,
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s) returned error: %v", accountNo, err)
	}
	return account
}

func TestMemoryRepositoryCreateAndFind(t *testing.T) {
	r := NewMemoryRepository()
	created := seedAccount(t, r, "ACC1", 1000, true)

	if created.ID == uuid.Nil {
		t.Fatal("expected store-assigned account id")
	}

	found, err := r.FindAccountByNo(context.Background(), "ACC1")
	if err != nil {
		t.Fatalf("FindAccountByNo returned error: %v", err)
	}
	if found.Balance != 1000 || !found.IsKYCVerified {
		t.Fatalf("unexpected account state: %+v", found)
	}
	if found.CreatedAt.IsZero() || found.UpdatedAt.IsZero() {
		t.Fatal("expected store-assigned timestamps")
	}

	// Returned snapshots must not alias internal state.
	found.Balance = 999999
	again, _ := r.FindAccountByNo(context.Background(), "ACC1")
	if again.Balance != 1000 {
		t.Fatalf("snapshot mutation leaked into store: %d", again.Balance)
	}

	if _, err := r.FindAccountByNo(context.Background(), "NOPE"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := r.CreateAccount(context.Background(), &domain.Account{AccountNo: "ACC1", HolderName: "Dup"}); !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestMemoryRepositoryListOrdering(t *testing.T) {
	r := NewMemoryRepository()
	seedAccount(t, r, "ACC1", 0, false)
	time.Sleep(2 * time.Millisecond)
	seedAccount(t, r, "ACC2", 0, false)

	accounts, err := r.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListAccounts returned error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].AccountNo != "ACC2" {
		t.Fatalf("expected newest account first, got %s", accounts[0].AccountNo)
	}
}

func TestMemoryRepositoryUpdateBalancePrecondition(t *testing.T) {
	r := NewMemoryRepository()
	seedAccount(t, r, "ACC1", 100, false)

	if _, err := r.UpdateBalance(context.Background(), "ACC1", -150); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	account, err := r.UpdateBalance(context.Background(), "ACC1", -100)
	if err != nil {
		t.Fatalf("UpdateBalance returned error: %v", err)
	}
	if account.Balance != 0 {
		t.Fatalf("expected balance 0, got %d", account.Balance)
	}
}

func TestMemoryRepositoryTransferAtomicity(t *testing.T) {
	r := NewMemoryRepository()
	seedAccount(t, r, "ACC1", 100, true)
	seedAccount(t, r, "ACC2", 50, false)

	if _, _, err := r.Transfer(context.Background(), "ACC1", "ACC2", 200); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	a1, _ := r.FindAccountByNo(context.Background(), "ACC1")
	a2, _ := r.FindAccountByNo(context.Background(), "ACC2")
	if a1.Balance != 100 || a2.Balance != 50 {
		t.Fatalf("failed transfer left partial state: %d, %d", a1.Balance, a2.Balance)
	}

	sender, receiver, err := r.Transfer(context.Background(), "ACC1", "ACC2", 40)
	if err != nil {
		t.Fatalf("Transfer returned error: %v", err)
	}
	if sender.Balance != 60 || receiver.Balance != 90 {
		t.Fatalf("unexpected post-transfer balances: %d, %d", sender.Balance, receiver.Balance)
	}
}

func TestMemoryRepositoryExpiredContext(t *testing.T) {
	r := NewMemoryRepository()
	seedAccount(t, r, "ACC1", 100, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.FindAccountByNo(ctx, "ACC1"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if _, err := r.UpdateBalance(ctx, "ACC1", 10); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestMemoryRepositoryConcurrentCreate(t *testing.T) {
	r := NewMemoryRepository()

	const attempts = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	created, duplicate := 0, 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.CreateAccount(context.Background(), &domain.Account{AccountNo: "ACC1", HolderName: "Racer"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrDuplicateAccount):
				duplicate++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("expected exactly 1 successful creation, got %d", created)
	}
	if duplicate != attempts-1 {
		t.Fatalf("expected %d duplicate failures, got %d", attempts-1, duplicate)
	}
}
