package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onlinebank/ledger-service/internal/app"
	"github.com/onlinebank/ledger-service/internal/domain"
	"github.com/onlinebank/ledger-service/internal/store"
)

func newTestRouter() http.Handler {
	repo := store.NewMemoryRepository()
	service := app.NewService(repo, nil, "ledger.events")
	return AccountRoutes(NewAccountHandlers(service), 5*time.Second)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createAccount(t *testing.T, router http.Handler, accountNo string, initial float64, kyc bool) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/", domain.CreateAccountRequest{
		AccountNo:      accountNo,
		HolderName:     "Holder " + accountNo,
		InitialDeposit: initial,
		IsKYCVerified:  kyc,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating %s, got %d: %s", accountNo, rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateAccountEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/", domain.CreateAccountRequest{
		AccountNo:      "ACC1",
		HolderName:     "Ada Lovelace",
		InitialDeposit: 100,
		IsKYCVerified:  true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Account domain.Account `json:"account"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Account.Balance != 10000 {
		t.Fatalf("expected balance 10000 cents, got %d", created.Account.Balance)
	}

	// Same account number again must conflict.
	rec = doJSON(t, router, http.MethodPost, "/", domain.CreateAccountRequest{
		AccountNo:  "ACC1",
		HolderName: "Impostor",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", rec.Code)
	}

	// Missing fields are a bad request.
	rec = doJSON(t, router, http.MethodPost, "/", domain.CreateAccountRequest{AccountNo: "ACC2"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing holder name, got %d", rec.Code)
	}
}

func TestDepositWithdrawEndpoints(t *testing.T) {
	router := newTestRouter()
	createAccount(t, router, "ACC1", 0, false)

	rec := doJSON(t, router, http.MethodPost, "/ACC1/deposit", domain.AmountRequest{Amount: 100})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/ACC1/withdraw", domain.AmountRequest{Amount: 150})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for overdraw, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/NOPE/deposit", domain.AmountRequest{Amount: 10})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown account, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/ACC1/deposit", domain.AmountRequest{Amount: -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid amount, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/ACC1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Account domain.Account `json:"account"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Account.Balance != 10000 {
		t.Fatalf("expected balance 10000, got %d", got.Account.Balance)
	}
}

func TestTransferEndpoint(t *testing.T) {
	router := newTestRouter()
	createAccount(t, router, "ACC1", 100, true)
	createAccount(t, router, "ACC2", 0, false)

	rec := doJSON(t, router, http.MethodPost, "/transfer", domain.TransferRequest{
		SenderAccountNo:   "ACC1",
		ReceiverAccountNo: "ACC2",
		Amount:            100,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Sender   domain.Account `json:"sender"`
		Receiver domain.Account `json:"receiver"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Sender.Balance != 0 || result.Receiver.Balance != 10000 {
		t.Fatalf("unexpected post-transfer balances: %d, %d", result.Sender.Balance, result.Receiver.Balance)
	}

	// Reverse direction is blocked: ACC2 is not KYC verified.
	rec = doJSON(t, router, http.MethodPost, "/transfer", domain.TransferRequest{
		SenderAccountNo:   "ACC2",
		ReceiverAccountNo: "ACC1",
		Amount:            50,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unverified sender, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/transfer", domain.TransferRequest{
		SenderAccountNo:   "ACC1",
		ReceiverAccountNo: "ACC1",
		Amount:            10,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for same-account transfer, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/transfer", domain.TransferRequest{
		SenderAccountNo:   "GHOST",
		ReceiverAccountNo: "ACC1",
		Amount:            10,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown sender, got %d", rec.Code)
	}
}

func TestListAccountsEndpoint(t *testing.T) {
	router := newTestRouter()
	for i := 1; i <= 3; i++ {
		createAccount(t, router, fmt.Sprintf("ACC%d", i), 0, false)
	}

	rec := doJSON(t, router, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Accounts []domain.Account `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got.Accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(got.Accounts))
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}
