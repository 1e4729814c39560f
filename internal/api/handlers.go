/**
 * @description
 * This file contains the HTTP handlers for the ledger-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the ledger service, and writing the HTTP response.
 * They act as the bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: For service logic, models,
 *   and the error taxonomy.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onlinebank/ledger-service/internal/app"
	"github.com/onlinebank/ledger-service/internal/domain"
	"github.com/onlinebank/ledger-service/internal/store"
)

// AccountHandlers holds the ledger service that handlers will use.
type AccountHandlers struct {
	service *app.Service
}

// NewAccountHandlers creates the handler set for the account API.
func NewAccountHandlers(service *app.Service) *AccountHandlers {
	return &AccountHandlers{service: service}
}

// accountResponse wraps a single account payload with a human-readable message.
type accountResponse struct {
	Message string          `json:"message"`
	Account *domain.Account `json:"account"`
}

// transferResponse mirrors the original API shape: both post-transfer records.
type transferResponse struct {
	Message  string          `json:"message"`
	Sender   *domain.Account `json:"sender"`
	Receiver *domain.Account `json:"receiver"`
}

// CreateAccountHandler handles POST / — account creation.
func (h *AccountHandlers) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, accountResponse{Message: "Account created successfully", Account: account})
}

// ListAccountsHandler handles GET / — all accounts, newest first.
func (h *AccountHandlers) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

// GetAccountHandler handles GET /{accountNo} — balance inquiry.
func (h *AccountHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountNo := chi.URLParam(r, "accountNo")

	account, err := h.service.GetAccount(r.Context(), accountNo)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]*domain.Account{"account": account})
}

// DepositHandler handles POST /{accountNo}/deposit.
func (h *AccountHandlers) DepositHandler(w http.ResponseWriter, r *http.Request) {
	accountNo := chi.URLParam(r, "accountNo")

	var req domain.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.Deposit(r.Context(), accountNo, req.Amount)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, accountResponse{Message: "Deposit successful", Account: account})
}

// WithdrawHandler handles POST /{accountNo}/withdraw.
func (h *AccountHandlers) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	accountNo := chi.URLParam(r, "accountNo")

	var req domain.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.Withdraw(r.Context(), accountNo, req.Amount)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, accountResponse{Message: "Withdrawal successful", Account: account})
}

// TransferHandler handles POST /transfer.
func (h *AccountHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Transfer(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, transferResponse{
		Message:  "Transfer successful",
		Sender:   result.Sender,
		Receiver: result.Receiver,
	})
}

// writeServiceError maps the service's typed errors onto HTTP statuses. Every
// error kind has exactly one stable message, taken from the error itself.
func (h *AccountHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidAmount),
		errors.Is(err, app.ErrMissingField),
		errors.Is(err, app.ErrSameAccount):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrSenderNotFound),
		errors.Is(err, store.ErrReceiverNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateAccount):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrKYCNotVerified):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrInsufficientBalance):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, app.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, store.ErrTimeout):
		h.writeError(w, http.StatusGatewayTimeout, store.ErrTimeout.Error())
	case errors.Is(err, store.ErrTransactionAborted):
		h.writeError(w, http.StatusServiceUnavailable, store.ErrTransactionAborted.Error())
	default:
		log.Printf("level=error component=api msg=\"unhandled service error\" path=%s err=%v", r.URL.Path, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *AccountHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *AccountHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
