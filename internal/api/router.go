/**
 * @description
 * This file sets up the HTTP router for the ledger-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * standard middleware.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AccountRoutes creates and returns a new router for the account API.
func AccountRoutes(h *AccountHandlers, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Post("/", h.CreateAccountHandler)
	r.Get("/", h.ListAccountsHandler)
	r.Post("/transfer", h.TransferHandler)
	r.Get("/{accountNo}", h.GetAccountHandler)
	r.Post("/{accountNo}/deposit", h.DepositHandler)
	r.Post("/{accountNo}/withdraw", h.WithdrawHandler)

	return r
}
