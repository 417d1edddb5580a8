// Package api is the HTTP surface over the ledger: read-only reports plus the
// transaction acceptance workflow and chart management. It is a thin layer;
// every rule lives in the services it calls.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fieldbooks-dev/fieldbooks/internal/coa"
	"github.com/fieldbooks-dev/fieldbooks/internal/feed"
	"github.com/fieldbooks-dev/fieldbooks/internal/report"
)

// Server bundles the ledger services behind a chi router.
type Server struct {
	accounts *coa.Service
	feed     *feed.Service
	reports  *report.Service
}

func NewServer(accounts *coa.Service, f *feed.Service, reports *report.Service) *Server {
	return &Server{accounts: accounts, feed: f, reports: reports}
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/reports", func(r chi.Router) {
		r.Get("/income-statement", s.handleIncomeStatement)
		r.Get("/balance-sheet", s.handleBalanceSheet)
		r.Get("/accounts/{id}/balance", s.handleAccountBalance)
		r.Get("/reconciliation", s.handleReconciliation)
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", s.handleListTransactions)
		r.Post("/", s.handleCreateManual)
		r.Post("/{id}/accept", s.handleAccept)
		r.Post("/{id}/exclude", s.handleExclude)
		r.Post("/{id}/unaccept", s.handleUnaccept)
		r.Post("/{id}/restore", s.handleRestore)
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", s.handleListAccounts)
		r.Post("/", s.handleCreateAccount)
		r.Post("/reclassify", s.handleReclassify)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
