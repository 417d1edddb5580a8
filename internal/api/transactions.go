package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fieldbooks-dev/fieldbooks/internal/feed"
	"github.com/fieldbooks-dev/fieldbooks/internal/model"
)

type transactionDTO struct {
	ID                  string `json:"id"`
	Date                string `json:"date"`
	Description         string `json:"description"`
	Amount              string `json:"amount"`
	Source              string `json:"source"`
	Status              string `json:"status"`
	AcceptedAccountID   string `json:"accepted_account_id,omitempty"`
	AcceptedGLAccountID string `json:"accepted_gl_account_id,omitempty"`
	ClassID             string `json:"class_id,omitempty"`
	VendorID            string `json:"vendor_id,omitempty"`
	ExclusionReason     string `json:"exclusion_reason,omitempty"`
	JournalEntryID      string `json:"journal_entry_id,omitempty"`
	Version             int    `json:"version"`
}

func toTransactionDTO(txn *model.Transaction) transactionDTO {
	return transactionDTO{
		ID:                  txn.ID,
		Date:                txn.Date.Format(dateFormat),
		Description:         txn.Description,
		Amount:              txn.Amount.StringFixed(2),
		Source:              txn.Source,
		Status:              string(txn.Status),
		AcceptedAccountID:   txn.AcceptedAccountID,
		AcceptedGLAccountID: txn.AcceptedGLAccountID,
		ClassID:             txn.ClassID,
		VendorID:            txn.VendorID,
		ExclusionReason:     txn.ExclusionReason,
		JournalEntryID:      txn.JournalEntryID,
		Version:             txn.Version,
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	status := model.TransactionStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.TxnPending
	}
	switch status {
	case model.TxnPending, model.TxnAccepted, model.TxnExcluded:
	default:
		writeError(w, &model.ValidationError{Field: "status", Reason: "unknown status " + string(status)})
		return
	}

	txns, err := s.feed.ListByStatus(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]transactionDTO, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionDTO(&txns[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleCreateManual(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date        string `json:"date"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Type        string `json:"type"` // deposit or payment
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	date, err := time.Parse(dateFormat, body.Date)
	if err != nil {
		writeError(w, &model.ValidationError{Field: "date", Reason: "not a YYYY-MM-DD date: " + body.Date})
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeError(w, &model.ValidationError{Field: "amount", Reason: "not a decimal: " + body.Amount})
		return
	}

	txn, err := s.feed.CreateManual(r.Context(), date, body.Description, amount, feed.ManualKind(body.Type))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(txn))
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccountID   string `json:"account_id"`
		ClassID     string `json:"class_id"`
		VendorID    string `json:"vendor_id"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	txn, err := s.feed.Accept(r.Context(), chi.URLParam(r, "id"), feed.AcceptParams{
		AccountID:   body.AccountID,
		ClassID:     body.ClassID,
		VendorID:    body.VendorID,
		Description: body.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(txn))
}

func (s *Server) handleExclude(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	txnID := chi.URLParam(r, "id")
	if err := s.feed.Exclude(r.Context(), txnID, body.Reason); err != nil {
		writeError(w, err)
		return
	}
	s.writeTransaction(w, r, txnID)
}

func (s *Server) handleUnaccept(w http.ResponseWriter, r *http.Request) {
	txnID := chi.URLParam(r, "id")
	if err := s.feed.Unaccept(r.Context(), txnID); err != nil {
		writeError(w, err)
		return
	}
	s.writeTransaction(w, r, txnID)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	txnID := chi.URLParam(r, "id")
	if err := s.feed.Restore(r.Context(), txnID); err != nil {
		writeError(w, err)
		return
	}
	s.writeTransaction(w, r, txnID)
}

func (s *Server) writeTransaction(w http.ResponseWriter, r *http.Request, txnID string) {
	txn, err := s.feed.Get(r.Context(), txnID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(txn))
}
