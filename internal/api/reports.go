package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fieldbooks-dev/fieldbooks/internal/model"
	"github.com/fieldbooks-dev/fieldbooks/internal/report"
)

const dateFormat = "2006-01-02"

type accountLineDTO struct {
	AccountID string `json:"account_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
}

func toLineDTOs(lines []report.AccountLine) []accountLineDTO {
	out := make([]accountLineDTO, 0, len(lines))
	for _, line := range lines {
		out = append(out, accountLineDTO{
			AccountID: line.AccountID,
			Code:      line.Code,
			Name:      line.Name,
			Type:      string(line.Type),
			Balance:   line.Balance.StringFixed(2),
		})
	}
	return out
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, &model.ValidationError{Field: name, Reason: name + " is required (YYYY-MM-DD)"}
	}
	parsed, err := time.Parse(dateFormat, raw)
	if err != nil {
		return time.Time{}, &model.ValidationError{Field: name, Reason: "not a YYYY-MM-DD date: " + raw}
	}
	return parsed, nil
}

func (s *Server) handleIncomeStatement(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "start")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := queryDate(r, "end")
	if err != nil {
		writeError(w, err)
		return
	}

	stmt, err := s.reports.GetIncomeStatement(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"start":          stmt.Start.Format(dateFormat),
		"end":            stmt.End.Format(dateFormat),
		"revenue":        toLineDTOs(stmt.Revenue),
		"expenses":       toLineDTOs(stmt.Expenses),
		"total_revenue":  stmt.TotalRevenue.StringFixed(2),
		"total_expenses": stmt.TotalExpenses.StringFixed(2),
		"net_income":     stmt.NetIncome.StringFixed(2),
		"warnings":       stmt.Warnings,
	})
}

func (s *Server) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDate(r, "as_of")
	if err != nil {
		writeError(w, err)
		return
	}

	sheet, err := s.reports.GetBalanceSheet(r.Context(), asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"as_of":             sheet.AsOf.Format(dateFormat),
		"assets":            toLineDTOs(sheet.Assets),
		"liabilities":       toLineDTOs(sheet.Liabilities),
		"equity":            toLineDTOs(sheet.Equity),
		"total_assets":      sheet.TotalAssets.StringFixed(2),
		"total_liabilities": sheet.TotalLiabilities.StringFixed(2),
		"total_equity":      sheet.TotalEquity.StringFixed(2),
		"warnings":          sheet.Warnings,
	})
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "start")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := queryDate(r, "end")
	if err != nil {
		writeError(w, err)
		return
	}

	accountID := chi.URLParam(r, "id")
	balance, err := s.reports.AccountBalance(r.Context(), accountID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": accountID,
		"start":      start.Format(dateFormat),
		"end":        end.Format(dateFormat),
		"balance":    balance.StringFixed(2),
	})
}

func (s *Server) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	mismatches, err := s.reports.ReconcileTypes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(mismatches))
	for _, m := range mismatches {
		out = append(out, map[string]any{
			"account_id":    m.AccountID,
			"code":          m.Code,
			"name":          m.Name,
			"type":          string(m.Type),
			"expected_type": string(m.ExpectedType),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"mismatches": out})
}
