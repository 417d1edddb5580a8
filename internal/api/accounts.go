package api

import (
	"net/http"

	"github.com/fieldbooks-dev/fieldbooks/internal/coa"
	"github.com/fieldbooks-dev/fieldbooks/internal/model"
)

type accountDTO struct {
	ID             string `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Subtype        string `json:"subtype,omitempty"`
	NormalBalance  string `json:"normal_balance"`
	IsActive       bool   `json:"is_active"`
	CurrentBalance string `json:"current_balance"`
}

func toAccountDTO(a *model.Account) accountDTO {
	return accountDTO{
		ID:             a.ID,
		Code:           a.Code,
		Name:           a.Name,
		Type:           string(a.Type),
		Subtype:        a.Subtype,
		NormalBalance:  string(a.NormalBalance),
		IsActive:       a.IsActive,
		CurrentBalance: a.CurrentBalance.StringFixed(2),
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != "false"
	accounts, err := s.accounts.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]accountDTO, 0, len(accounts))
	for i := range accounts {
		out = append(out, toAccountDTO(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code    string `json:"code"`
		Name    string `json:"name"`
		Type    string `json:"type"`
		Subtype string `json:"subtype"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	account, err := s.accounts.Create(r.Context(), coa.CreateParams{
		Code:    body.Code,
		Name:    body.Name,
		Type:    model.AccountType(body.Type),
		Subtype: body.Subtype,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

func (s *Server) handleReclassify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Actor   string `json:"actor"`
		Reason  string `json:"reason"`
		Changes []struct {
			Code       string `json:"code"`
			NewType    string `json:"new_type"`
			NewSubtype string `json:"new_subtype"`
		} `json:"changes"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	changes := make([]coa.Change, 0, len(body.Changes))
	for _, c := range body.Changes {
		changes = append(changes, coa.Change{
			Code:       c.Code,
			NewType:    model.AccountType(c.NewType),
			NewSubtype: c.NewSubtype,
		})
	}

	results, err := s.accounts.Reclassify(r.Context(), changes, body.Actor, body.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(results))
	for _, res := range results {
		row := map[string]any{"code": res.Code, "applied": res.Applied}
		if res.Err != nil {
			row["error"] = res.Err.Error()
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}
