package api

import (
	"errors"
	"net/http"

	"github.com/fieldbooks-dev/fieldbooks/internal/model"
)

// errorBody is the JSON error envelope. Code is stable and machine-matchable;
// Message carries the typed error's structured detail.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps the ledger error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is an internal error with the detail withheld.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation  *model.ValidationError
		unbalanced  *model.UnbalancedEntryError
		duplicate   *model.DuplicateCodeError
		dependent   *model.HasDependentActivityError
		unlinked    *model.UnlinkedBankSourceError
		invalid     *model.InvalidStateError
		notFound    *model.NotFoundError
		concurrency *model.ConcurrencyConflictError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "validation", Message: err.Error()})
	case errors.As(err, &unbalanced):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "unbalanced_entry", Message: err.Error()})
	case errors.As(err, &duplicate):
		writeJSON(w, http.StatusConflict, errorBody{Code: "duplicate_code", Message: err.Error()})
	case errors.As(err, &dependent):
		writeJSON(w, http.StatusConflict, errorBody{Code: "has_dependent_activity", Message: err.Error()})
	case errors.As(err, &unlinked):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Code: "unlinked_bank_source", Message: err.Error()})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusConflict, errorBody{Code: "invalid_state", Message: err.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody{Code: "not_found", Message: err.Error()})
	case errors.As(err, &concurrency):
		writeJSON(w, http.StatusConflict, errorBody{Code: "concurrency_conflict", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "internal", Message: "internal error"})
	}
}
