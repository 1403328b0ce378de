package hrest

import (
	"encoding/json"
	"errors"
	"net/http"

	"wallet-service/pkg/xerrors"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Status: "success",
		Data:   data,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Status:  "error",
		Message: msg,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeError maps the ledger's error kinds onto HTTP statuses. Anything not
// recognized is a storage-layer failure and surfaces as a 500; those are the
// only non-recoverable outcomes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrInvalidAmount),
		errors.Is(err, xerrors.ErrInvalidMethod),
		errors.Is(err, xerrors.ErrRejectReasonNeeded),
		errors.Is(err, xerrors.ErrInvalidInput):
		writeErrorMsg(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, xerrors.ErrInsufficientFunds):
		writeErrorMsg(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, xerrors.ErrInvalidTransition),
		errors.Is(err, xerrors.ErrWalletNotActive),
		errors.Is(err, xerrors.ErrWithdrawalWindowExpired),
		errors.Is(err, xerrors.ErrVersionConflict):
		writeErrorMsg(w, http.StatusConflict, err.Error())
	default:
		writeErrorMsg(w, http.StatusInternalServerError, "internal server error")
	}
}
