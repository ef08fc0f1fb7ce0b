package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"invoicing-service/internal/core"
)

// apiResponse is the envelope every endpoint uses: a success flag, the data
// on success, a message on failure, and per-field errors for validation
// failures.
type apiResponse struct {
	Success   bool              `json:"success"`
	Data      any               `json:"data,omitempty"`
	Message   string            `json:"message,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func writeSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func writeFail(w http.ResponseWriter, r *http.Request, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{
		Success:   false,
		Message:   message,
		RequestID: requestIDFromContext(r.Context()),
	})
}

func writeFieldErrors(w http.ResponseWriter, r *http.Request, errs core.FieldErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(apiResponse{
		Success:   false,
		Message:   "validation failed",
		Errors:    errs,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeServiceError maps service errors onto HTTP statuses and the response
// envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs core.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeFieldErrors(w, r, fieldErrs)
		return
	}

	switch {
	case errors.Is(err, core.ErrInvoiceNotFound),
		errors.Is(err, core.ErrClientNotFound),
		errors.Is(err, core.ErrProjectNotFound),
		errors.Is(err, core.ErrCurrencyNotFound),
		errors.Is(err, core.ErrEstimateNotFound),
		errors.Is(err, core.ErrAttachmentNotFound):
		writeFail(w, r, err.Error(), http.StatusNotFound)
	case errors.Is(err, core.ErrDuplicateInvoiceNo):
		writeFail(w, r, err.Error(), http.StatusConflict)
	case errors.Is(err, core.ErrInvalidCredentials):
		writeFail(w, r, err.Error(), http.StatusUnauthorized)
	default:
		writeFail(w, r, err.Error(), http.StatusInternalServerError)
	}
}

// decodeJSON decodes a JSON request body, replying 400 on failure. Returns
// false when the caller should stop.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeFail(w, r, "malformed JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
