package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bazaarworks/marketledger/internal/adapter/http/dto"
	"github.com/bazaarworks/marketledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps a domain error to its HTTP shape. Insufficient
// balance carries both amounts so administrative UIs can show them directly.
func writeDomainError(w http.ResponseWriter, err error) {
	var ibe *domain.InsufficientBalanceError
	if errors.As(err, &ibe) {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:     "insufficient balance",
			Message:   err.Error(),
			Requested: &ibe.Requested,
			Available: &ibe.Available,
		})
		return
	}

	writeError(w, mapDomainError(err), "request failed", err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	var ive *domain.InvariantViolationError
	if errors.As(err, &ive) {
		return http.StatusInternalServerError
	}

	switch {
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrSettlementNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRetailerFrozen):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingRetailerID),
		errors.Is(err, domain.ErrMissingOrderID),
		errors.Is(err, domain.ErrMissingPaymentMode),
		errors.Is(err, domain.ErrMissingNotes),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrNotesTooLong),
		errors.Is(err, domain.ErrInvalidEntryType),
		errors.Is(err, domain.ErrInvalidTransactionType),
		errors.Is(err, domain.ErrInvalidEntryStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
