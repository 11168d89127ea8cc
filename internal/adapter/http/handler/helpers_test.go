package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarworks/marketledger/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"entry not found", domain.ErrEntryNotFound, http.StatusNotFound},
		{"settlement not found", domain.ErrSettlementNotFound, http.StatusNotFound},
		{"frozen retailer", domain.ErrRetailerFrozen, http.StatusConflict},
		{"missing retailer", domain.ErrMissingRetailerID, http.StatusBadRequest},
		{"missing order", domain.ErrMissingOrderID, http.StatusBadRequest},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"amount too large", domain.ErrAmountTooLarge, http.StatusBadRequest},
		{"wrapped validation error", errors.Join(errors.New("context"), domain.ErrMissingNotes), http.StatusBadRequest},
		{
			name: "invariant violation",
			err:  &domain.InvariantViolationError{RetailerID: "ret-1", Remaining: decimal.NewFromInt(1)},
			want: http.StatusInternalServerError,
		},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapDomainError(tt.err))
		})
	}
}

func TestWriteDomainErrorInsufficientBalance(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, &domain.InsufficientBalanceError{
		Requested: decimal.RequireFromString("150.00"),
		Available: decimal.RequireFromString("100.00"),
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"requested":"150.00"`)
	assert.Contains(t, body, `"available":"100.00"`)
}

func TestParseIntQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=25&bad=oops", nil)

	assert.Equal(t, 25, parseIntQuery(r, "limit", 50))
	assert.Equal(t, 50, parseIntQuery(r, "missing", 50))
	assert.Equal(t, 50, parseIntQuery(r, "bad", 50))
}
