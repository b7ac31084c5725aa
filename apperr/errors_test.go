package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", NewError("bad").Mark(ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"overpayment", NewError("too much").Mark(ErrOverpayment, ErrValidation), http.StatusBadRequest, "OVERPAYMENT"},
		{"already accepted", NewError("dup").Mark(ErrAlreadyAccepted, ErrConflict), http.StatusConflict, "QUOTATION_ALREADY_ACCEPTED"},
		{"not acceptable", NewError("rejected").Mark(ErrNotAcceptable, ErrConflict), http.StatusConflict, "QUOTATION_NOT_ACCEPTABLE"},
		{"not found", NewError("missing").Mark(ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"rate limited", NewError("slow down").Mark(ErrRateLimited), http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{"wrapped", fmt.Errorf("ctx: %w", NewError("x").Mark(ErrNotFound)), http.StatusNotFound, "NOT_FOUND"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.code, Code(tt.err))
		})
	}
}

func TestMessageHidesInternalDetail(t *testing.T) {
	err := NewError("pq: connection refused").WithHint("db is down").Mark(ErrInternal)
	assert.Equal(t, "internal server error", Message(err))

	err = NewError("amount <= 0").WithHint("payment amount must be positive").Mark(ErrValidation)
	assert.Equal(t, "payment amount must be positive", Message(err))

	assert.Equal(t, ErrNotFound.Error(), Message(NewError("x").Mark(ErrNotFound)))
}

func TestInternalHidesClassification(t *testing.T) {
	cause := NewError("no rate for USD/EUR").WithHint("no exchange rate").Mark(ErrNotFound)
	err := Internal(cause, "lock exchange rate")

	assert.False(t, IsNotFound(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	assert.Equal(t, "INTERNAL_ERROR", Code(err))
	assert.Equal(t, "internal server error", Message(err))
	assert.Contains(t, fmt.Sprintf("%+v", err), "no rate for USD/EUR")
}

func TestWithStatusKeepsCodeAndMessage(t *testing.T) {
	err := NewError("dup").WithHint("quotation has already been accepted").Mark(ErrAlreadyAccepted, ErrConflict)
	err = WithStatus(err, http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	assert.Equal(t, "QUOTATION_ALREADY_ACCEPTED", Code(err))
	assert.Equal(t, "quotation has already been accepted", Message(err))
	assert.True(t, IsConflict(err))
	assert.Nil(t, WithStatus(nil, http.StatusBadRequest))
}
