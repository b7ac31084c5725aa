// Package apperr defines the error taxonomy shared by services and HTTP handlers.
package apperr

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Top level kinds. Every error leaving a service is marked with exactly one of these.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

// Refinements. They are additionally marked with their kind when raised.
var (
	ErrAlreadyAccepted     = errors.New("quotation already accepted")
	ErrNotAcceptable       = errors.New("quotation cannot be accepted")
	ErrOverpayment         = errors.New("payment exceeds outstanding amount")
	ErrCurrencyMismatch    = errors.New("payment currency does not match invoice currency")
	ErrGenerationFailed    = errors.New("booking number generation failed")
	ErrIdempotencyMismatch = errors.New("idempotency key reused with a different request")
	ErrRequestInProgress   = errors.New("request with this idempotency key is in progress")
)

type mapping struct {
	ref    error
	code   string
	status int
}

// Order matters: internal wins, then refinements are checked before their kinds.
var mappings = []mapping{
	{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError},
	{ErrAlreadyAccepted, "QUOTATION_ALREADY_ACCEPTED", http.StatusConflict},
	{ErrNotAcceptable, "QUOTATION_NOT_ACCEPTABLE", http.StatusConflict},
	{ErrOverpayment, "OVERPAYMENT", http.StatusBadRequest},
	{ErrCurrencyMismatch, "CURRENCY_MISMATCH", http.StatusBadRequest},
	{ErrIdempotencyMismatch, "IDEMPOTENCY_KEY_REUSED", http.StatusConflict},
	{ErrRequestInProgress, "REQUEST_IN_PROGRESS", http.StatusConflict},
	{ErrGenerationFailed, "INTERNAL_ERROR", http.StatusInternalServerError},
	{ErrValidation, "VALIDATION_ERROR", http.StatusBadRequest},
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{ErrConflict, "CONFLICT", http.StatusConflict},
	{ErrRateLimited, "RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
}

func lookup(err error) (mapping, bool) {
	for _, m := range mappings {
		if errors.Is(err, m.ref) {
			return m, true
		}
	}
	return mapping{}, false
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

// WithStatus keeps err's code and message but answers with status.
func WithStatus(err error, status int) error {
	if err == nil {
		return nil
	}
	return &statusError{err: err, status: status}
}

// HTTPStatus maps err to a response status. Unknown errors are 500.
func HTTPStatus(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	if m, ok := lookup(err); ok {
		return m.status
	}
	return http.StatusInternalServerError
}

// Code returns the machine readable code for err.
func Code(err error) string {
	if m, ok := lookup(err); ok {
		return m.code
	}
	return "INTERNAL_ERROR"
}

// IsInternal reports whether err must be hidden from clients.
func IsInternal(err error) bool {
	return HTTPStatus(err) >= http.StatusInternalServerError
}

// Message returns the client facing message: the first hint, or the kind's text.
func Message(err error) string {
	if IsInternal(err) {
		return "internal server error"
	}
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return hints[0]
	}
	if m, ok := lookup(err); ok {
		return m.ref.Error()
	}
	return err.Error()
}

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }

// Is re-exports errors.Is so callers need a single errors import.
func Is(err, target error) bool { return errors.Is(err, target) }
