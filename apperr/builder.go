package apperr

import (
	"github.com/cockroachdb/errors"
)

// ErrorBuilder assembles an error fluently. Mark ends the chain.
type ErrorBuilder struct {
	err error
}

// NewError starts a builder chain with a fresh error.
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// NewErrorf is NewError with formatting.
func NewErrorf(format string, args ...any) *ErrorBuilder {
	return &ErrorBuilder{err: errors.Newf(format, args...)}
}

// WithError starts a builder chain from an existing cause.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithMessage prefixes the internal message (server logs only).
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint attaches the text shown to API clients.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// Mark tags the error with every reference so errors.Is matches each of them.
func (b *ErrorBuilder) Mark(refs ...error) error {
	for _, ref := range refs {
		b.err = errors.Mark(b.err, ref)
	}
	return b.err
}

// Internal hides err's classification behind an opaque barrier and marks the
// result internal. The cause stays visible in logs via %+v.
func Internal(err error, msg string) error {
	return errors.Mark(errors.HandledWithMessage(err, msg), ErrInternal)
}
