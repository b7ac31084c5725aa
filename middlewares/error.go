package middlewares

import (
	"fmt"
	"net/http"

	"travel-backoffice/apperr"
	"travel-backoffice/logger"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// fiberCodes names plain fiber errors (routing, body limit, parser).
var fiberCodes = map[int]string{
	fiber.StatusBadRequest:            "VALIDATION_ERROR",
	fiber.StatusUnauthorized:          "UNAUTHORIZED",
	fiber.StatusNotFound:              "NOT_FOUND",
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	fiber.StatusTooManyRequests:       "RATE_LIMIT_EXCEEDED",
}

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	env := errorEnvelope{RequestID: RequestID(c)}
	status := apperr.HTTPStatus(err)

	var fe *fiber.Error
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &ve):
		status = fiber.StatusBadRequest
		details := make(map[string]string, len(ve))
		for _, f := range ve {
			details[f.Field()] = f.Tag()
		}
		env.Error = errorBody{Code: "VALIDATION_ERROR", Message: "validation failed", Details: details}

	case errors.As(err, &fe) && !isApp(err):
		status = fe.Code
		code, ok := fiberCodes[fe.Code]
		if !ok {
			code = "INTERNAL_ERROR"
			if status < http.StatusInternalServerError {
				code = "HTTP_ERROR"
			}
		}
		msg := fe.Message
		if status >= http.StatusInternalServerError {
			msg = "internal server error"
		}
		env.Error = errorBody{Code: code, Message: msg}

	default:
		env.Error = errorBody{Code: apperr.Code(err), Message: apperr.Message(err)}
	}

	if status >= http.StatusInternalServerError {
		logger.L.Errorw("request failed",
			"request_id", env.RequestID,
			"method", c.Method(),
			"path", c.Path(),
			"error", fmt.Sprintf("%+v", err),
		)
	}
	return c.Status(status).JSON(env)
}

// isApp reports whether err carries one of our classifications.
func isApp(err error) bool {
	return errors.IsAny(err,
		apperr.ErrValidation, apperr.ErrNotFound, apperr.ErrConflict,
		apperr.ErrRateLimited, apperr.ErrUnauthorized, apperr.ErrInternal,
		apperr.ErrGenerationFailed,
	)
}
