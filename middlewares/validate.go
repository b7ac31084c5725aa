package middlewares

import (
	"reflect"
	"strings"

	"travel-backoffice/apperr"
	"travel-backoffice/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

// newValidator reports fields by their json name so error details match the request body.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// BindAndValidate parses the JSON body into dst, normalizes it and validates it.
// Returns a validation error for parse errors and validator.ValidationErrors for field issues.
func BindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return apperr.NewError("empty request body").
			WithHint("request body is required").
			Mark(apperr.ErrValidation)
	}
	if err := c.BodyParser(dst); err != nil {
		return apperr.WithError(err).
			WithHint("invalid request body").
			Mark(apperr.ErrValidation)
	}
	utils.NormalizeDTO(dst)
	return validate.Struct(dst)
}

// ValidateStruct validates any struct value using the shared validator instance.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
