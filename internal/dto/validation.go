package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return validate
}

// Validate checks payload and converts failures into an apperr validation error.
func Validate(validate *validator.Validate, payload interface{}) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperr.Wrap(apperr.KindValidation, "invalid payload", err)
	}

	fields := make([]apperr.FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, apperr.FieldError{
			Field:   fieldErr.Field(),
			Message: describe(fieldErr),
		})
	}
	return apperr.Validation(fields...)
}

func describe(fieldErr validator.FieldError) string {
	field := fieldErr.Field()
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fieldErr.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fieldErr.Param())
	case "max":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fieldErr.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fieldErr.Param(), " ", ", "))
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fieldErr.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
