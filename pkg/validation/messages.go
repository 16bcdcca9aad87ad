package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule, keyed by the JSON field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var customValidationMessages = map[string]map[string]string{
	"email": {
		"required": "email is required",
		"email":    "email is not valid",
	},
	"password": {
		"required": "password is required",
		"min":      "password must be at least 6 characters",
	},
	"password_second": {
		"required": "password confirmation is required",
	},
	"name": {
		"required": "name is required",
	},
}

// CustomMessage returns the per-field overrides, nil when none exist.
func CustomMessage(field string) map[string]string {
	return customValidationMessages[field]
}

// Messages flattens a validator error into field messages. Errors that are
// not validation errors yield nil.
func Messages(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		msg := DefaultMessage(field, fe.Tag(), fe.Param())
		if custom, ok := CustomMessage(field)[fe.Tag()]; ok {
			msg = custom
		}
		out = append(out, FieldError{Field: field, Message: msg})
	}
	return out
}
