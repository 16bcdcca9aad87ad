package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator reading the same `binding` tags gin uses, with
// errors reported under JSON field names.
func New() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	UseJSONNames(v)
	return v
}

// UseJSONNames makes FieldError.Field() return the json tag name.
func UseJSONNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}
