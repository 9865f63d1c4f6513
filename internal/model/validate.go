package model

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		// ignore unexported or explicitly ignored
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil functions.
	_ = validate.RegisterValidation("name", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) <= MaxNameLength
	})
	_ = validate.RegisterValidation("dependents", func(fl validator.FieldLevel) bool {
		return fl.Field().Len() <= DependentLimit
	})
}

// ValidationError lists the fields that failed validation, keyed by their
// JSON path (e.g. "dependents[1].first_name").
type ValidationError struct {
	Fields map[string]string
}

// Error returns the field messages sorted by field path.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return strings.Join(parts, "; ")
}

// Validate checks field lengths and the dependent limit. It does not require
// FirstName, since updates may omit it.
func (m *EmployeeMutation) Validate() error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fieldPath(fe.Namespace())] = formatFieldError(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldPath strips the root struct name and embedded Person segments from a
// validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	return strings.ReplaceAll(namespace, "Person.", "")
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "name":
		return fmt.Sprintf("Maximum length is %d", MaxNameLength)
	case "dependents":
		return fmt.Sprintf("At most %d dependents allowed", DependentLimit)
	default:
		return fmt.Sprintf("Validation failed on '%s'", e.Tag())
	}
}
