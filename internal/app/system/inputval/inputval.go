// Package inputval validates request payloads declared as structs with
// go-playground/validator tags. The "label" tag supplies the human name
// used in messages, e.g.
//
//	type createInput struct {
//	    TenderID string `validate:"required,max=100" label:"Tender ID"`
//	}
package inputval

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		// notblank rejects whitespace-only strings.
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return v
}

// ValidationError describes a single invalid field.
// Message is safe to return to API callers.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid builds a ValidationError for field with a formatted message.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Result collects the validation errors for one payload.
type Result struct {
	Errors []*ValidationError
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first failure, or nil.
func (r Result) First() *ValidationError {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// Err returns the first failure as an error, or nil.
func (r Result) Err() error {
	if first := r.First(); first != nil {
		return first
	}
	return nil
}

// Validate runs the struct tag rules of input.
func Validate(input any) Result {
	err := get().Struct(input)
	if err == nil {
		return Result{}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Result{Errors: []*ValidationError{{Message: err.Error()}}}
	}
	out := Result{Errors: make([]*ValidationError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, &ValidationError{
			Field:   fe.StructField(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return label + " is invalid."
	}
}
