package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"recruitmail/internal/types"
)

// Validator wraps go-playground/validator with the mailer's custom tags and
// maps failures to the API error codes.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// ValidationError is one failing field, named by its JSON key.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult separates blocking errors from advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// IsValid reports whether there are no blocking errors. Warnings never make a
// result invalid.
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Warner is implemented by request types that can flag suspicious but
// acceptable input.
type Warner interface {
	ValidationWarnings() []string
}

// NewValidator creates a Validator and registers the custom tags:
//
//	backend  - a known delivery backend id
//	no_crlf  - single-line text, safe to place in a mail header
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	mustRegister(v, "backend", func(fl validator.FieldLevel) bool {
		return types.Backend(fl.Field().String()).Valid()
	})
	mustRegister(v, "no_crlf", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n")
	})

	return &Validator{validate: v, logger: logger}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// ValidateStruct validates s and returns nil or a *types.AppError whose code
// is that of the first failing field. Every failure is listed under the
// "validation_errors" detail.
func (v *Validator) ValidateStruct(s any) error {
	result := v.ValidateStructWithWarnings(s)
	if result.IsValid() {
		return nil
	}

	first := result.Errors[0]
	return types.NewAppErrorWithDetails(
		types.ErrorCode(first.Code),
		first.Message,
		nil,
		map[string]any{"validation_errors": result.Errors},
	)
}

// ValidateStructWithWarnings validates s and also collects warnings when s
// implements Warner. Warnings are gathered even when there are errors.
func (v *Validator) ValidateStructWithWarnings(s any) ValidationResult {
	var result ValidationResult

	if err := v.validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			v.logger.Error("validator misuse", "error", err)
			result.Errors = append(result.Errors, ValidationError{
				Code:    string(types.ErrCodeInternalUnexpected),
				Message: "request could not be validated",
			})
			return result
		}
		for _, fe := range fieldErrs {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fieldPath(fe),
				Code:    string(tagToErrorCode(fe.Tag())),
				Message: fieldMessage(fe),
			})
		}
	}

	if w, ok := s.(Warner); ok {
		result.Warnings = w.ValidationWarnings()
	}
	return result
}

// fieldPath drops the top-level struct name from the namespace, so a nested
// field reads "smtp.port" rather than "configRequest.smtp.port".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Please enter a valid email address"
	case "backend", "oneof":
		return "Unknown email service " + fmt.Sprintf("%q", fe.Value())
	case "no_crlf":
		return field + " must be a single line"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// tagToErrorCode maps a validator tag to the error code reported to clients.
func tagToErrorCode(tag string) types.ErrorCode {
	switch tag {
	case "required":
		return types.ErrCodeValidationMissingField
	case "email":
		return types.ErrCodeValidationInvalidEmail
	case "backend", "oneof":
		return types.ErrCodeValidationInvalidBackend
	}
	return errCodeValidationInvalidField
}

// errCodeValidationInvalidField covers length, range and format failures
// that have no more specific code.
const errCodeValidationInvalidField types.ErrorCode = "validation_invalid_field"
