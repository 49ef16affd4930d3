// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"quiz_funnel_backend/platform/emailaddr"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the funnel's custom rules
// registered. The funnel_email tag applies the layered lead-capture email
// rules from platform/emailaddr; the stock email tag accepts addresses
// the funnel must reject (e.g., missing TLD).
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("funnel_email", func(fl validator.FieldLevel) bool {
		return emailaddr.Validate(fl.Field().String()) == nil
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
