package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns the configured validator shared by all handlers.
func New() *validatorv10.Validate {
	return validatorv10.New()
}
