// Package errors provides custom error types for product-related operations.
package errors

import "errors"

// ErrProductNotFound is returned when no live product matches the requested
// identifier or code.
var ErrProductNotFound = errors.New("product not found")

// ErrProductCodeExists is returned when a create or update would violate the
// uniqueness of the product code.
var ErrProductCodeExists = errors.New("product code already exists")

// ValidationError reports field constraint violations found by the service
// before any write is attempted.
type ValidationError struct {
	// Fields maps the offending field name to the rule it failed.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
