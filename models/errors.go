package models

import (
	"errors"
	"fmt"
)

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

// ValidationError reports a malformed or missing field in a product payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid product: " + e.Reason
	}
	return fmt.Sprintf("invalid product: %s: %s", e.Field, e.Reason)
}

// DataValidationError is returned by the repository when a product cannot be
// written as given: missing or unexpected id, invalid fields, or a
// constraint rejected by the store.
type DataValidationError struct {
	Op  string
	Err error
}

func (e *DataValidationError) Error() string {
	return fmt.Sprintf("%s product: %v", e.Op, e.Err)
}

func (e *DataValidationError) Unwrap() error { return e.Err }

// StoreError wraps an unexpected persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s product: store failure: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
