// Package apperr defines the error kinds shared by the store and its callers.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateID  = errors.New("duplicate id")
	ErrInvalidValue = errors.New("invalid value")
	ErrInvalidField = errors.New("invalid field")
	ErrInvalidInput = errors.New("invalid input")
)
