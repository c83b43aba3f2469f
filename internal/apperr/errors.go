// Package apperr holds sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrCacheMissing       = errors.New("cache entry missing")
	ErrInvariantViolation = errors.New("invariant violation")
)
