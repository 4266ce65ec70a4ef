// Package domain errors.go contains sentinel errors
package domain

import "errors"

// Sentinel domain-level errors reused by higher layers.
var (
	// ErrInvalidArgument reports structurally malformed identifier input:
	// an empty string, a string that is not 24 characters, or a raw payload
	// that is not 12 bytes.
	ErrInvalidArgument = errors.New("invalid argument")
)
