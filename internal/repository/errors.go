// Package repository defines error values shared across repositories. These
// sentinels let handlers distinguish failure scenarios: ErrConflict signals
// that a write collides with existing state (a second map for a store, a
// duplicate household identifier), ErrForbidden that the caller does not own
// the resource an operation requires.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when a query scoped by owner matches nothing the
// caller owns. Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update collides with existing
// state, such as creating a location for a store that already has one.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether a MySQL error is a unique-constraint
// violation (error 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
