// internal/core/domain/errors.go
package domain

import "errors"

// Sentinel errors shared across services and handlers. Services wrap these
// with fmt.Errorf("...: %w", err) so callers can match with errors.Is.
var (
	// ErrValidation marks caller errors: empty item lists, malformed
	// identifiers, missing required fields. Safe to surface to the UI.
	ErrValidation = errors.New("validation failed")

	// ErrAccessDenied covers unauthenticated, wrong-role and not-owner
	// access. Handlers surface it as a generic "access denied".
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound marks a missing product, quote or movement.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a status transition is
	// attempted from a state that does not permit it.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrQuoteExpired is returned by an accept attempt whose validity
	// window has elapsed; the quote is moved to expired as a side effect.
	ErrQuoteExpired = errors.New("quote validity has elapsed")

	// ErrProductInactive is returned when a quote line references a
	// product that is missing or no longer active in the catalog.
	ErrProductInactive = errors.New("product is inactive or missing")

	// ErrQuoteNumberTaken signals a unique-index conflict on the
	// generated quote number; the service retries with a fresh suffix.
	ErrQuoteNumberTaken = errors.New("quote number already taken")
)
