/*
errors.go - Error taxonomy for the cart engine

PURPOSE:
  All error types in one place. The taxonomy is deliberately small:

  1. No owner      - handled as a no-op, NOT an error (see service.go);
                     the sentinel exists only for store implementations
                     that want to guard against misuse.
  2. Store failure - any read/write failure from the backing store,
                     propagated unmodified. The engine never retries a
                     stale read-modify-write cycle on its own.
  3. Conflict      - the store's uniqueness constraint detected a second
                     writer; the service retries once against fresh state.

USAGE:
  if errors.Is(err, cart.ErrConcurrentModification) {
      // re-read and re-reconcile
  }

SEE ALSO:
  - service.go: where NoOwner becomes an empty no-op
  - store/sqlite: where ErrConcurrentModification originates
*/
package cart

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoOwner is returned by store implementations when a mutation is
	// attempted without an owner. The Service never lets this happen: it
	// turns ownerless calls into empty no-ops before reaching the store.
	ErrNoOwner = errors.New("no authenticated owner")

	// ErrLineNotFound is returned when an edit targets a line id that does
	// not exist (or belongs to another owner - indistinguishable on purpose).
	ErrLineNotFound = errors.New("line item not found")

	// ErrConcurrentModification is returned when the store's open-line
	// uniqueness constraint rejects a plan write: a concurrent reconciliation
	// created the same (name, unit, week) line first. Retrying against a
	// fresh snapshot resolves it.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ConflictError reports which pending insert collided with an open line
// created by a concurrent writer.
type ConflictError struct {
	Name   string
	Unit   string
	WeekID WeekID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("open line already exists for %s/%s in week %s", e.Name, e.Unit, e.WeekID)
}

func (e *ConflictError) Unwrap() error { return ErrConcurrentModification }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable reports whether re-reading fresh state and retrying might
// succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsNotFound reports whether the error indicates a missing line.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLineNotFound)
}
