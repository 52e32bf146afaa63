/*
store.go - Persistence interface for cart line items

PURPOSE:
  Defines the interface between the aggregation engine's callers and the
  database. Every operation is scoped to an explicit owner; the store never
  exposes one owner's lines to another and never infers the owner from
  ambient state.

CONSISTENCY CONTRACT:
  The backing store guarantees per-row atomicity plus one cross-row
  constraint: at most one OPEN (unchecked) line per case-insensitive
  (name, unit, week) per owner. ApplyPlan performs the plan's inserts and
  updates as a single batched write; an insert that collides with the open-
  line constraint fails the batch with ErrConcurrentModification, which the
  Service resolves by re-reading and re-planning. Everything stronger -
  "one reconciliation in flight per owner" - is the Service's job, not the
  store's.

IMPLEMENTATIONS:
  - store/sqlite:      production SQLite store
  - cart/store.Memory: in-memory store for tests and dev

SEE ALSO:
  - engine.go:   produces the Plan that ApplyPlan consumes
  - service.go:  the only intended caller of ApplyPlan
*/
package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store handles persistence of line items, scoped per owner on every call.
type Store interface {
	// ListActive returns the owner's line items, optionally scoped to one
	// week ("" = all weeks), ordered by week then insertion.
	ListActive(ctx context.Context, owner OwnerID, week WeekID) ([]LineItem, error)

	// ApplyPlan performs the plan's inserts and updates as one batched
	// write. Inserts receive storage-assigned IDs. Returns
	// ErrConcurrentModification if an insert collides with the open-line
	// uniqueness constraint.
	ApplyPlan(ctx context.Context, owner OwnerID, plan Plan) error

	// Direct user edits. These bypass aggregation entirely.
	SetChecked(ctx context.Context, owner OwnerID, id LineID, checked bool) error
	SetAmount(ctx context.Context, owner OwnerID, id LineID, amount decimal.Decimal) error
	SetPrice(ctx context.Context, owner OwnerID, id LineID, price decimal.Decimal) error
	SetNote(ctx context.Context, owner OwnerID, id LineID, note string) error

	// Deletion: one line, one week partition, or the whole cart.
	Delete(ctx context.Context, owner OwnerID, id LineID) error
	DeleteWeek(ctx context.Context, owner OwnerID, week WeekID) error
	DeleteAll(ctx context.Context, owner OwnerID) error
}
