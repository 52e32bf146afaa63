/*
service.go - The read-plan-write-reload cycle around the engine

PURPOSE:
  Service is the one entry point producers call. Each user action (add one
  ingredient, add a recipe's ingredient list, add a whole planned week) runs
  one reconciliation cycle:

      read current lines -> Reconcile -> ApplyPlan -> reload full state

  The reload is a full re-query, not an incremental patch. That is a
  deliberate simplicity-over-efficiency choice: after any write, including a
  partially failed one, the reload is what re-converges the client with
  storage.

OWNER HANDLING:
  An empty owner is not an error. UI paths call cart operations
  speculatively before login; those calls return an empty snapshot and
  attempt no mutation.

CONCURRENCY:
  The read-compute-write cycle is a read-modify-write race if two
  reconciliations for the same owner overlap. Two defenses, both here or
  below, none inside the engine:
  1. A per-owner mutex serializes reconciliations through this process.
  2. The store's open-line uniqueness constraint catches writers this
     process never saw (a second session, another instance). On
     ErrConcurrentModification the Service re-reads fresh state and
     re-plans, once. The retried plan merges into whatever the other
     writer created, so no quantity is lost.

SEE ALSO:
  - engine.go:  the pure planning step
  - session.go: the client-facing snapshot this service refreshes
*/
package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Service orchestrates reconciliation cycles against a Store.
type Service struct {
	store Store

	mu     sync.Mutex
	owners map[OwnerID]*sync.Mutex
}

// NewService wraps a Store.
func NewService(store Store) *Service {
	return &Service{store: store, owners: make(map[OwnerID]*sync.Mutex)}
}

// ownerLock returns the mutex serializing this owner's reconciliations.
func (s *Service) ownerLock(owner OwnerID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.owners[owner]
	if !ok {
		m = &sync.Mutex{}
		s.owners[owner] = m
	}
	return m
}

// Result reports one reconciliation cycle's outcome: the reloaded snapshot
// plus which requests were dropped as malformed.
type Result struct {
	Items   []LineItem
	Dropped []DroppedRequest
}

// =============================================================================
// RECONCILIATION - The one write path producers use
// =============================================================================

// Add runs one reconciliation cycle for a batch of requests and returns the
// reloaded cart. With no owner it returns an empty result and touches
// nothing. Store failures propagate unmodified; the caller surfaces them and
// the user's manual retry naturally re-reads fresh state.
func (s *Service) Add(ctx context.Context, owner OwnerID, reqs []Request) (Result, error) {
	if owner.IsZero() {
		return Result{}, nil
	}

	lock := s.ownerLock(owner)
	lock.Lock()
	defer lock.Unlock()

	dropped, err := s.reconcileOnce(ctx, owner, reqs)
	if IsRetryable(err) {
		// A writer outside this process created a matching open line
		// between our read and write. Fresh snapshot, one more try: the
		// new plan merges into that line instead of colliding with it.
		dropped, err = s.reconcileOnce(ctx, owner, reqs)
	}
	if err != nil {
		return Result{}, err
	}

	items, err := s.store.ListActive(ctx, owner, "")
	if err != nil {
		return Result{}, err
	}
	return Result{Items: items, Dropped: dropped}, nil
}

func (s *Service) reconcileOnce(ctx context.Context, owner OwnerID, reqs []Request) ([]DroppedRequest, error) {
	current, err := s.store.ListActive(ctx, owner, "")
	if err != nil {
		return nil, err
	}
	plan := Reconcile(reqs, current)
	if plan.Empty() {
		return plan.Dropped, nil
	}
	if err := s.store.ApplyPlan(ctx, owner, plan); err != nil {
		return nil, err
	}
	return plan.Dropped, nil
}

// =============================================================================
// READS
// =============================================================================

// List returns the owner's lines, optionally one week. Empty owner reads an
// empty cart.
func (s *Service) List(ctx context.Context, owner OwnerID, week WeekID) ([]LineItem, error) {
	if owner.IsZero() {
		return nil, nil
	}
	return s.store.ListActive(ctx, owner, week)
}

// =============================================================================
// DIRECT EDITS - Bypass aggregation, then the caller re-reads
// =============================================================================

// ToggleChecked flips the purchased flag on one line.
func (s *Service) ToggleChecked(ctx context.Context, owner OwnerID, id LineID) error {
	if owner.IsZero() {
		return nil
	}
	items, err := s.store.ListActive(ctx, owner, "")
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.ID == id {
			return s.store.SetChecked(ctx, owner, id, !it.Checked)
		}
	}
	return ErrLineNotFound
}

func (s *Service) SetChecked(ctx context.Context, owner OwnerID, id LineID, checked bool) error {
	if owner.IsZero() {
		return nil
	}
	return s.store.SetChecked(ctx, owner, id, checked)
}

func (s *Service) SetAmount(ctx context.Context, owner OwnerID, id LineID, amount decimal.Decimal) error {
	if owner.IsZero() {
		return nil
	}
	return s.store.SetAmount(ctx, owner, id, amount)
}

func (s *Service) SetPrice(ctx context.Context, owner OwnerID, id LineID, price decimal.Decimal) error {
	if owner.IsZero() {
		return nil
	}
	return s.store.SetPrice(ctx, owner, id, price)
}

func (s *Service) SetNote(ctx context.Context, owner OwnerID, id LineID, note string) error {
	if owner.IsZero() {
		return nil
	}
	return s.store.SetNote(ctx, owner, id, note)
}

// =============================================================================
// DELETION
// =============================================================================

func (s *Service) Delete(ctx context.Context, owner OwnerID, id LineID) error {
	if owner.IsZero() {
		return nil
	}
	return s.store.Delete(ctx, owner, id)
}

// DeleteWeek clears exactly one week partition.
func (s *Service) DeleteWeek(ctx context.Context, owner OwnerID, week WeekID) error {
	if owner.IsZero() {
		return nil
	}
	return s.store.DeleteWeek(ctx, owner, week)
}

// DeleteAll clears the owner's entire cart, all weeks.
func (s *Service) DeleteAll(ctx context.Context, owner OwnerID) error {
	if owner.IsZero() {
		return nil
	}
	return s.store.DeleteAll(ctx, owner)
}
