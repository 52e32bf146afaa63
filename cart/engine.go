/*
engine.go - The aggregation engine: merging requests into a write plan

PURPOSE:
  Reconcile takes a batch of incoming ingredient requests plus a snapshot of
  the stored line items and produces the set of writes (inserts of new lines,
  full-replacement updates of existing lines) that consolidates the batch
  into the cart. It is a pure planning step: it never touches storage and
  never mutates the snapshot it was handed.

MERGE ORDER (single pass, input order):
  For each request, the engine first looks for a batch-internal match - an
  entry this same pass already planned. Two "200 g flour" requests in one
  batch (two steps of one recipe, or two recipes in a planned week) must
  merge with each other before either reaches storage, otherwise they would
  race to create duplicate rows. Only when no pending entry matches does the
  engine consult the stored snapshot, and only then does it open a new line.

  The first request that establishes an entry wins the merge target for every
  later duplicate in the batch; final totals are order-independent.

MERGE EFFECTS:
  - amount: strictly additive
  - provenance: recipe id/name appended once, first-contribution order
  - checked: forced false (a new contribution "un-purchases" the line)
  - price, note: preserved untouched

MALFORMED INPUT:
  A request missing name, unit, or week is dropped individually and reported
  in Plan.Dropped; the rest of the batch proceeds. Non-positive amounts are
  processed as-is - filtering nonsense is the caller's job.

SEE ALSO:
  - matcher.go:  the matching predicate
  - service.go:  the read-plan-write-reload cycle around Reconcile
*/
package cart

// =============================================================================
// PLAN - The engine's output: intended writes, nothing applied yet
// =============================================================================

// Plan describes the writes that consolidate one request batch into the cart.
type Plan struct {
	// Inserts are brand-new line payloads. IDs are empty; storage assigns
	// them on insert.
	Inserts []LineItem

	// Updates are full replacement payloads for existing lines, keyed by
	// the line's storage ID.
	Updates []LineItem

	// Dropped reports requests rejected as malformed, with the reason.
	Dropped []DroppedRequest
}

// DroppedRequest pairs a rejected request with why it was rejected.
type DroppedRequest struct {
	Request Request
	Reason  string
}

// Empty reports whether the plan carries no writes.
func (p *Plan) Empty() bool { return len(p.Inserts) == 0 && len(p.Updates) == 0 }

// =============================================================================
// RECONCILE - The core algorithm
// =============================================================================

// Reconcile merges incoming requests into the current snapshot and returns
// the write plan. current is read-only: matched lines are cloned into the
// plan before modification.
func Reconcile(incoming []Request, current []LineItem) Plan {
	var plan Plan

	for _, req := range incoming {
		if reason := req.Validate(); reason != "" {
			plan.Dropped = append(plan.Dropped, DroppedRequest{Request: req, Reason: reason})
			continue
		}

		// Batch-internal merge: a pending entry from this same pass.
		if pending := findPending(&plan, req); pending != nil {
			pending.Amount = pending.Amount.Add(req.Amount)
			pending.addProvenance(req.RecipeID, req.RecipeName)
			continue
		}

		// Merge into a stored line.
		if existing := findStored(current, req); existing != nil {
			merged := existing.Clone()
			merged.Amount = merged.Amount.Add(req.Amount)
			merged.Checked = false
			merged.addProvenance(req.RecipeID, req.RecipeName)
			plan.Updates = append(plan.Updates, merged)
			continue
		}

		// No match anywhere: open a new line.
		line := LineItem{
			Name:   req.Name,
			Amount: req.Amount,
			Unit:   req.Unit,
			WeekID: req.WeekID,
		}
		line.addProvenance(req.RecipeID, req.RecipeName)
		plan.Inserts = append(plan.Inserts, line)
	}

	return plan
}

// findPending returns the plan entry (insert or update) the request merges
// into, or nil. Updates are checked first so a request already routed to a
// stored line keeps routing there.
func findPending(plan *Plan, req Request) *LineItem {
	for i := range plan.Updates {
		if Matches(req, &plan.Updates[i]) {
			return &plan.Updates[i]
		}
	}
	for i := range plan.Inserts {
		if Matches(req, &plan.Inserts[i]) {
			return &plan.Inserts[i]
		}
	}
	return nil
}

// findStored returns the first open stored line the request matches, or nil.
func findStored(current []LineItem, req Request) *LineItem {
	for i := range current {
		if Matches(req, &current[i]) {
			return &current[i]
		}
	}
	return nil
}
