/*
Package cart provides the shopping-cart aggregation engine.

PURPOSE:
  This package contains the types and algorithms that consolidate ingredient
  requirements contributed by many recipes into a single per-week shopping
  list. Whether an ingredient arrives alone from a detail screen, in bulk
  from one recipe, or in bulk from an entire planned week, the same engine
  merges it into the open line items for that week.

KEY CONCEPTS IN THIS FILE (types.go):
  - LineItem: One consolidated shopping-list row per (name, unit, week)
  - Request:  An incoming ingredient requirement, possibly recipe-tagged
  - WeekID:   ISO year-week partition key scoping all matching
  - OwnerID:  The authenticated user a line item belongs to

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for quantities and prices, never float math
  2. Explicitness: optional fields (recipe tag, price, note) are declared,
     not duck-typed; the owner is a parameter, never ambient state
  3. Additivity: merges only ever add quantity; provenance only ever appends

USAGE:
  req := cart.Request{Name: "Flour", Amount: cart.Qty(200), Unit: "g",
      WeekID: cart.WeekOf(time.Now())}
  plan := cart.Reconcile([]cart.Request{req}, current)

SEE ALSO:
  - engine.go:  Reconcile and the merge plan
  - matcher.go: What counts as "the same line item"
  - week.go:    ISO week partitioning
  - store.go:   Persistence interface
*/
package cart

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// OwnerID identifies the authenticated user whose cart is being operated on.
// The empty OwnerID means "no owner": reads yield an empty cart, writes no-op.
type OwnerID string

// IsZero reports whether there is no authenticated owner.
func (o OwnerID) IsZero() bool { return o == "" }

// LineID is the storage-assigned identity of a line item.
type LineID string

// =============================================================================
// QUANTITIES
// =============================================================================

// Qty builds a decimal quantity from a float. Convenience for callers and
// tests; storage round-trips through decimal strings, never floats.
func Qty(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// =============================================================================
// LINE ITEM - One consolidated shopping-list row
// =============================================================================

// LineItem is the unit of storage: one row per distinct case-insensitive
// (name, unit, week) tuple that is not yet purchased-and-closed.
type LineItem struct {
	ID     LineID
	Name   string
	Amount decimal.Decimal
	Unit   string
	WeekID WeekID

	// Checked is the user's "purchased" flag. A checked line is closed:
	// it never matches new requests, and a later request for the same
	// ingredient opens a fresh line instead of reopening it.
	Checked bool

	// RecipeIDs and RecipeNames record every recipe that contributed to
	// this line, in first-contribution order, without duplicates. They are
	// always the same length and index-aligned. Manual additions (no
	// recipe tag) leave them untouched.
	RecipeIDs   []string
	RecipeNames []string

	// Price is the user-entered cost for the whole line, not a unit price.
	// The engine preserves it across merges and never recomputes it.
	Price decimal.Decimal

	// Note is a free-text annotation, preserved across merges.
	Note string
}

// HasRecipe reports whether any recipe contributed to this line.
func (li *LineItem) HasRecipe() bool { return len(li.RecipeIDs) > 0 }

// Clone returns a deep copy. The engine hands out copies so a Plan can never
// alias the caller's snapshot.
func (li LineItem) Clone() LineItem {
	out := li
	out.RecipeIDs = append([]string(nil), li.RecipeIDs...)
	out.RecipeNames = append([]string(nil), li.RecipeNames...)
	return out
}

// addProvenance appends the recipe tag if present and not already recorded.
// RecipeIDs and RecipeNames stay index-aligned: both append or neither does.
func (li *LineItem) addProvenance(recipeID, recipeName string) {
	if recipeID == "" {
		return
	}
	for _, id := range li.RecipeIDs {
		if id == recipeID {
			return
		}
	}
	li.RecipeIDs = append(li.RecipeIDs, recipeID)
	li.RecipeNames = append(li.RecipeNames, recipeName)
}

// =============================================================================
// REQUEST - An incoming ingredient requirement
// =============================================================================

// Request is one ingredient requirement contributed by a producer: a recipe's
// "add all ingredients", a whole planned week, or an ad hoc add. Amount is a
// resolved per-request quantity; the engine performs no unit conversion.
type Request struct {
	Name   string
	Amount decimal.Decimal
	Unit   string
	WeekID WeekID

	// RecipeID/RecipeName tag the contributing recipe. Both empty for
	// manually typed ingredients, which never extend provenance.
	RecipeID   string
	RecipeName string
}

// Validate reports why a request cannot be processed, or "" if it can.
// Non-positive amounts are NOT rejected here: callers filter nonsense,
// the engine processes what it is given.
func (r Request) Validate() string {
	switch {
	case r.Name == "":
		return "missing name"
	case r.Unit == "":
		return "missing unit"
	case r.WeekID == "":
		return "missing week"
	}
	return ""
}
