/*
producers.go - Building cart request batches from recipes and the meal plan

PURPOSE:
  The cart engine consumes flat batches of ingredient requests; this file is
  where those batches come from. Three producers, all funneling into the same
  reconciliation path:

  1. FromRecipe:  "add all ingredients" on a recipe detail screen, with a
                  serving multiplier. One request per ingredient, all tagged
                  with the recipe's identity.
  2. FromWeek:    "add this week to cart" on the planner. Every ingredient of
                  every recipe scheduled across the displayed week. Recipes
                  are deduplicated (the same dish planned twice contributes
                  once); requests are NOT pre-merged - consolidating
                  duplicate ingredients across recipes is the engine's job.
  3. AdHoc:       a single manually typed ingredient. No recipe tag, so it
                  never extends provenance.

SEE ALSO:
  - cart/engine.go: where the batches get merged
*/
package planner

import (
	"github.com/shopspring/decimal"

	"github.com/basil/cart-engine/cart"
)

// FromRecipe builds one request per ingredient, scaled by the serving
// multiplier and rounded to whole units, all sharing the recipe's identity.
// A multiplier <= 0 is treated as 1.
func FromRecipe(r Recipe, multiplier decimal.Decimal, week cart.WeekID) []cart.Request {
	if multiplier.Sign() <= 0 {
		multiplier = decimal.NewFromInt(1)
	}
	reqs := make([]cart.Request, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		reqs = append(reqs, cart.Request{
			Name:       ing.Name,
			Amount:     ing.Amount.Mul(multiplier).Round(0),
			Unit:       defaultUnit(ing.Unit),
			WeekID:     week,
			RecipeID:   r.ID,
			RecipeName: r.Title,
		})
	}
	return reqs
}

// FromWeek flattens a week's planned recipes into one batch. Each distinct
// recipe contributes its full ingredient list once, unscaled; duplicate
// ingredients across recipes are left for the engine to merge.
func FromWeek(planned []PlannedRecipe, week cart.WeekID) []cart.Request {
	seen := make(map[string]bool)
	var reqs []cart.Request
	for _, pr := range planned {
		if seen[pr.Recipe.ID] {
			continue
		}
		seen[pr.Recipe.ID] = true
		for _, ing := range pr.Recipe.Ingredients {
			reqs = append(reqs, cart.Request{
				Name:       ing.Name,
				Amount:     ing.Amount,
				Unit:       defaultUnit(ing.Unit),
				WeekID:     week,
				RecipeID:   pr.Recipe.ID,
				RecipeName: pr.Recipe.Title,
			})
		}
	}
	return reqs
}

// AdHoc builds the one-element batch for a manually typed ingredient.
func AdHoc(name string, amount decimal.Decimal, unit string, week cart.WeekID) []cart.Request {
	return []cart.Request{{
		Name:   name,
		Amount: amount,
		Unit:   defaultUnit(unit),
		WeekID: week,
	}}
}

// defaultUnit falls back to grams, the unit recipe amounts are authored in.
func defaultUnit(unit string) string {
	if unit == "" {
		return "g"
	}
	return unit
}
