/*
demo.go - Demo data loader

PURPOSE:
  Seeds a handful of recipes and, when an owner is present, plans them onto
  the current week. Gives a fresh database something to show and exercises
  the whole producer chain end to end. Dev convenience only; nothing in the
  engine depends on it.
*/
package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/basil/cart-engine/planner"
)

var demoRecipes = []planner.Recipe{
	{
		Title: "Omelette",
		Ingredients: []planner.Ingredient{
			{Name: "Egg", Amount: decimal.NewFromInt(3), Unit: "pcs"},
			{Name: "Butter", Amount: decimal.NewFromInt(20), Unit: "g"},
			{Name: "Milk", Amount: decimal.NewFromInt(50), Unit: "ml"},
		},
	},
	{
		Title: "Pancakes",
		Ingredients: []planner.Ingredient{
			{Name: "Flour", Amount: decimal.NewFromInt(200), Unit: "g"},
			{Name: "Egg", Amount: decimal.NewFromInt(2), Unit: "pcs"},
			{Name: "Milk", Amount: decimal.NewFromInt(300), Unit: "ml"},
		},
	},
	{
		Title: "Tomato Soup",
		Ingredients: []planner.Ingredient{
			{Name: "Tomato", Amount: decimal.NewFromInt(800), Unit: "g"},
			{Name: "Onion", Amount: decimal.NewFromInt(1), Unit: "pcs"},
			{Name: "Butter", Amount: decimal.NewFromInt(30), Unit: "g"},
		},
	},
}

// SeedDemo loads the demo recipes and plans them across the current week for
// the calling owner (recipes only when no owner is present).
// POST /api/demo/seed
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerFrom(r)

	saved := make([]RecipeDTO, 0, len(demoRecipes))
	for i, recipe := range demoRecipes {
		rec, err := h.Planner.SaveRecipe(ctx, recipe)
		if err != nil {
			h.storeError(w, "Failed to seed recipes", err)
			return
		}
		saved = append(saved, toRecipeDTO(rec))

		if owner.IsZero() {
			continue
		}
		meal := planner.Meal{RecipeID: rec.ID, Date: time.Now().AddDate(0, 0, i)}
		if err := h.Planner.AddMeal(ctx, owner, meal); err != nil {
			h.storeError(w, "Failed to seed meal plan", err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, saved)
}
