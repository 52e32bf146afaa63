package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basil/cart-engine/cart"
	"github.com/basil/cart-engine/planner"
	plannerstore "github.com/basil/cart-engine/planner/store"
)

func TestMemory_RecipeRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := plannerstore.NewMemory()

	saved, err := mem.SaveRecipe(ctx, planner.Recipe{
		Title: "Soup",
		Ingredients: []planner.Ingredient{
			{Name: "Tomato", Amount: decimal.NewFromInt(800), Unit: "g"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := mem.GetRecipe(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Title)
	require.Len(t, got.Ingredients, 1)

	_, err = mem.GetRecipe(ctx, "missing")
	assert.ErrorIs(t, err, planner.ErrRecipeNotFound)
}

func TestMemory_MealPlanRange(t *testing.T) {
	ctx := context.Background()
	mem := plannerstore.NewMemory()

	r, err := mem.SaveRecipe(ctx, planner.Recipe{Title: "Soup"})
	require.NoError(t, err)

	monday := time.Date(2025, time.January, 27, 0, 0, 0, 0, time.UTC)
	require.NoError(t, mem.AddMeal(ctx, "u1", planner.Meal{RecipeID: r.ID, Date: monday}))
	// Re-planning the same recipe on the same day is a no-op.
	require.NoError(t, mem.AddMeal(ctx, "u1", planner.Meal{RecipeID: r.ID, Date: monday}))
	require.NoError(t, mem.AddMeal(ctx, "u1", planner.Meal{RecipeID: r.ID, Date: monday.AddDate(0, 0, 9)}))

	meals, err := mem.MealsForRange(ctx, "u1", monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "Soup", meals[0].Recipe.Title)

	// Other owners see nothing.
	meals, err = mem.MealsForRange(ctx, "u2", monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Empty(t, meals)

	require.NoError(t, mem.RemoveMeal(ctx, "u1", planner.Meal{RecipeID: r.ID, Date: monday}))
	assert.ErrorIs(t, mem.RemoveMeal(ctx, "u1", planner.Meal{RecipeID: r.ID, Date: monday}),
		planner.ErrMealNotFound)

	assert.ErrorIs(t, mem.AddMeal(ctx, "u1", planner.Meal{RecipeID: "missing", Date: monday}),
		planner.ErrRecipeNotFound)
}

func TestMemory_NoOwnerMealWrites(t *testing.T) {
	// Meal mutations without an owner fail loudly, matching the SQLite
	// store; the API layer is what absorbs them into a no-op.

	ctx := context.Background()
	mem := plannerstore.NewMemory()

	r, err := mem.SaveRecipe(ctx, planner.Recipe{Title: "Soup"})
	require.NoError(t, err)

	monday := time.Date(2025, time.January, 27, 0, 0, 0, 0, time.UTC)
	meal := planner.Meal{RecipeID: r.ID, Date: monday}
	assert.ErrorIs(t, mem.AddMeal(ctx, "", meal), cart.ErrNoOwner)
	assert.ErrorIs(t, mem.RemoveMeal(ctx, "", meal), cart.ErrNoOwner)

	// Nothing landed under the empty owner.
	meals, err := mem.MealsForRange(ctx, "", monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Empty(t, meals)
}
