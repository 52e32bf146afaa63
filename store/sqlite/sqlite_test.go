package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basil/cart-engine/cart"
	"github.com/basil/cart-engine/planner"
)

const owner = cart.OwnerID("user-1")

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "cart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func insert(name string, amount int64, unit string, week cart.WeekID) cart.LineItem {
	return cart.LineItem{
		Name:   name,
		Amount: decimal.NewFromInt(amount),
		Unit:   unit,
		WeekID: week,
	}
}

// =============================================================================
// CART STORE
// =============================================================================

func TestApplyPlan_InsertRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	li := insert("Milk", 1, "l", "2025-05")
	li.Amount = decimal.RequireFromString("1.5")
	li.RecipeIDs = []string{"r1"}
	li.RecipeNames = []string{"Pancakes"}
	require.NoError(t, store.ApplyPlan(ctx, owner, cart.Plan{Inserts: []cart.LineItem{li}}))

	items, err := store.ListActive(ctx, owner, "2025-05")
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Milk", got.Name)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, "l", got.Unit)
	assert.False(t, got.Checked)
	assert.Equal(t, []string{"r1"}, got.RecipeIDs)
	assert.Equal(t, []string{"Pancakes"}, got.RecipeNames)
}

func TestApplyPlan_OpenLineConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ApplyPlan(ctx, owner, cart.Plan{
		Inserts: []cart.LineItem{insert("Milk", 1, "l", "2025-05")},
	}))

	// A second open line for the same ingredient, differing only in case,
	// violates the partial unique index.
	err := store.ApplyPlan(ctx, owner, cart.Plan{
		Inserts: []cart.LineItem{insert("milk", 2, "L", "2025-05")},
	})
	require.Error(t, err)
	assert.True(t, cart.IsRetryable(err))

	// The failed batch left nothing behind.
	items, err := store.ListActive(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Amount.Equal(decimal.NewFromInt(1)))
}

func TestListActive_InsertionOrderWithinWeek(t *testing.T) {
	// All inserts of one batch share a timestamp; ordering must still be
	// deterministic: week ascending, then insertion order.

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ApplyPlan(ctx, owner, cart.Plan{Inserts: []cart.LineItem{
		insert("Milk", 1, "l", "2025-05"),
		insert("Flour", 200, "g", "2025-05"),
		insert("Egg", 10, "pcs", "2025-05"),
	}}))

	items, err := store.ListActive(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Milk", items[0].Name)
	assert.Equal(t, "Flour", items[1].Name)
	assert.Equal(t, "Egg", items[2].Name)
}

func TestApplyPlan_CheckedLineLeavesIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ApplyPlan(ctx, owner, cart.Plan{
		Inserts: []cart.LineItem{insert("Milk", 1, "l", "2025-05")},
	}))
	items, err := store.ListActive(ctx, owner, "")
	require.NoError(t, err)
	require.NoError(t, store.SetChecked(ctx, owner, items[0].ID, true))

	// The checked line no longer blocks a fresh open line.
	require.NoError(t, store.ApplyPlan(ctx, owner, cart.Plan{
		Inserts: []cart.LineItem{insert("Milk", 2, "l", "2025-05")},
	}))

	items, err = store.ListActive(ctx, owner, "")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestApplyPlan_UpdateUnknownLine(t *testing.T) {
	store := newTestStore(t)

	upd := insert("Milk", 2, "l", "2025-05")
	upd.ID = "ghost"
	err := store.ApplyPlan(context.Background(), owner, cart.Plan{Updates: []cart.LineItem{upd}})
	assert.ErrorIs(t, err, cart.ErrLineNotFound)
}

func TestApplyPlan_NoOwner(t *testing.T) {
	store := newTestStore(t)

	err := store.ApplyPlan(context.Background(), "", cart.Plan{
		Inserts: []cart.LineItem{insert("Milk", 1, "l", "2025-05")},
	})
	assert.ErrorIs(t, err, cart.ErrNoOwner)
}

func TestEdits_PersistExactDecimals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ApplyPlan(ctx, owner, cart.Plan{
		Inserts: []cart.LineItem{insert("Butter", 250, "g", "2025-05")},
	}))
	items, err := store.ListActive(ctx, owner, "")
	require.NoError(t, err)
	id := items[0].ID

	require.NoError(t, store.SetAmount(ctx, owner, id, decimal.RequireFromString("0.1")))
	require.NoError(t, store.SetPrice(ctx, owner, id, decimal.RequireFromString("2.49")))
	require.NoError(t, store.SetNote(ctx, owner, id, "unsalted"))

	items, err = store.ListActive(ctx, owner, "")
	require.NoError(t, err)
	got := items[0]
	assert.Equal(t, "0.1", got.Amount.String())
	assert.Equal(t, "2.49", got.Price.String())
	assert.Equal(t, "unsalted", got.Note)

	assert.ErrorIs(t, store.SetNote(ctx, owner, "ghost", "x"), cart.ErrLineNotFound)
	assert.ErrorIs(t, store.SetNote(ctx, "other-user", id, "x"), cart.ErrLineNotFound)
}

func TestDeleteWeek_LeavesOtherWeeks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ApplyPlan(ctx, owner, cart.Plan{Inserts: []cart.LineItem{
		insert("Milk", 1, "l", "2025-05"),
		insert("Eggs", 10, "pcs", "2025-06"),
	}}))

	require.NoError(t, store.DeleteWeek(ctx, owner, "2025-05"))

	items, err := store.ListActive(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, cart.WeekID("2025-06"), items[0].WeekID)

	require.NoError(t, store.DeleteAll(ctx, owner))
	items, err = store.ListActive(ctx, owner, "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

// =============================================================================
// PLANNER STORE
// =============================================================================

func testRecipe() planner.Recipe {
	return planner.Recipe{
		Title: "Pancakes",
		Ingredients: []planner.Ingredient{
			{Name: "Flour", Amount: decimal.NewFromInt(200), Unit: "g"},
			{Name: "Egg", Amount: decimal.NewFromInt(2), Unit: "pcs"},
		},
	}
}

func TestSaveRecipe_RoundTripAndUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveRecipe(ctx, testRecipe())
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := store.GetRecipe(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", got.Title)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "Flour", got.Ingredients[0].Name)

	// Upsert replaces the ingredient list wholesale.
	saved.Title = "Thin Pancakes"
	saved.Ingredients = saved.Ingredients[:1]
	_, err = store.SaveRecipe(ctx, saved)
	require.NoError(t, err)

	got, err = store.GetRecipe(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thin Pancakes", got.Title)
	assert.Len(t, got.Ingredients, 1)

	_, err = store.GetRecipe(ctx, "ghost")
	assert.ErrorIs(t, err, planner.ErrRecipeNotFound)
}

func TestMealPlan_RangeAndIdempotency(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveRecipe(ctx, testRecipe())
	require.NoError(t, err)

	monday := time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC)
	meal := planner.Meal{RecipeID: saved.ID, Date: monday}
	require.NoError(t, store.AddMeal(ctx, owner, meal))
	require.NoError(t, store.AddMeal(ctx, owner, meal)) // re-planning no-ops
	require.NoError(t, store.AddMeal(ctx, owner, planner.Meal{
		RecipeID: saved.ID, Date: monday.AddDate(0, 0, 2),
	}))

	meals, err := store.MealsForRange(ctx, owner, monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, monday, meals[0].Date)
	assert.Equal(t, "Pancakes", meals[0].Recipe.Title)

	// Ranges clip: only the Monday meal.
	meals, err = store.MealsForRange(ctx, owner, monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, meals, 1)

	// Other owners see nothing.
	meals, err = store.MealsForRange(ctx, "other-user", monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Empty(t, meals)

	require.NoError(t, store.RemoveMeal(ctx, owner, meal))
	assert.ErrorIs(t, store.RemoveMeal(ctx, owner, meal), planner.ErrMealNotFound)
}

func TestAddMeal_UnknownRecipe(t *testing.T) {
	store := newTestStore(t)

	err := store.AddMeal(context.Background(), owner, planner.Meal{
		RecipeID: "ghost",
		Date:     time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, planner.ErrRecipeNotFound)
}
