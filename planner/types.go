// Package planner implements the meal-planning side of the household:
// recipes with their ingredient lists, meals scheduled onto calendar dates,
// and the producers that turn both into cart requests.
package planner

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/basil/cart-engine/cart"
)

// =============================================================================
// RECIPES
// =============================================================================

// Ingredient is one line of a recipe's ingredient list. Amount is the base
// quantity for one serving of the recipe as authored.
type Ingredient struct {
	Name   string
	Amount decimal.Decimal
	Unit   string
}

// Recipe is the minimal recipe shape the producers need: identity, title,
// ingredient list. Authoring, images, tags and nutrition live elsewhere.
type Recipe struct {
	ID          string
	Title       string
	Ingredients []Ingredient
}

// =============================================================================
// PLANNED MEALS
// =============================================================================

// Meal schedules one recipe onto one calendar date. (owner, recipe, date) is
// unique: planning the same recipe twice on a day is a no-op, which keeps
// removal unambiguous.
type Meal struct {
	RecipeID string
	Date     time.Time
}

// =============================================================================
// STORE - Persistence for recipes and planned meals
// =============================================================================

// Store persists recipes and the meal plan. Meals are owner-scoped; recipes
// are shared across the household.
type Store interface {
	SaveRecipe(ctx context.Context, r Recipe) (Recipe, error)
	GetRecipe(ctx context.Context, id string) (Recipe, error)
	ListRecipes(ctx context.Context) ([]Recipe, error)

	AddMeal(ctx context.Context, owner cart.OwnerID, m Meal) error
	RemoveMeal(ctx context.Context, owner cart.OwnerID, m Meal) error

	// MealsForRange returns the owner's planned meals with their recipes
	// resolved, for dates in [from, to] inclusive.
	MealsForRange(ctx context.Context, owner cart.OwnerID, from, to time.Time) ([]PlannedRecipe, error)
}

// PlannedRecipe is a meal joined with its recipe, as the week producer
// consumes it.
type PlannedRecipe struct {
	Date   time.Time
	Recipe Recipe
}
