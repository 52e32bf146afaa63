package planner

import "errors"

var (
	// ErrRecipeNotFound is returned when a recipe id does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrMealNotFound is returned when removing a meal that is not planned.
	ErrMealNotFound = errors.New("meal not planned")
)
