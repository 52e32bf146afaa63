// Package store provides planner.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/basil/cart-engine/cart"
	"github.com/basil/cart-engine/planner"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	recipes map[string]planner.Recipe
	meals   map[cart.OwnerID]map[mealKey]bool
}

type mealKey struct {
	RecipeID string
	Date     string // yyyy-mm-dd
}

func NewMemory() *Memory {
	return &Memory{
		recipes: make(map[string]planner.Recipe),
		meals:   make(map[cart.OwnerID]map[mealKey]bool),
	}
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

func (m *Memory) SaveRecipe(_ context.Context, r planner.Recipe) (planner.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.recipes[r.ID] = r
	return r, nil
}

func (m *Memory) GetRecipe(_ context.Context, id string) (planner.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recipes[id]
	if !ok {
		return planner.Recipe{}, planner.ErrRecipeNotFound
	}
	return r, nil
}

func (m *Memory) ListRecipes(_ context.Context) ([]planner.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]planner.Recipe, 0, len(m.recipes))
	for _, r := range m.recipes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *Memory) AddMeal(_ context.Context, owner cart.OwnerID, meal planner.Meal) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[meal.RecipeID]; !ok {
		return planner.ErrRecipeNotFound
	}
	if m.meals[owner] == nil {
		m.meals[owner] = make(map[mealKey]bool)
	}
	// (owner, recipe, date) is unique: re-planning is a no-op.
	m.meals[owner][mealKey{RecipeID: meal.RecipeID, Date: dateKey(meal.Date)}] = true
	return nil
}

func (m *Memory) RemoveMeal(_ context.Context, owner cart.OwnerID, meal planner.Meal) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := mealKey{RecipeID: meal.RecipeID, Date: dateKey(meal.Date)}
	if !m.meals[owner][k] {
		return planner.ErrMealNotFound
	}
	delete(m.meals[owner], k)
	return nil
}

func (m *Memory) MealsForRange(_ context.Context, owner cart.OwnerID, from, to time.Time) ([]planner.PlannedRecipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fromKey, toKey := dateKey(from), dateKey(to)
	var out []planner.PlannedRecipe
	for k := range m.meals[owner] {
		if k.Date < fromKey || k.Date > toKey {
			continue
		}
		r, ok := m.recipes[k.RecipeID]
		if !ok {
			continue
		}
		d, _ := time.Parse("2006-01-02", k.Date)
		out = append(out, planner.PlannedRecipe{Date: d, Recipe: r})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Recipe.Title < out[j].Recipe.Title
	})
	return out, nil
}
