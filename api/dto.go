/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the internal
  domain model from the external contract. Quantities and prices cross the
  wire as JSON numbers; internally they are decimals.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Structural validation (missing name/unit/week) is the engine's job: such
  requests are dropped individually and echoed back in the "dropped" list,
  never failing the batch. Handlers validate only what the engine cannot
  see, like unparseable JSON or an unknown recipe id.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/basil/cart-engine/cart"
	"github.com/basil/cart-engine/planner"
)

// =============================================================================
// CART TYPES
// =============================================================================

// LineItemDTO is one shopping-list row in API responses.
type LineItemDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Amount      float64  `json:"amount"`
	Unit        string   `json:"unit"`
	WeekID      string   `json:"week_id"`
	Checked     bool     `json:"checked"`
	RecipeIDs   []string `json:"recipe_ids"`
	RecipeNames []string `json:"recipe_names"`
	Price       float64  `json:"price"`
	Note        string   `json:"note"`
}

// IngredientRequestDTO is one incoming ingredient requirement.
type IngredientRequestDTO struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Unit       string  `json:"unit"`
	WeekID     string  `json:"week_id"`
	RecipeID   string  `json:"recipe_id,omitempty"`
	RecipeName string  `json:"recipe_name,omitempty"`
}

// AddItemsRequest is a batch of ad hoc ingredient requests.
type AddItemsRequest struct {
	Items []IngredientRequestDTO `json:"items"`
}

// CartResponse is the reloaded cart after a reconciliation cycle.
type CartResponse struct {
	Items   []LineItemDTO `json:"items"`
	Dropped []DroppedDTO  `json:"dropped,omitempty"`
}

// DroppedDTO reports a request rejected as malformed.
type DroppedDTO struct {
	Name   string `json:"name"`
	Unit   string `json:"unit"`
	WeekID string `json:"week_id"`
	Reason string `json:"reason"`
}

// WeekSummaryDTO is one week partition with its entered-price total.
type WeekSummaryDTO struct {
	WeekID string  `json:"week_id"`
	Total  float64 `json:"total"`
	Count  int     `json:"count"`
}

// SpendBucketDTO is one bar of the spend report.
type SpendBucketDTO struct {
	Label string  `json:"label"`
	Cost  float64 `json:"cost"`
}

// Field-edit request bodies.
type SetCheckedRequest struct {
	// nil = toggle, otherwise set explicitly
	Checked *bool `json:"checked"`
}

type SetAmountRequest struct {
	Amount float64 `json:"amount"`
}

type SetPriceRequest struct {
	Price float64 `json:"price"`
}

type SetNoteRequest struct {
	Note string `json:"note"`
}

// =============================================================================
// PLANNER TYPES
// =============================================================================

// IngredientDTO is one recipe ingredient line.
type IngredientDTO struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// RecipeDTO is a recipe in API requests and responses.
type RecipeDTO struct {
	ID          string          `json:"id,omitempty"`
	Title       string          `json:"title"`
	Ingredients []IngredientDTO `json:"ingredients"`
}

// MealRequest plans or unplans one recipe on one date.
type MealRequest struct {
	RecipeID string `json:"recipe_id"`
	Date     string `json:"date"` // YYYY-MM-DD
}

// PlannedMealDTO is one planner entry with its recipe resolved.
type PlannedMealDTO struct {
	Date   string    `json:"date"`
	Recipe RecipeDTO `json:"recipe"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toLineItemDTO(li cart.LineItem) LineItemDTO {
	return LineItemDTO{
		ID:          string(li.ID),
		Name:        li.Name,
		Amount:      li.Amount.InexactFloat64(),
		Unit:        li.Unit,
		WeekID:      string(li.WeekID),
		Checked:     li.Checked,
		RecipeIDs:   emptyIfNil(li.RecipeIDs),
		RecipeNames: emptyIfNil(li.RecipeNames),
		Price:       li.Price.InexactFloat64(),
		Note:        li.Note,
	}
}

func toLineItemDTOs(items []cart.LineItem) []LineItemDTO {
	out := make([]LineItemDTO, 0, len(items))
	for _, li := range items {
		out = append(out, toLineItemDTO(li))
	}
	return out
}

func toDroppedDTOs(dropped []cart.DroppedRequest) []DroppedDTO {
	var out []DroppedDTO
	for _, d := range dropped {
		out = append(out, DroppedDTO{
			Name:   d.Request.Name,
			Unit:   d.Request.Unit,
			WeekID: string(d.Request.WeekID),
			Reason: d.Reason,
		})
	}
	return out
}

func toRequest(dto IngredientRequestDTO) cart.Request {
	return cart.Request{
		Name:       dto.Name,
		Amount:     decimal.NewFromFloat(dto.Amount),
		Unit:       dto.Unit,
		WeekID:     cart.WeekID(dto.WeekID),
		RecipeID:   dto.RecipeID,
		RecipeName: dto.RecipeName,
	}
}

func toRecipeDTO(r planner.Recipe) RecipeDTO {
	dto := RecipeDTO{ID: r.ID, Title: r.Title, Ingredients: []IngredientDTO{}}
	for _, ing := range r.Ingredients {
		dto.Ingredients = append(dto.Ingredients, IngredientDTO{
			Name:   ing.Name,
			Amount: ing.Amount.InexactFloat64(),
			Unit:   ing.Unit,
		})
	}
	return dto
}

func toRecipe(dto RecipeDTO) planner.Recipe {
	r := planner.Recipe{ID: dto.ID, Title: dto.Title}
	for _, ing := range dto.Ingredients {
		r.Ingredients = append(r.Ingredients, planner.Ingredient{
			Name:   ing.Name,
			Amount: decimal.NewFromFloat(ing.Amount),
			Unit:   ing.Unit,
		})
	}
	return r
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
