/*
handlers.go - HTTP handlers for the cart and planner

PURPOSE:
  Exposes the aggregation engine and meal planner via REST. Handles HTTP
  request/response and JSON serialization, delegates everything else to the
  cart service and planner store.

ENDPOINTS:
  Cart:
    GET    /api/cart                      List line items (?week=)
    POST   /api/cart/items                Reconcile an ad hoc request batch
    POST   /api/cart/recipes/{id}         Add one recipe's ingredients (?multiplier=&week=)
    POST   /api/cart/weeks/{weekId}/plan  Add the whole planned week
    PUT    /api/cart/items/{id}/checked   Toggle or set the purchased flag
    PUT    /api/cart/items/{id}/amount    Direct quantity edit
    PUT    /api/cart/items/{id}/price     Set entered price
    PUT    /api/cart/items/{id}/note      Set note
    DELETE /api/cart/items/{id}           Delete one line
    DELETE /api/cart/weeks/{weekId}       Clear one week
    DELETE /api/cart                      Clear everything
    GET    /api/cart/weeks                Week partitions with totals
    GET    /api/cart/report               Spend report (?period=)

  Planner:
    GET    /api/planner                   Planned meals (?from=&to=)
    POST   /api/planner/meals             Plan a recipe on a date
    DELETE /api/planner/meals             Unplan

  Recipes:
    GET/POST /api/recipes, GET /api/recipes/{id}

ERROR HANDLING:
  - 400: unparseable body or parameters
  - 404: unknown line/recipe/meal
  - 409: concurrent-modification conflict the retry could not absorb
  - 500: store failures, passed through with details

  A missing owner is NOT an error: cart reads return an empty cart, cart
  and planner mutations no-op, mirroring how the UI calls these
  speculatively before login.

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: routing and the owner middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/basil/cart-engine/cart"
	"github.com/basil/cart-engine/planner"
)

// Handler holds the API dependencies.
type Handler struct {
	Cart    *cart.Service
	Planner planner.Store
	Log     *zap.Logger
}

// NewHandler wires the handler.
func NewHandler(svc *cart.Service, plannerStore planner.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Cart: svc, Planner: plannerStore, Log: log}
}

// =============================================================================
// CART READS
// =============================================================================

// ListCart returns the owner's line items, optionally one week.
// GET /api/cart?week=2025-05
func (h *Handler) ListCart(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	week := cart.WeekID(r.URL.Query().Get("week"))

	items, err := h.Cart.List(r.Context(), owner, week)
	if err != nil {
		h.storeError(w, "Failed to list cart", err)
		return
	}
	writeJSON(w, http.StatusOK, CartResponse{Items: toLineItemDTOs(items)})
}

// ListWeeks returns the distinct week partitions with totals.
// GET /api/cart/weeks
func (h *Handler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	items, err := h.Cart.List(r.Context(), ownerFrom(r), "")
	if err != nil {
		h.storeError(w, "Failed to list weeks", err)
		return
	}

	summaries := make([]WeekSummaryDTO, 0)
	for _, week := range cart.AllWeeks(items) {
		summaries = append(summaries, WeekSummaryDTO{
			WeekID: string(week),
			Total:  cart.TotalCost(items, week).InexactFloat64(),
			Count:  len(cart.ItemsForWeek(items, week)),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// SpendReport returns calendar-bucketed spend totals.
// GET /api/cart/report?period=month
func (h *Handler) SpendReport(w http.ResponseWriter, r *http.Request) {
	period := cart.Period(r.URL.Query().Get("period"))
	switch period {
	case "", cart.PeriodWeek:
		period = cart.PeriodWeek
	case cart.PeriodMonth, cart.PeriodQuarter, cart.PeriodYear:
	default:
		writeError(w, http.StatusBadRequest, "Unknown period (use week, month, quarter, year)", nil)
		return
	}

	items, err := h.Cart.List(r.Context(), ownerFrom(r), "")
	if err != nil {
		h.storeError(w, "Failed to build report", err)
		return
	}

	buckets := make([]SpendBucketDTO, 0)
	for _, b := range cart.SpendReport(items, period) {
		buckets = append(buckets, SpendBucketDTO{Label: b.Label, Cost: b.Cost.InexactFloat64()})
	}
	writeJSON(w, http.StatusOK, buckets)
}

// =============================================================================
// CART RECONCILIATION - The three producers
// =============================================================================

// AddItems reconciles an ad hoc batch of ingredient requests.
// POST /api/cart/items
func (h *Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	var req AddItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	reqs := make([]cart.Request, 0, len(req.Items))
	for _, dto := range req.Items {
		reqs = append(reqs, toRequest(dto))
	}
	h.reconcile(w, r, reqs)
}

// AddRecipe adds one recipe's full ingredient list to a week's cart.
// POST /api/cart/recipes/{id}?multiplier=2&week=2025-05
func (h *Handler) AddRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.Planner.GetRecipe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.plannerError(w, "Failed to load recipe", err)
		return
	}

	multiplier := decimal.NewFromInt(1)
	if raw := r.URL.Query().Get("multiplier"); raw != "" {
		multiplier, err = decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multiplier", err)
			return
		}
	}

	week := cart.WeekID(r.URL.Query().Get("week"))
	if week == "" {
		week = cart.CurrentWeek()
	}

	h.reconcile(w, r, planner.FromRecipe(recipe, multiplier, week))
}

// AddPlannedWeek adds every ingredient of every recipe planned in a week.
// POST /api/cart/weeks/{weekId}/plan
func (h *Handler) AddPlannedWeek(w http.ResponseWriter, r *http.Request) {
	week := cart.WeekID(chi.URLParam(r, "weekId"))
	start, err := week.Start()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week id", err)
		return
	}

	meals, err := h.Planner.MealsForRange(r.Context(), ownerFrom(r), start, start.AddDate(0, 0, 6))
	if err != nil {
		h.storeError(w, "Failed to load meal plan", err)
		return
	}

	h.reconcile(w, r, planner.FromWeek(meals, week))
}

// reconcile runs one cycle and writes the reloaded cart.
func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request, reqs []cart.Request) {
	owner := ownerFrom(r)
	res, err := h.Cart.Add(r.Context(), owner, reqs)
	if err != nil {
		if cart.IsRetryable(err) {
			// Retried once inside the service and still conflicted.
			writeError(w, http.StatusConflict, "Cart changed concurrently, please retry", err)
			return
		}
		h.storeError(w, "Failed to update cart", err)
		return
	}
	if n := len(res.Dropped); n > 0 {
		h.Log.Warn("dropped malformed cart requests",
			zap.String("owner", string(owner)), zap.Int("count", n))
	}
	writeJSON(w, http.StatusOK, CartResponse{
		Items:   toLineItemDTOs(res.Items),
		Dropped: toDroppedDTOs(res.Dropped),
	})
}

// =============================================================================
// CART EDITS
// =============================================================================

// SetChecked sets or toggles the purchased flag.
// PUT /api/cart/items/{id}/checked
func (h *Handler) SetChecked(w http.ResponseWriter, r *http.Request) {
	var req SetCheckedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	owner, id := ownerFrom(r), cart.LineID(chi.URLParam(r, "id"))
	var err error
	if req.Checked == nil {
		err = h.Cart.ToggleChecked(r.Context(), owner, id)
	} else {
		err = h.Cart.SetChecked(r.Context(), owner, id, *req.Checked)
	}
	if err != nil {
		h.storeError(w, "Failed to update item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAmount edits the quantity directly, bypassing aggregation.
// PUT /api/cart/items/{id}/amount
func (h *Handler) SetAmount(w http.ResponseWriter, r *http.Request) {
	var req SetAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount < 0 {
		writeError(w, http.StatusBadRequest, "Amount must be >= 0", nil)
		return
	}
	err := h.Cart.SetAmount(r.Context(), ownerFrom(r), cart.LineID(chi.URLParam(r, "id")),
		decimal.NewFromFloat(req.Amount))
	if err != nil {
		h.storeError(w, "Failed to update item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPrice records the user-entered whole-line cost.
// PUT /api/cart/items/{id}/price
func (h *Handler) SetPrice(w http.ResponseWriter, r *http.Request) {
	var req SetPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	err := h.Cart.SetPrice(r.Context(), ownerFrom(r), cart.LineID(chi.URLParam(r, "id")),
		decimal.NewFromFloat(req.Price))
	if err != nil {
		h.storeError(w, "Failed to update item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetNote sets the free-text annotation.
// PUT /api/cart/items/{id}/note
func (h *Handler) SetNote(w http.ResponseWriter, r *http.Request) {
	var req SetNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	err := h.Cart.SetNote(r.Context(), ownerFrom(r), cart.LineID(chi.URLParam(r, "id")), req.Note)
	if err != nil {
		h.storeError(w, "Failed to update item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CART DELETION
// =============================================================================

// DeleteItem removes one line.
// DELETE /api/cart/items/{id}
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	err := h.Cart.Delete(r.Context(), ownerFrom(r), cart.LineID(chi.URLParam(r, "id")))
	if err != nil {
		h.storeError(w, "Failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearWeek removes every line of one week partition.
// DELETE /api/cart/weeks/{weekId}
func (h *Handler) ClearWeek(w http.ResponseWriter, r *http.Request) {
	err := h.Cart.DeleteWeek(r.Context(), ownerFrom(r), cart.WeekID(chi.URLParam(r, "weekId")))
	if err != nil {
		h.storeError(w, "Failed to clear week", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCart removes everything, all weeks.
// DELETE /api/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.DeleteAll(r.Context(), ownerFrom(r)); err != nil {
		h.storeError(w, "Failed to clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PLANNER ENDPOINTS
// =============================================================================

// ListPlannedMeals returns the owner's planned meals in a date range.
// GET /api/planner?from=2025-01-27&to=2025-02-02
func (h *Handler) ListPlannedMeals(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}

	meals, err := h.Planner.MealsForRange(r.Context(), ownerFrom(r), from, to)
	if err != nil {
		h.storeError(w, "Failed to load meal plan", err)
		return
	}

	out := make([]PlannedMealDTO, 0, len(meals))
	for _, m := range meals {
		out = append(out, PlannedMealDTO{
			Date:   m.Date.Format("2006-01-02"),
			Recipe: toRecipeDTO(m.Recipe),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// PlanMeal schedules a recipe onto a date.
// POST /api/planner/meals
func (h *Handler) PlanMeal(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.decodeMeal(w, r)
	if !ok {
		return
	}
	if err := h.Planner.AddMeal(r.Context(), ownerFrom(r), meal); err != nil {
		h.plannerError(w, "Failed to plan meal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnplanMeal removes a scheduled recipe from a date.
// DELETE /api/planner/meals
func (h *Handler) UnplanMeal(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.decodeMeal(w, r)
	if !ok {
		return
	}
	if err := h.Planner.RemoveMeal(r.Context(), ownerFrom(r), meal); err != nil {
		h.plannerError(w, "Failed to unplan meal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeMeal(w http.ResponseWriter, r *http.Request) (planner.Meal, bool) {
	var req MealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return planner.Meal{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return planner.Meal{}, false
	}
	return planner.Meal{RecipeID: req.RecipeID, Date: date}, true
}

// =============================================================================
// RECIPE ENDPOINTS - Minimal CRUD feeding the producers
// =============================================================================

// ListRecipes returns all recipes.
// GET /api/recipes
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.Planner.ListRecipes(r.Context())
	if err != nil {
		h.storeError(w, "Failed to list recipes", err)
		return
	}
	out := make([]RecipeDTO, 0, len(recipes))
	for _, rec := range recipes {
		out = append(out, toRecipeDTO(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetRecipe returns one recipe with its ingredients.
// GET /api/recipes/{id}
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.Planner.GetRecipe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.plannerError(w, "Failed to load recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecipeDTO(recipe))
}

// CreateRecipe saves a recipe.
// POST /api/recipes
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var dto RecipeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.Title == "" {
		writeError(w, http.StatusBadRequest, "Recipe title is required", nil)
		return
	}

	saved, err := h.Planner.SaveRecipe(r.Context(), toRecipe(dto))
	if err != nil {
		h.storeError(w, "Failed to save recipe", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecipeDTO(saved))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (h *Handler) storeError(w http.ResponseWriter, message string, err error) {
	switch {
	case cart.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Item not found", nil)
	case cart.IsRetryable(err):
		writeError(w, http.StatusConflict, "Cart changed concurrently, please retry", err)
	default:
		h.Log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func (h *Handler) plannerError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, cart.ErrNoOwner):
		// Speculative call before login: same silent no-op as cart paths.
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, planner.ErrRecipeNotFound):
		writeError(w, http.StatusNotFound, "Recipe not found", nil)
	case errors.Is(err, planner.ErrMealNotFound):
		writeError(w, http.StatusNotFound, "Meal not planned", nil)
	default:
		h.Log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
