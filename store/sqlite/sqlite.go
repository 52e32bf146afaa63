/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements cart.Store and planner.Store using SQLite. The same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  cart_items:         One row per open-or-checked shopping-list line
  recipes:            Recipe headers
  recipe_ingredients: Ordered ingredient lists per recipe
  meal_plan:          Planned meals, (owner, recipe, date) unique

OPEN-LINE UNIQUENESS:
  The partial unique index idx_cart_open_line enforces at most one UNCHECKED
  line per (owner, lowercased name, lowercased unit, week). This is the
  server-side constraint that catches the read-modify-write race between two
  sessions: the losing writer's insert fails the whole plan batch with
  cart.ErrConcurrentModification, and the service retries against fresh
  state. Checked lines are outside the index, so closing a line and opening
  a fresh one for the same ingredient is always legal.

AMOUNTS:
  Quantities and prices are stored as decimal strings, never as REAL, to
  round-trip shopspring decimals exactly.

CONCURRENCY:
  sync.RWMutex for in-process thread safety; WAL mode for cross-process
  readers. With PostgreSQL, database-level concurrency control would take
  over both jobs.

USAGE:
  store, err := sqlite.New("./data/cart.db")
  if err != nil { ... }
  defer store.Close()
  svc := cart.NewService(store)

SEE ALSO:
  - cart/store.go:    interface and consistency contract
  - cart/store:       in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/basil/cart-engine/cart"
	"github.com/basil/cart-engine/planner"
)

// Store implements cart.Store and planner.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Interface checks.
var (
	_ cart.Store    = (*Store)(nil)
	_ planner.Store = (*Store)(nil)
)

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Shopping-cart line items
	CREATE TABLE IF NOT EXISTS cart_items (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		name_key TEXT NOT NULL,
		amount TEXT NOT NULL,
		unit TEXT NOT NULL,
		unit_key TEXT NOT NULL,
		week_id TEXT NOT NULL,
		checked INTEGER NOT NULL DEFAULT 0,
		recipe_ids_json TEXT NOT NULL DEFAULT '[]',
		recipe_names_json TEXT NOT NULL DEFAULT '[]',
		price TEXT NOT NULL DEFAULT '0',
		note TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- The hot path: one owner's cart, optionally one week
	CREATE INDEX IF NOT EXISTS idx_cart_owner_week
		ON cart_items(owner_id, week_id);

	-- CRITICAL: at most one OPEN line per (owner, name, unit, week).
	-- name_key/unit_key hold the case-folded forms, so "Milk"/"milk" collide.
	-- Checked lines are closed and deliberately outside this index.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_open_line
		ON cart_items(owner_id, name_key, unit_key, week_id)
		WHERE checked = 0;

	-- Recipes
	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recipe_ingredients (
		recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		unit TEXT NOT NULL,
		PRIMARY KEY (recipe_id, position)
	);

	-- Meal plan
	CREATE TABLE IF NOT EXISTS meal_plan (
		owner_id TEXT NOT NULL,
		recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (owner_id, recipe_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_meal_plan_owner_date
		ON meal_plan(owner_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CART STORE (cart.Store interface)
// =============================================================================

const cartColumns = `id, name, amount, unit, week_id, checked,
	recipe_ids_json, recipe_names_json, price, note`

func (s *Store) ListActive(ctx context.Context, owner cart.OwnerID, week cart.WeekID) ([]cart.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE owner_id = ?`
	args := []any{owner}
	if week != "" {
		query += ` AND week_id = ?`
		args = append(args, week)
	}
	// rowid increases with insertion, so lines within a week come back in
	// the order they were inserted, including inside one plan batch.
	query += ` ORDER BY week_id ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	var items []cart.LineItem
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func (s *Store) ApplyPlan(ctx context.Context, owner cart.OwnerID, plan cart.Plan) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, upd := range plan.Updates {
		idsJSON, _ := json.Marshal(emptyIfNil(upd.RecipeIDs))
		namesJSON, _ := json.Marshal(emptyIfNil(upd.RecipeNames))
		res, err := sqlTx.ExecContext(ctx, `
			UPDATE cart_items
			SET amount = ?, checked = ?, recipe_ids_json = ?, recipe_names_json = ?
			WHERE id = ? AND owner_id = ?`,
			upd.Amount.String(), boolToInt(upd.Checked), string(idsJSON), string(namesJSON),
			upd.ID, owner,
		)
		if err != nil {
			return fmt.Errorf("failed to update line %s: %w", upd.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return cart.ErrLineNotFound
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, ins := range plan.Inserts {
		idsJSON, _ := json.Marshal(emptyIfNil(ins.RecipeIDs))
		namesJSON, _ := json.Marshal(emptyIfNil(ins.RecipeNames))
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO cart_items
			(id, owner_id, name, name_key, amount, unit, unit_key, week_id, checked,
			 recipe_ids_json, recipe_names_json, price, note, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)`,
			uuid.NewString(), owner,
			ins.Name, strings.ToLower(ins.Name),
			ins.Amount.String(),
			ins.Unit, strings.ToLower(ins.Unit),
			ins.WeekID,
			string(idsJSON), string(namesJSON),
			ins.Price.String(), ins.Note, now,
		)
		if err != nil {
			if isOpenLineConflict(err) {
				return &cart.ConflictError{Name: ins.Name, Unit: ins.Unit, WeekID: ins.WeekID}
			}
			return fmt.Errorf("failed to insert line for %s: %w", ins.Name, err)
		}
	}

	return sqlTx.Commit()
}

// editColumn updates one column of one owned line.
func (s *Store) editColumn(ctx context.Context, owner cart.OwnerID, id cart.LineID, column string, value any) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE cart_items SET `+column+` = ? WHERE id = ? AND owner_id = ?`,
		value, id, owner,
	)
	if err != nil {
		if isOpenLineConflict(err) {
			// Unchecking a closed line collides with a fresh open line for
			// the same ingredient. User-correctable: merge or delete one.
			return cart.ErrConcurrentModification
		}
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (s *Store) SetChecked(ctx context.Context, owner cart.OwnerID, id cart.LineID, checked bool) error {
	return s.editColumn(ctx, owner, id, "checked", boolToInt(checked))
}

func (s *Store) SetAmount(ctx context.Context, owner cart.OwnerID, id cart.LineID, amount decimal.Decimal) error {
	return s.editColumn(ctx, owner, id, "amount", amount.String())
}

func (s *Store) SetPrice(ctx context.Context, owner cart.OwnerID, id cart.LineID, price decimal.Decimal) error {
	return s.editColumn(ctx, owner, id, "price", price.String())
}

func (s *Store) SetNote(ctx context.Context, owner cart.OwnerID, id cart.LineID, note string) error {
	return s.editColumn(ctx, owner, id, "note", note)
}

func (s *Store) Delete(ctx context.Context, owner cart.OwnerID, id cart.LineID) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (s *Store) DeleteWeek(ctx context.Context, owner cart.OwnerID, week cart.WeekID) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE owner_id = ? AND week_id = ?`, owner, week)
	if err != nil {
		return fmt.Errorf("failed to clear week %s: %w", week, err)
	}
	return nil
}

func (s *Store) DeleteAll(ctx context.Context, owner cart.OwnerID) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE owner_id = ?`, owner)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// =============================================================================
// PLANNER STORE (planner.Store interface)
// =============================================================================

func (s *Store) SaveRecipe(ctx context.Context, r planner.Recipe) (planner.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return planner.Recipe{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := sqlTx.ExecContext(ctx, `
		INSERT INTO recipes (id, title, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title`,
		r.ID, r.Title, now,
	); err != nil {
		return planner.Recipe{}, fmt.Errorf("failed to save recipe: %w", err)
	}

	if _, err := sqlTx.ExecContext(ctx,
		`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, r.ID); err != nil {
		return planner.Recipe{}, fmt.Errorf("failed to replace ingredients: %w", err)
	}
	for i, ing := range r.Ingredients {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, position, name, amount, unit)
			VALUES (?, ?, ?, ?, ?)`,
			r.ID, i, ing.Name, ing.Amount.String(), ing.Unit,
		); err != nil {
			return planner.Recipe{}, fmt.Errorf("failed to save ingredient %q: %w", ing.Name, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return planner.Recipe{}, err
	}
	return r, nil
}

func (s *Store) GetRecipe(ctx context.Context, id string) (planner.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRecipeLocked(ctx, id)
}

func (s *Store) getRecipeLocked(ctx context.Context, id string) (planner.Recipe, error) {
	var r planner.Recipe
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title FROM recipes WHERE id = ?`, id).Scan(&r.ID, &r.Title)
	if err == sql.ErrNoRows {
		return planner.Recipe{}, planner.ErrRecipeNotFound
	}
	if err != nil {
		return planner.Recipe{}, fmt.Errorf("failed to load recipe: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, amount, unit FROM recipe_ingredients
		WHERE recipe_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return planner.Recipe{}, fmt.Errorf("failed to load ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ing planner.Ingredient
		var amount string
		if err := rows.Scan(&ing.Name, &amount, &ing.Unit); err != nil {
			return planner.Recipe{}, err
		}
		ing.Amount = mustDecimal(amount)
		r.Ingredients = append(r.Ingredients, ing)
	}
	return r, rows.Err()
}

func (s *Store) ListRecipes(ctx context.Context) ([]planner.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM recipes ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]planner.Recipe, 0, len(ids))
	for _, id := range ids {
		r, err := s.getRecipeLocked(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) AddMeal(ctx context.Context, owner cart.OwnerID, m planner.Meal) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// (owner, recipe, date) is the primary key: re-planning is a no-op.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_plan (owner_id, recipe_id, date, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id, recipe_id, date) DO NOTHING`,
		owner, m.RecipeID, m.Date.Format("2006-01-02"),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return planner.ErrRecipeNotFound
		}
		return fmt.Errorf("failed to plan meal: %w", err)
	}
	return nil
}

func (s *Store) RemoveMeal(ctx context.Context, owner cart.OwnerID, m planner.Meal) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM meal_plan WHERE owner_id = ? AND recipe_id = ? AND date = ?`,
		owner, m.RecipeID, m.Date.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to unplan meal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return planner.ErrMealNotFound
	}
	return nil
}

func (s *Store) MealsForRange(ctx context.Context, owner cart.OwnerID, from, to time.Time) ([]planner.PlannedRecipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, recipe_id FROM meal_plan
		WHERE owner_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		owner, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to load meal plan: %w", err)
	}
	defer rows.Close()

	type entry struct {
		date     string
		recipeID string
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.date, &e.recipeID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []planner.PlannedRecipe
	for _, e := range entries {
		r, err := s.getRecipeLocked(ctx, e.recipeID)
		if err != nil {
			return nil, err
		}
		d, _ := time.Parse("2006-01-02", e.date)
		out = append(out, planner.PlannedRecipe{Date: d, Recipe: r})
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLineItem(row rowScanner) (cart.LineItem, error) {
	var li cart.LineItem
	var amount, idsJSON, namesJSON, price string
	var checked int

	if err := row.Scan(&li.ID, &li.Name, &amount, &li.Unit, &li.WeekID, &checked,
		&idsJSON, &namesJSON, &price, &li.Note); err != nil {
		return cart.LineItem{}, fmt.Errorf("failed to scan cart item: %w", err)
	}

	li.Amount = mustDecimal(amount)
	li.Price = mustDecimal(price)
	li.Checked = checked != 0
	if err := json.Unmarshal([]byte(idsJSON), &li.RecipeIDs); err != nil {
		return cart.LineItem{}, fmt.Errorf("corrupt recipe_ids for line %s: %w", li.ID, err)
	}
	if err := json.Unmarshal([]byte(namesJSON), &li.RecipeNames); err != nil {
		return cart.LineItem{}, fmt.Errorf("corrupt recipe_names for line %s: %w", li.ID, err)
	}
	return li, nil
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func isOpenLineConflict(err error) bool {
	return err != nil &&
		strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), "cart_items")
}
