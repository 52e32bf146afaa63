package cart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basil/cart-engine/cart"
	cartstore "github.com/basil/cart-engine/cart/store"
)

const owner = cart.OwnerID("user-1")

func newTestService() (*cart.Service, *cartstore.Memory) {
	mem := cartstore.NewMemory()
	return cart.NewService(mem), mem
}

// =============================================================================
// RECONCILIATION CYCLE
// =============================================================================

func TestService_AddMergesAcrossCalls(t *testing.T) {
	// GIVEN: Two separate user actions adding the same ingredient
	// WHEN: Each runs its own read-plan-write-reload cycle
	// THEN: One line holds the sum (merge additivity across batches)

	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Add(ctx, owner, []cart.Request{req("Milk", 1, "l")})
	require.NoError(t, err)

	res, err := svc.Add(ctx, owner, []cart.Request{req("milk", 2, "L")})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	amountEqual(t, 3, res.Items[0].Amount)
	assert.NotEmpty(t, res.Items[0].ID, "storage assigned an id")
}

func TestService_AddReturnsReloadedState(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	res, err := svc.Add(ctx, owner, []cart.Request{
		recipeReq("Egg", 2, "pcs", "r1", "Omelette"),
		recipeReq("egg", 3, "PCS", "r2", "Cake"),
	})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	amountEqual(t, 5, res.Items[0].Amount)
	assert.Equal(t, []string{"r1", "r2"}, res.Items[0].RecipeIDs)
}

func TestService_AddReportsDropped(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	res, err := svc.Add(ctx, owner, []cart.Request{
		{Name: "", Amount: cart.Qty(1), Unit: "g", WeekID: week},
		req("Sugar", 100, "g"),
	})
	require.NoError(t, err)

	assert.Len(t, res.Items, 1)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, "missing name", res.Dropped[0].Reason)
}

// =============================================================================
// NO OWNER - Speculative UI calls must be silent no-ops
// =============================================================================

func TestService_NoOwnerIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService()

	res, err := svc.Add(ctx, "", []cart.Request{req("Milk", 1, "l")})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	items, err := svc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.NoError(t, svc.Delete(ctx, "", "some-id"))
	assert.NoError(t, svc.DeleteAll(ctx, ""))
	assert.NoError(t, svc.SetNote(ctx, "", "some-id", "hi"))

	// Nothing leaked into storage under the empty owner.
	stored, err := mem.ListActive(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

// =============================================================================
// OWNER ISOLATION
// =============================================================================

func TestService_OwnersNeverShareLines(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Add(ctx, "user-1", []cart.Request{req("Milk", 1, "l")})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "user-2", []cart.Request{req("Milk", 2, "l")})
	require.NoError(t, err)

	one, _ := svc.List(ctx, "user-1", "")
	two, _ := svc.List(ctx, "user-2", "")
	require.Len(t, one, 1)
	require.Len(t, two, 1)
	amountEqual(t, 1, one[0].Amount)
	amountEqual(t, 2, two[0].Amount)
}

// =============================================================================
// DIRECT EDITS AND DELETION
// =============================================================================

func TestService_ToggleChecked(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	res, err := svc.Add(ctx, owner, []cart.Request{req("Milk", 1, "l")})
	require.NoError(t, err)
	id := res.Items[0].ID

	require.NoError(t, svc.ToggleChecked(ctx, owner, id))
	items, _ := svc.List(ctx, owner, "")
	assert.True(t, items[0].Checked)

	require.NoError(t, svc.ToggleChecked(ctx, owner, id))
	items, _ = svc.List(ctx, owner, "")
	assert.False(t, items[0].Checked)

	assert.ErrorIs(t, svc.ToggleChecked(ctx, owner, "missing"), cart.ErrLineNotFound)
}

func TestService_CheckedThenNewRequestOpensFreshLine(t *testing.T) {
	// End to end: buy the flour, ask for more, get a new line.

	ctx := context.Background()
	svc, _ := newTestService()

	res, err := svc.Add(ctx, owner, []cart.Request{req("Flour", 200, "g")})
	require.NoError(t, err)
	require.NoError(t, svc.SetChecked(ctx, owner, res.Items[0].ID, true))

	res, err = svc.Add(ctx, owner, []cart.Request{recipeReq("Flour", 100, "g", "r3", "Bread")})
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	var open, closed *cart.LineItem
	for i := range res.Items {
		if res.Items[i].Checked {
			closed = &res.Items[i]
		} else {
			open = &res.Items[i]
		}
	}
	require.NotNil(t, open)
	require.NotNil(t, closed)
	amountEqual(t, 200, closed.Amount)
	amountEqual(t, 100, open.Amount)
}

func TestService_DeleteWeekLeavesOtherWeeks(t *testing.T) {
	// Clearing one week leaves other weeks' totals unchanged.

	ctx := context.Background()
	svc, _ := newTestService()

	otherWeek := req("Eggs", 10, "pcs")
	otherWeek.WeekID = "2025-06"
	res, err := svc.Add(ctx, owner, []cart.Request{req("Milk", 1, "l"), otherWeek})
	require.NoError(t, err)

	require.NoError(t, svc.SetPrice(ctx, owner, res.Items[1].ID, cart.Qty(3.2)))
	require.NoError(t, svc.DeleteWeek(ctx, owner, week))

	items, err := svc.List(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, cart.WeekID("2025-06"), items[0].WeekID)
	assert.True(t, cart.Qty(3.2).Equal(cart.TotalCost(items, "2025-06")))
}

// =============================================================================
// CONCURRENT WRITER - The retry path
// =============================================================================

// racingStore simulates a second session: after the service reads its
// snapshot, another writer inserts a matching open line, so the first
// ApplyPlan hits the uniqueness constraint.
type racingStore struct {
	*cartstore.Memory
	raced bool
}

func (r *racingStore) ApplyPlan(ctx context.Context, o cart.OwnerID, plan cart.Plan) error {
	if !r.raced && len(plan.Inserts) > 0 {
		r.raced = true
		sneak := plan.Inserts[0]
		if err := r.Memory.ApplyPlan(ctx, o, cart.Plan{Inserts: []cart.LineItem{sneak}}); err != nil {
			return err
		}
	}
	return r.Memory.ApplyPlan(ctx, o, plan)
}

func TestService_RetriesOnceOnConflict(t *testing.T) {
	// GIVEN: A concurrent writer wins the race for a new Milk line
	// WHEN: Add hits ErrConcurrentModification
	// THEN: It re-reads and merges into the winner's line, losing nothing

	ctx := context.Background()
	rs := &racingStore{Memory: cartstore.NewMemory()}
	svc := cart.NewService(rs)

	res, err := svc.Add(ctx, owner, []cart.Request{req("Milk", 2, "l")})
	require.NoError(t, err)
	assert.True(t, rs.raced)

	require.Len(t, res.Items, 1)
	amountEqual(t, 4, res.Items[0].Amount) // winner's 2 + retried merge of 2
}
