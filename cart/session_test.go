package cart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basil/cart-engine/cart"
)

func TestSession_ConvergesByFullReload(t *testing.T) {
	// A session mirrors storage after every mutation; another session's
	// writes show up on the next refresh.

	ctx := context.Background()
	svc, _ := newTestService()

	a := cart.NewSession(svc, owner)
	b := cart.NewSession(svc, owner)

	_, err := a.Add(ctx, []cart.Request{req("Milk", 1, "l")})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Count())

	// b has not loaded yet.
	assert.Equal(t, 0, b.Count())
	require.NoError(t, b.Refresh(ctx))
	assert.Equal(t, 1, b.Count())
}

func TestSession_DerivedViews(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	sess := cart.NewSession(svc, owner)

	other := req("Eggs", 10, "pcs")
	other.WeekID = "2025-06"
	_, err := sess.Add(ctx, []cart.Request{req("Milk", 1, "l"), other})
	require.NoError(t, err)

	require.Len(t, sess.WeeklyCart(week), 1)
	assert.Equal(t, []cart.WeekID{week, "2025-06"}, sess.Weeks())

	id := sess.WeeklyCart(week)[0].ID
	require.NoError(t, sess.SetPrice(ctx, id, cart.Qty(1.5)))
	assert.True(t, cart.Qty(1.5).Equal(sess.WeeklyTotal(week)))

	require.NoError(t, sess.ToggleChecked(ctx, id))
	assert.Equal(t, 1, sess.Count(), "checked line drops out of the badge count")

	require.NoError(t, sess.ClearWeek(ctx, "2025-06"))
	assert.Empty(t, sess.WeeklyCart("2025-06"))
	require.NoError(t, sess.Clear(ctx))
	assert.Empty(t, sess.Items())
}

func TestSession_NoOwnerStaysEmpty(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	sess := cart.NewSession(svc, "")

	dropped, err := sess.Add(ctx, []cart.Request{req("Milk", 1, "l")})
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.Empty(t, sess.Items())
	assert.Equal(t, 0, sess.Count())
}
