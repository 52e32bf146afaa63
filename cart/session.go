package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SESSION - Per-user client cart state
// =============================================================================

// Session is the in-memory projection of one owner's cart that a UI reads
// from. It converges with storage by full reload after every mutation; it
// never patches itself incrementally, so a partially applied write still
// ends in a consistent view.
type Session struct {
	svc   *Service
	owner OwnerID

	mu    sync.RWMutex
	items []LineItem
}

// NewSession creates a session for one owner. An empty owner yields a
// permanently empty, read-only session.
func NewSession(svc *Service, owner OwnerID) *Session {
	return &Session{svc: svc, owner: owner}
}

// Refresh re-queries the full cart from storage.
func (c *Session) Refresh(ctx context.Context) error {
	items, err := c.svc.List(ctx, c.owner, "")
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

// Add runs a reconciliation cycle and adopts the reloaded snapshot it
// returns, so no second round trip is needed.
func (c *Session) Add(ctx context.Context, reqs []Request) ([]DroppedRequest, error) {
	res, err := c.svc.Add(ctx, c.owner, reqs)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.items = res.Items
	c.mu.Unlock()
	return res.Dropped, nil
}

// mutate runs a direct edit then reloads.
func (c *Session) mutate(ctx context.Context, op func() error) error {
	if err := op(); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

func (c *Session) ToggleChecked(ctx context.Context, id LineID) error {
	return c.mutate(ctx, func() error { return c.svc.ToggleChecked(ctx, c.owner, id) })
}

func (c *Session) SetAmount(ctx context.Context, id LineID, amount decimal.Decimal) error {
	return c.mutate(ctx, func() error { return c.svc.SetAmount(ctx, c.owner, id, amount) })
}

func (c *Session) SetPrice(ctx context.Context, id LineID, price decimal.Decimal) error {
	return c.mutate(ctx, func() error { return c.svc.SetPrice(ctx, c.owner, id, price) })
}

func (c *Session) SetNote(ctx context.Context, id LineID, note string) error {
	return c.mutate(ctx, func() error { return c.svc.SetNote(ctx, c.owner, id, note) })
}

func (c *Session) Delete(ctx context.Context, id LineID) error {
	return c.mutate(ctx, func() error { return c.svc.Delete(ctx, c.owner, id) })
}

func (c *Session) ClearWeek(ctx context.Context, week WeekID) error {
	return c.mutate(ctx, func() error { return c.svc.DeleteWeek(ctx, c.owner, week) })
}

func (c *Session) Clear(ctx context.Context) error {
	return c.mutate(ctx, func() error { return c.svc.DeleteAll(ctx, c.owner) })
}

// =============================================================================
// SNAPSHOT READS - Derived queries over the loaded state
// =============================================================================

// Items returns a copy of the loaded snapshot.
func (c *Session) Items() []LineItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]LineItem, len(c.items))
	for i, it := range c.items {
		out[i] = it.Clone()
	}
	return out
}

// WeeklyCart returns the loaded lines for one week.
func (c *Session) WeeklyCart(week WeekID) []LineItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ItemsForWeek(c.items, week)
}

// WeeklyTotal sums the entered prices for one week.
func (c *Session) WeeklyTotal(week WeekID) decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return TotalCost(c.items, week)
}

// Weeks lists the distinct week partitions present, ascending.
func (c *Session) Weeks() []WeekID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return AllWeeks(c.items)
}

// Count is the outstanding (unchecked) item count across all weeks.
func (c *Session) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return OutstandingCount(c.items)
}
