// Package store provides cart.Store implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/basil/cart-engine/cart"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps each owner's lines in insertion order, mirroring the SQLite
// store's ordering and its open-line uniqueness constraint.
type Memory struct {
	mu    sync.RWMutex
	lines map[cart.OwnerID][]cart.LineItem
}

func NewMemory() *Memory {
	return &Memory{lines: make(map[cart.OwnerID][]cart.LineItem)}
}

func (m *Memory) ListActive(_ context.Context, owner cart.OwnerID, week cart.WeekID) ([]cart.LineItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []cart.LineItem
	for _, li := range m.lines[owner] {
		if week != "" && li.WeekID != week {
			continue
		}
		out = append(out, li.Clone())
	}
	// Same order the SQLite store returns: week, then insertion.
	sort.SliceStable(out, func(i, j int) bool { return out[i].WeekID < out[j].WeekID })
	return out, nil
}

func (m *Memory) ApplyPlan(_ context.Context, owner cart.OwnerID, plan cart.Plan) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Constraint check first so the batch is all-or-nothing: an insert must
	// not collide with an existing open line for the same (name, unit, week).
	for _, ins := range plan.Inserts {
		for _, li := range m.lines[owner] {
			if !li.Checked && li.WeekID == ins.WeekID &&
				strings.EqualFold(li.Name, ins.Name) &&
				strings.EqualFold(li.Unit, ins.Unit) {
				return &cart.ConflictError{Name: ins.Name, Unit: ins.Unit, WeekID: ins.WeekID}
			}
		}
	}

	for _, upd := range plan.Updates {
		found := false
		for i, li := range m.lines[owner] {
			if li.ID == upd.ID {
				m.lines[owner][i] = upd.Clone()
				found = true
				break
			}
		}
		if !found {
			return cart.ErrLineNotFound
		}
	}

	for _, ins := range plan.Inserts {
		li := ins.Clone()
		li.ID = cart.LineID(uuid.NewString())
		m.lines[owner] = append(m.lines[owner], li)
	}
	return nil
}

// edit applies fn to the identified line.
func (m *Memory) edit(owner cart.OwnerID, id cart.LineID, fn func(*cart.LineItem)) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lines[owner] {
		if m.lines[owner][i].ID == id {
			fn(&m.lines[owner][i])
			return nil
		}
	}
	return cart.ErrLineNotFound
}

func (m *Memory) SetChecked(_ context.Context, owner cart.OwnerID, id cart.LineID, checked bool) error {
	return m.edit(owner, id, func(li *cart.LineItem) { li.Checked = checked })
}

func (m *Memory) SetAmount(_ context.Context, owner cart.OwnerID, id cart.LineID, amount decimal.Decimal) error {
	return m.edit(owner, id, func(li *cart.LineItem) { li.Amount = amount })
}

func (m *Memory) SetPrice(_ context.Context, owner cart.OwnerID, id cart.LineID, price decimal.Decimal) error {
	return m.edit(owner, id, func(li *cart.LineItem) { li.Price = price })
}

func (m *Memory) SetNote(_ context.Context, owner cart.OwnerID, id cart.LineID, note string) error {
	return m.edit(owner, id, func(li *cart.LineItem) { li.Note = note })
}

func (m *Memory) Delete(_ context.Context, owner cart.OwnerID, id cart.LineID) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.lines[owner]
	for i := range lines {
		if lines[i].ID == id {
			m.lines[owner] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return cart.ErrLineNotFound
}

func (m *Memory) DeleteWeek(_ context.Context, owner cart.OwnerID, week cart.WeekID) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []cart.LineItem
	for _, li := range m.lines[owner] {
		if li.WeekID != week {
			kept = append(kept, li)
		}
	}
	m.lines[owner] = kept
	return nil
}

func (m *Memory) DeleteAll(_ context.Context, owner cart.OwnerID) error {
	if owner.IsZero() {
		return cart.ErrNoOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, owner)
	return nil
}
