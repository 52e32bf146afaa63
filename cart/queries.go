package cart

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DERIVED QUERIES - Pure functions over a loaded line-item collection
// =============================================================================
// These never touch storage; they operate on whatever snapshot the caller
// already holds (typically a Session's last reload).

// ItemsForWeek filters the collection down to one week partition.
func ItemsForWeek(items []LineItem, week WeekID) []LineItem {
	var out []LineItem
	for _, it := range items {
		if it.WeekID == week {
			out = append(out, it)
		}
	}
	return out
}

// TotalCost sums the user-entered prices of a week's lines. Price is a
// whole-line cost, never multiplied by Amount.
func TotalCost(items []LineItem, week WeekID) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.WeekID == week {
			total = total.Add(it.Price)
		}
	}
	return total
}

// AllWeeks returns the distinct week partitions present, ascending. The
// zero-padded ISO format makes lexicographic order chronological.
func AllWeeks(items []LineItem) []WeekID {
	seen := make(map[WeekID]bool)
	var weeks []WeekID
	for _, it := range items {
		if !seen[it.WeekID] {
			seen[it.WeekID] = true
			weeks = append(weeks, it.WeekID)
		}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i] < weeks[j] })
	return weeks
}

// OutstandingCount counts not-yet-purchased lines across all weeks. This is
// the badge number on the cart icon.
func OutstandingCount(items []LineItem) int {
	n := 0
	for _, it := range items {
		if !it.Checked {
			n++
		}
	}
	return n
}
