package cart

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SPEND REPORT - Calendar-bucketed totals for the statistics screen
// =============================================================================
// Pure over a loaded collection. Week ids are mapped back to representative
// dates via WeekID.Start, which is exact to the week - all the grouping
// needs.

// Period selects the reporting bucket size.
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// SpendBucket is one bar of the spend report.
type SpendBucket struct {
	Label string
	Cost  decimal.Decimal
}

// SpendReport groups line items into calendar buckets and sums their entered
// prices. Items whose week id does not parse are skipped rather than failing
// the whole report.
func SpendReport(items []LineItem, period Period) []SpendBucket {
	totals := make(map[string]decimal.Decimal)
	for _, it := range items {
		start, err := it.WeekID.Start()
		if err != nil {
			continue
		}
		label := bucketLabel(start, it.WeekID, period)
		totals[label] = totals[label].Add(it.Price)
	}

	labels := make([]string, 0, len(totals))
	for l := range totals {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	out := make([]SpendBucket, 0, len(labels))
	for _, l := range labels {
		out = append(out, SpendBucket{Label: l, Cost: totals[l]})
	}
	return out
}

func bucketLabel(start time.Time, week WeekID, period Period) string {
	switch period {
	case PeriodMonth:
		return start.Format("2006-01")
	case PeriodQuarter:
		q := (int(start.Month())-1)/3 + 1
		return start.Format("2006") + "-Q" + string(rune('0'+q))
	case PeriodYear:
		return start.Format("2006")
	default:
		return string(week)
	}
}
