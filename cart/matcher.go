package cart

import "strings"

// =============================================================================
// INGREDIENT MATCHER - The sole definition of "the same line item"
// =============================================================================

// Matches reports whether a request belongs to an existing line: same week,
// case-insensitive name and unit equality, and the line still open. Checked
// lines are closed; a later request for the same ingredient opens a new line
// rather than reopening a purchase the user already made.
//
// No normalization happens beyond case folding. "1000 g" and "1 kg" are
// different lines on purpose: silent unit conversion would change
// user-visible totals.
func Matches(req Request, line *LineItem) bool {
	return !line.Checked &&
		req.WeekID == line.WeekID &&
		strings.EqualFold(req.Name, line.Name) &&
		strings.EqualFold(req.Unit, line.Unit)
}
