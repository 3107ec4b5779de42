// Package stake computes equal-return stake allocations for an arbitrage
// opportunity.
package stake

import (
	"strings"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// ParseOdds parses a payout multiplier from free-form feed text. It strips
// thousands separators, normalizes a decimal comma to a decimal point, and
// discards any other non-numeric characters. It fails when no digits remain
// or the value is not above 1.0 (a multiplier at or below even money cannot
// be arbed).
func ParseOdds(text string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == ',':
			b.WriteByte('.')
		}
	}
	cleaned := b.String()

	// Everything but the last dot is a thousands separator.
	if n := strings.Count(cleaned, "."); n > 1 {
		last := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
	}
	if !strings.ContainsAny(cleaned, "0123456789") {
		return decimal.Decimal{}, false
	}

	odds, err := decimal.NewFromString(cleaned)
	if err != nil || odds.LessThanOrEqual(one) {
		return decimal.Decimal{}, false
	}
	return odds, true
}

// Allocate splits bankroll across the legs so every leg returns the same
// payout. The result is aligned with odds: entries for unparseable
// multipliers are nil. Each amount is rounded to two decimals (half up); the
// last allocation absorbs rounding drift so the literal sum equals the
// bankroll exactly. Returns nil, false when fewer than two multipliers parse
// or the bankroll is not positive.
func Allocate(odds []string, bankroll decimal.Decimal) ([]*decimal.Decimal, bool) {
	if bankroll.LessThanOrEqual(decimal.Zero) {
		return nil, false
	}

	parsed := make([]*decimal.Decimal, len(odds))
	inverseSum := decimal.Zero
	count := 0
	for i, text := range odds {
		o, ok := ParseOdds(text)
		if !ok {
			continue
		}
		inv := one.Div(o)
		parsed[i] = &inv
		inverseSum = inverseSum.Add(inv)
		count++
	}
	if count < 2 {
		return nil, false
	}

	amounts := make([]*decimal.Decimal, len(odds))
	allocated := decimal.Zero
	remaining := count
	for i, inv := range parsed {
		if inv == nil {
			continue
		}
		remaining--
		var amount decimal.Decimal
		if remaining == 0 {
			amount = bankroll.Sub(allocated).Round(2)
		} else {
			amount = bankroll.Mul(*inv).Div(inverseSum).Round(2)
			allocated = allocated.Add(amount)
		}
		amounts[i] = &amount
	}
	return amounts, true
}

// EqualStakes computes the two allocations that equalize return across a
// two-outcome opportunity. It returns false when either multiplier fails to
// parse or the bankroll is not positive.
func EqualStakes(oddsA, oddsB string, bankroll decimal.Decimal) (decimal.Decimal, decimal.Decimal, bool) {
	amounts, ok := Allocate([]string{oddsA, oddsB}, bankroll)
	if !ok {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	return *amounts[0], *amounts[1], true
}
