// Package format renders an opportunity into a delivery-ready plain-text
// payload. Formatting is deterministic: the same inputs always produce a
// byte-identical message.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/arbscan/arbscan/internal/models"
)

// Glyph maps the feed's freshness-class indicator to a severity glyph.
func Glyph(percentClass string) string {
	c := strings.ToLower(percentClass)
	switch {
	case strings.Contains(c, "green"):
		return "🟢"
	case strings.Contains(c, "red"):
		return "🔴"
	case strings.Contains(c, "yellow"):
		return "🟡"
	default:
		return "⚪️"
	}
}

// Message builds the alert payload. stakes, when non-nil, is aligned with
// op.Legs; a nil entry means the leg carried no allocation. Blank fields are
// omitted rather than rendered as placeholders, and no markup is emitted:
// the payload is always plain text.
func Message(op models.Opportunity, stakes []*decimal.Decimal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "⚡️ %s %s | %s | %s\n",
		Glyph(op.PercentClass), clean(op.Percent), clean(op.Sport), clean(op.UpdatedAt))

	var event, league, kickoff string
	if len(op.Legs) > 0 {
		event = clean(op.Legs[0].Event)
		league = clean(op.Legs[0].League)
		kickoff = clean(op.Legs[0].Kickoff)
	}
	if event != "" {
		fmt.Fprintf(&b, "🏟 %s\n", event)
	}
	if league != "" {
		fmt.Fprintf(&b, "🏷 %s\n", league)
	}
	if kickoff != "" {
		fmt.Fprintf(&b, "🗓 %s\n", kickoff)
	}

	for i, leg := range op.Legs {
		fmt.Fprintf(&b, "%d) %s — %s @ %s",
			i+1, clean(leg.Bookmaker), clean(leg.Market), clean(leg.Odds))
		if stakes != nil && i < len(stakes) && stakes[i] != nil {
			fmt.Fprintf(&b, " | stake %s", stakes[i].StringFixed(2))
		}
		if d := clean(leg.Depth); d != "" {
			fmt.Fprintf(&b, " | depth %s", d)
		}
		b.WriteByte('\n')
	}

	for _, leg := range op.Legs {
		if u := clean(leg.ResolvedURL); u != "" {
			fmt.Fprintf(&b, "🎯 %s: %s\n", clean(leg.Bookmaker), u)
		}
	}

	if id := clean(op.ID); id != "" {
		fmt.Fprintf(&b, "id: %s", id)
	}

	return strings.TrimSpace(b.String())
}

func clean(s string) string {
	return strings.TrimSpace(s)
}
