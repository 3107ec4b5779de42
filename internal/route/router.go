// Package route selects the destination channel for an opportunity based on
// the bookmakers present on its legs.
package route

import (
	"strings"

	"github.com/arbscan/arbscan/internal/models"
)

// NoChannel is the fail-closed sentinel: no rule matched and no fallback is
// configured, so the opportunity is not delivered.
const NoChannel = ""

// Rule binds a bookmaker keyword to a destination channel. Rules are
// evaluated in priority order; the first keyword found on any leg wins.
type Rule struct {
	Keyword string
	Channel string
}

// Router is a pure lookup: deterministic given its configuration and the
// legs' bookmaker names. No I/O.
type Router struct {
	rules           []Rule
	categoryDefault string
	fallback        string
}

// New creates a Router. Rules with a blank keyword or channel are dropped.
// categoryDefault is used when no keyword matches; fallback when that is
// also unset.
func New(rules []Rule, categoryDefault, fallback string) *Router {
	kept := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Keyword) == "" || strings.TrimSpace(r.Channel) == "" {
			continue
		}
		kept = append(kept, Rule{
			Keyword: strings.ToLower(strings.TrimSpace(r.Keyword)),
			Channel: strings.TrimSpace(r.Channel),
		})
	}
	return &Router{
		rules:           kept,
		categoryDefault: strings.TrimSpace(categoryDefault),
		fallback:        strings.TrimSpace(fallback),
	}
}

// Select returns the destination channel for the given legs, or NoChannel
// when nothing is configured at all.
func (r *Router) Select(legs []models.Leg) string {
	for _, rule := range r.rules {
		for _, leg := range legs {
			if strings.Contains(strings.ToLower(leg.Bookmaker), rule.Keyword) {
				return rule.Channel
			}
		}
	}
	if r.categoryDefault != "" {
		return r.categoryDefault
	}
	if r.fallback != "" {
		return r.fallback
	}
	return NoChannel
}
