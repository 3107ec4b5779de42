// Package models defines the core domain entities: opportunities, legs, and
// delivery records.
package models

import (
	"errors"
	"strings"
	"time"
)

// Leg is one side of an arbitrage opportunity: a bookmaker, a market, and a
// payout multiplier, possibly with a redirect reference to the bookmaker's
// bet page.
type Leg struct {
	Bookmaker   string `json:"bookmaker"`
	Event       string `json:"event,omitempty"`
	League      string `json:"league,omitempty"`
	Kickoff     string `json:"kickoff,omitempty"`
	Market      string `json:"market"`
	Odds        string `json:"odds"`
	Depth       string `json:"depth,omitempty"`
	BetURL      string `json:"bet_url,omitempty"`
	ResolvedURL string `json:"resolved_url,omitempty"`
}

// Opportunity is one detected arbitrage instance as extracted from the feed.
// It is transient: rebuilt on every scan pass and discarded after delivery or
// rejection. ID is the source's stable token for this instance; unrelated
// opportunities never share one.
type Opportunity struct {
	ID           string `json:"id"`
	Sport        string `json:"sport"`
	Percent      string `json:"percent"`
	PercentClass string `json:"percent_class,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	Legs         []Leg  `json:"legs"`
}

// Validate checks opportunity field constraints.
func (o *Opportunity) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return errors.New("opportunity ID must not be blank")
	}
	if len(o.Legs) == 0 {
		return errors.New("opportunity must carry at least one leg")
	}
	for _, leg := range o.Legs {
		if strings.TrimSpace(leg.Bookmaker) == "" {
			return errors.New("leg bookmaker must not be blank")
		}
	}
	return nil
}

// Delivery records a single alert pushed to a destination channel.
type Delivery struct {
	ID            string
	OpportunityID string
	Channel       string
	Sport         string
	Edge          string
	SentAt        time.Time
}
