// Package scraper extracts arbitrage opportunities from the rendered feed
// page.
package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/arbscan/arbscan/internal/browser"
	"github.com/arbscan/arbscan/internal/logger"
	"github.com/arbscan/arbscan/internal/models"
)

// Feed page selectors. The feed lists two-leg arbs as <li> rows with a header
// block and one bet wrapper per leg.
const (
	selArbRow       = "#arbs-list ul.arbs-list > li.wrapper.arb.has-2-bets"
	selPercent      = ".header .percent"
	selSport        = ".header .sport-name"
	selUpdatedAt    = ".header .updated-at"
	selBetWrapper   = ".bet-wrapper"
	selBookmaker    = ".bookmaker-name a"
	selKickoff      = ".date"
	selEventName    = ".event-name .name a"
	selLeague       = ".event-name .league"
	selMarket       = ".market a span"
	selOdds         = "a.coefficient-link"
	selDepth        = ".market-dept"
	selBetLink      = "a[href*='arb_hash=']"
	selLoginEmail   = "input[name='allbestbets_user[email]']"
	selLoginPass    = "input[name='allbestbets_user[password]']"
	selLoginSubmit  = "button[type='submit'], input[type='submit']"
	loginPathMarker = "/users/sign_in"
	feedPath        = "/arbs"
)

const (
	loginSettle       = 500 * time.Millisecond
	loginDeadline     = 15 * time.Second
	feedWait          = 10 * time.Second
	defaultNavTimeout = 120 * time.Second
)

// Scraper drives one feed page: login, feed navigation, and row extraction.
type Scraper struct {
	page       browser.Page
	baseURL    string
	navTimeout time.Duration
}

// New returns a Scraper bound to page. baseURL is the feed site origin, for
// example "https://example.com". navTimeout bounds every navigation; zero
// selects the default.
func New(page browser.Page, baseURL string, navTimeout time.Duration) *Scraper {
	if navTimeout <= 0 {
		navTimeout = defaultNavTimeout
	}
	return &Scraper{
		page:       page,
		baseURL:    strings.TrimRight(baseURL, "/"),
		navTimeout: navTimeout,
	}
}

// Login signs in with the given credentials. It navigates to the sign-in
// page, submits the form, and polls until the page leaves the sign-in path.
func (s *Scraper) Login(email, password string) error {
	loginURL := s.baseURL + loginPathMarker
	if err := s.page.Goto(loginURL, s.navTimeout); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := s.page.Fill(selLoginEmail, email); err != nil {
		return fmt.Errorf("failed to fill email: %w", err)
	}
	if err := s.page.Fill(selLoginPass, password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := s.page.Click(selLoginSubmit); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	deadline := time.Now().Add(loginDeadline)
	for time.Now().Before(deadline) {
		s.page.WaitFor(loginSettle)
		if !strings.Contains(s.page.URL(), loginPathMarker) {
			logger.Info("Logged in, current URL: %s", s.page.URL())
			return nil
		}
	}
	return fmt.Errorf("still on sign-in page after login attempt: %s", s.page.URL())
}

// OpenFeed navigates to the arbs listing and waits for rows to render.
func (s *Scraper) OpenFeed() error {
	if err := s.page.Goto(s.baseURL+feedPath, s.navTimeout); err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	if err := s.page.WaitForSelector(selArbRow, feedWait); err != nil {
		// An empty feed is not fatal; the next scan pass may find rows.
		logger.Warn("No arb rows visible yet: %v", err)
	}
	return nil
}

// Scan extracts every opportunity currently rendered on the feed. Rows whose
// identifying token cannot be extracted are skipped.
func (s *Scraper) Scan() []models.Opportunity {
	rows := s.page.Elements(selArbRow)
	out := make([]models.Opportunity, 0, len(rows))
	for _, row := range rows {
		op, ok := s.extractRow(row)
		if !ok {
			continue
		}
		out = append(out, op)
	}
	return out
}

func (s *Scraper) extractRow(row browser.Element) (models.Opportunity, bool) {
	op := models.Opportunity{
		Sport:        row.Text(selSport),
		Percent:      row.Text(selPercent),
		PercentClass: row.Attr(selPercent, "class"),
		UpdatedAt:    row.Text(selUpdatedAt),
	}

	for _, bet := range row.Elements(selBetWrapper) {
		leg := models.Leg{
			Bookmaker: bet.Text(selBookmaker),
			Event:     bet.Text(selEventName),
			League:    bet.Text(selLeague),
			Kickoff:   bet.Text(selKickoff),
			Market:    bet.Text(selMarket),
			Odds:      bet.Text(selOdds),
			Depth:     bet.Text(selDepth),
			BetURL:    s.absURL(bet.Attr(selBetLink, "href")),
		}
		op.Legs = append(op.Legs, leg)
		if op.ID == "" {
			op.ID = extractID(leg.BetURL)
		}
	}

	if op.ID == "" {
		logger.Debug("Skipping row without arb hash (sport=%q percent=%q)", op.Sport, op.Percent)
		return models.Opportunity{}, false
	}
	if len(op.Legs) == 0 {
		return models.Opportunity{}, false
	}
	return op, true
}

// absURL resolves href against the feed origin. Already-absolute links pass
// through unchanged.
func (s *Scraper) absURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return s.baseURL + href
	}
	return s.baseURL + "/" + href
}

// extractID pulls the arb_hash query parameter out of a bet link.
func extractID(betURL string) string {
	if betURL == "" {
		return ""
	}
	u, err := url.Parse(betURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("arb_hash")
}
