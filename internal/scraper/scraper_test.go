package scraper

import (
	"strings"
	"testing"
	"time"

	"github.com/arbscan/arbscan/internal/browser"
)

type fakeElement struct {
	texts    map[string]string
	attrs    map[string]string
	children map[string][]browser.Element
}

func (e *fakeElement) Text(selector string) string { return e.texts[selector] }
func (e *fakeElement) Attr(selector, name string) string {
	return e.attrs[selector+"|"+name]
}
func (e *fakeElement) Elements(selector string) []browser.Element {
	return e.children[selector]
}

type fakePage struct {
	rows         []browser.Element
	url          string
	gotoURLs     []string
	gotoTimeouts []time.Duration
	fills        map[string]string
	clicks       []string
	// urlAfterClick switches the reported URL once the form is submitted.
	urlAfterClick string
}

func (p *fakePage) Goto(url string, timeout time.Duration) error {
	p.gotoURLs = append(p.gotoURLs, url)
	p.gotoTimeouts = append(p.gotoTimeouts, timeout)
	p.url = url
	return nil
}
func (p *fakePage) URL() string { return p.url }
func (p *fakePage) Fill(selector, value string) error {
	if p.fills == nil {
		p.fills = map[string]string{}
	}
	p.fills[selector] = value
	return nil
}
func (p *fakePage) Click(selector string) error {
	p.clicks = append(p.clicks, selector)
	if p.urlAfterClick != "" {
		p.url = p.urlAfterClick
	}
	return nil
}
func (p *fakePage) WaitForSelector(selector string, timeout time.Duration) error { return nil }
func (p *fakePage) WaitFor(d time.Duration)                                      {}
func (p *fakePage) Elements(selector string) []browser.Element                   { return p.rows }

func betElement(bookmaker, odds, href string) *fakeElement {
	return &fakeElement{
		texts: map[string]string{
			selBookmaker: bookmaker,
			selEventName: "Team A - Team B",
			selLeague:    "Premier League",
			selKickoff:   "Sep 1, 18:00",
			selMarket:    "Over 2.5",
			selOdds:      odds,
			selDepth:     "500",
		},
		attrs: map[string]string{selBetLink + "|href": href},
	}
}

func arbRow(percent, updated string, bets ...browser.Element) *fakeElement {
	return &fakeElement{
		texts: map[string]string{
			selPercent:   percent,
			selSport:     "Football",
			selUpdatedAt: updated,
		},
		attrs:    map[string]string{selPercent + "|class": "percent green"},
		children: map[string][]browser.Element{selBetWrapper: bets},
	}
}

func TestScanExtractsOpportunities(t *testing.T) {
	row := arbRow("2.34%", "5 sec",
		betElement("Pinnacle", "2.10", "/bets/go?arb_hash=abc123&bk=1"),
		betElement("bet365", "2.05", "/bets/go?arb_hash=abc123&bk=2"),
	)
	page := &fakePage{rows: []browser.Element{row}}
	s := New(page, "https://feed.example.com/", 0)

	ops := s.Scan()
	if len(ops) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(ops))
	}
	op := ops[0]
	if op.ID != "abc123" {
		t.Errorf("expected ID abc123, got %q", op.ID)
	}
	if op.Sport != "Football" || op.Percent != "2.34%" || op.UpdatedAt != "5 sec" {
		t.Errorf("unexpected header fields: %+v", op)
	}
	if op.PercentClass != "percent green" {
		t.Errorf("expected percent class, got %q", op.PercentClass)
	}
	if len(op.Legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(op.Legs))
	}
	if op.Legs[0].Bookmaker != "Pinnacle" || op.Legs[0].Odds != "2.10" {
		t.Errorf("unexpected first leg: %+v", op.Legs[0])
	}
	if op.Legs[1].BetURL != "https://feed.example.com/bets/go?arb_hash=abc123&bk=2" {
		t.Errorf("expected absolute bet URL, got %q", op.Legs[1].BetURL)
	}
}

func TestScanSkipsRowsWithoutHash(t *testing.T) {
	noHash := arbRow("1.10%", "3 sec",
		betElement("Pinnacle", "2.10", "/bets/go?foo=bar"),
	)
	good := arbRow("2.00%", "4 sec",
		betElement("bet365", "1.95", "/bets/go?arb_hash=xyz"),
	)
	page := &fakePage{rows: []browser.Element{noHash, good}}
	s := New(page, "https://feed.example.com", 0)

	ops := s.Scan()
	if len(ops) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(ops))
	}
	if ops[0].ID != "xyz" {
		t.Errorf("expected xyz, got %q", ops[0].ID)
	}
}

func TestScanEmptyFeed(t *testing.T) {
	s := New(&fakePage{}, "https://feed.example.com", 0)
	if ops := s.Scan(); len(ops) != 0 {
		t.Errorf("expected no opportunities, got %d", len(ops))
	}
}

func TestLoginSubmitsAndDetectsRedirect(t *testing.T) {
	page := &fakePage{urlAfterClick: "https://feed.example.com/dashboard"}
	s := New(page, "https://feed.example.com", 0)

	if err := s.Login("user@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if page.fills[selLoginEmail] != "user@example.com" {
		t.Errorf("email not filled: %v", page.fills)
	}
	if page.fills[selLoginPass] != "secret" {
		t.Errorf("password not filled: %v", page.fills)
	}
	if len(page.clicks) != 1 || page.clicks[0] != selLoginSubmit {
		t.Errorf("expected one submit click, got %v", page.clicks)
	}
	if len(page.gotoURLs) != 1 || !strings.Contains(page.gotoURLs[0], loginPathMarker) {
		t.Errorf("expected navigation to sign-in page, got %v", page.gotoURLs)
	}
}

func TestOpenFeedNavigates(t *testing.T) {
	page := &fakePage{}
	s := New(page, "https://feed.example.com", 0)
	if err := s.OpenFeed(); err != nil {
		t.Fatalf("open feed: %v", err)
	}
	if len(page.gotoURLs) != 1 || page.gotoURLs[0] != "https://feed.example.com/arbs" {
		t.Errorf("expected feed navigation, got %v", page.gotoURLs)
	}
}

func TestNavigationUsesConfiguredTimeout(t *testing.T) {
	page := &fakePage{urlAfterClick: "https://feed.example.com/dashboard"}
	s := New(page, "https://feed.example.com", 45*time.Second)

	if err := s.Login("u@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := s.OpenFeed(); err != nil {
		t.Fatalf("open feed: %v", err)
	}
	if len(page.gotoTimeouts) != 2 {
		t.Fatalf("expected 2 navigations, got %d", len(page.gotoTimeouts))
	}
	for i, d := range page.gotoTimeouts {
		if d != 45*time.Second {
			t.Errorf("navigation %d used timeout %v, want 45s", i, d)
		}
	}

	defaulted := New(&fakePage{}, "https://feed.example.com", 0)
	if defaulted.navTimeout != defaultNavTimeout {
		t.Errorf("zero timeout must select the default, got %v", defaulted.navTimeout)
	}
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://x.com/go?arb_hash=deadbeef", "deadbeef"},
		{"https://x.com/go?bk=1&arb_hash=h42", "h42"},
		{"https://x.com/go?bk=1", ""},
		{"", ""},
		{"://bad url", ""},
	}
	for _, tt := range tests {
		if got := extractID(tt.url); got != tt.want {
			t.Errorf("extractID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
